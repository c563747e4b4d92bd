//go:build windows

package agent

import (
	"gitkey.dev/gitkey/internal/process"
)

// New returns the no-op manager: gitkey does not drive the Windows OpenSSH
// agent service.
func New(_ process.Runner, _ Options) Manager {
	return NewNoop()
}
