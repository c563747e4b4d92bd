package agent

import (
	"context"

	"gitkey.dev/gitkey/internal/credential"
)

// noopManager is used where there is no ssh-agent to drive. It never starts
// anything and never registers keys; git relies on core.sshCommand alone.
type noopManager struct{}

var _ Manager = noopManager{}

// NewNoop returns a Manager that does nothing
func NewNoop() Manager {
	return noopManager{}
}

func (noopManager) EnsureUp(context.Context, *credential.Handle) (bool, error) {
	return false, nil
}

func (noopManager) TearDown(context.Context, bool) error {
	return nil
}

func (noopManager) Env() map[string]string {
	return map[string]string{}
}
