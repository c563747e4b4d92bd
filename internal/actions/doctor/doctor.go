// Package doctor provides diagnostic checks for the tools gitkey needs and for
// credentials left behind by earlier runs.
package doctor

import (
	"fmt"
	"os/exec"

	"gitkey.dev/gitkey/internal/output"
	"gitkey.dev/gitkey/internal/runtime"
)

// Options contains options for the doctor command
type Options struct {
	Fix bool
	// RepoPath is also checked for a stale local core.sshCommand when it is a
	// repository
	RepoPath string
	// KeyDir is where key files are written; empty means the system temp dir
	KeyDir string
	// GitEnv is passed to git config invocations
	GitEnv map[string]string
	// LookPath defaults to exec.LookPath
	LookPath func(string) (string, error)
}

// report collects the problems found by the checks
type report struct {
	splog    *output.Splog
	warnings []string
	errors   []string
}

func (r *report) ok(format string, args ...interface{}) {
	r.splog.Info("  ✅ "+format, args...)
}

func (r *report) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.warnings = append(r.warnings, msg)
	r.splog.Warn("  %s", msg)
}

func (r *report) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.errors = append(r.errors, msg)
	r.splog.Error("  %s", msg)
}

// Action runs diagnostic checks on the environment, the key directory and the
// git configuration
func Action(ctx *runtime.Context, opts Options) error {
	splog := ctx.Splog
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}

	if opts.Fix {
		splog.Info("Running gitkey doctor with --fix...")
	} else {
		splog.Info("Running gitkey doctor...")
	}
	r := &report{splog: splog}

	splog.Info("Environment:")
	checkEnvironment(ctx, r, opts.LookPath)

	splog.Info("Key files:")
	checkKeyDir(ctx, r, opts)

	splog.Info("Git configuration:")
	checkSSHCommand(ctx, r, opts)

	switch {
	case len(r.errors) > 0:
		splog.Warn("Doctor found %d error(s) and %d warning(s).", len(r.errors), len(r.warnings))
		return fmt.Errorf("doctor found %d error(s)", len(r.errors))
	case len(r.warnings) > 0:
		if opts.Fix {
			splog.Info("Doctor found %d warning(s), some of which may have been fixed.", len(r.warnings))
		} else {
			splog.Info("Doctor found %d warning(s). Run with --fix to clean up.", len(r.warnings))
		}
	default:
		splog.Info("✅ All checks passed.")
	}
	return nil
}
