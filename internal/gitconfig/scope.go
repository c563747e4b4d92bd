// Package gitconfig temporarily overrides global git configuration and knows
// how gitkey points git at a key file.
package gitconfig

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/process"
)

// SSHCommandKey is the global key that tells git which ssh command to use
const SSHCommandKey = "core.sshCommand"

// git config exit statuses
const (
	exitKeyNotSet   = 1
	exitNothingToDo = 5
)

// Prior is the value a key had before a scope was entered
type Prior struct {
	Value string
	// Set is false when the key was absent
	Set bool
}

// String implements fmt.Stringer
func (p Prior) String() string {
	if !p.Set {
		return "<unset>"
	}
	return p.Value
}

// Scope reads and writes global git configuration through the git CLI.
//
// A Scope is not safe for overlapping use on the same key: callers must pair
// Enter and Exit and serialize them.
type Scope struct {
	runner process.Runner
	env    map[string]string
}

// NewScope creates a Scope. env is passed to every git config invocation,
// which lets tests point git at an isolated global config.
func NewScope(runner process.Runner, env map[string]string) *Scope {
	return &Scope{runner: runner, env: env}
}

// Get returns the current global value of key. An unset key is not an error.
func (s *Scope) Get(ctx context.Context, key string) (Prior, error) {
	res, err := s.git(ctx, "config", "--global", "--get", key)
	if err != nil {
		var perr *gkerrors.ProcessError
		if errors.As(err, &perr) && perr.ExitCode == exitKeyNotSet {
			return Prior{}, nil
		}
		return Prior{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	value := strings.TrimSuffix(res.Stdout, "\n")
	value = strings.TrimSuffix(value, "\r")
	return Prior{Value: value, Set: true}, nil
}

// Enter captures the current value of key and replaces it with value
func (s *Scope) Enter(ctx context.Context, key, value string) (Prior, error) {
	prior, err := s.Get(ctx, key)
	if err != nil {
		return Prior{}, err
	}
	if _, err := s.git(ctx, "config", "--global", key, value); err != nil {
		return Prior{}, fmt.Errorf("failed to set %s: %w", key, err)
	}
	return prior, nil
}

// Exit restores key to prior: the captured value verbatim, or no value at all
func (s *Scope) Exit(ctx context.Context, key string, prior Prior) error {
	if prior.Set {
		if _, err := s.git(ctx, "config", "--global", key, prior.Value); err != nil {
			return fmt.Errorf("failed to restore %s: %w", key, err)
		}
		return nil
	}

	_, err := s.git(ctx, "config", "--global", "--unset", key)
	if err != nil {
		var perr *gkerrors.ProcessError
		if errors.As(err, &perr) && perr.ExitCode == exitNothingToDo {
			return nil
		}
		return fmt.Errorf("failed to unset %s: %w", key, err)
	}
	return nil
}

func (s *Scope) git(ctx context.Context, args ...string) (*process.Result, error) {
	return s.runner.Run(ctx, process.Command{
		Name:     "git",
		Args:     args,
		Env:      s.env,
		Progress: io.Discard,
	})
}
