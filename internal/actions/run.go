package actions

import (
	"context"
	"strings"

	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/gitconfig"
	"gitkey.dev/gitkey/internal/process"
	"gitkey.dev/gitkey/internal/runtime"
	"gitkey.dev/gitkey/internal/session"
)

// Environment passed to commands started by RunAction
const (
	EnvGitPassword   = "GITKEY_GIT_PASSWORD"
	EnvGitSSHKeyPath = "GITKEY_GIT_SSH_KEY_PATH"
)

// RunOptions contains options for the run command
type RunOptions struct {
	// Dir is the working directory; defaults to the current directory
	Dir     string
	Command string
	Credentials
}

// RunEnv returns the extra environment for a run command. Empty values are
// left out so they never mask inherited variables.
func RunEnv(base map[string]string, password, keyPath string) map[string]string {
	env := make(map[string]string, len(base)+2)
	for k, v := range base {
		env[k] = v
	}
	if password != "" {
		env[EnvGitPassword] = password
	}
	if keyPath != "" {
		env[EnvGitSSHKeyPath] = keyPath
	}
	return env
}

// RunAction runs an arbitrary command line through the shell. When no key is
// given and Dir is a repository configured with a key file, that key path is
// exported instead.
func RunAction(ctx *runtime.Context, opts RunOptions) (*session.Result, error) {
	if strings.TrimSpace(opts.Command) == "" {
		return nil, gkerrors.NewValidationError("command", "command is required")
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	return ctx.Guard.WithCredential(ctx.Context, opts.params(dir, ""),
		func(_ context.Context, op *session.Operation) (*session.Result, error) {
			keyPath := op.KeyPath
			if keyPath == "" && gitconfig.IsRepository(dir) {
				if p, err := gitconfig.KeyPathFromRepo(dir); err == nil {
					ctx.Splog.Debug("Using key %s from %s", p, dir)
					keyPath = p
				}
			}

			cmd := process.ShellCommand(opts.Command)
			cmd.Dir = dir
			cmd.Env = RunEnv(op.Env, opts.Password, keyPath)

			ctx.Steps.Begin("run")
			res, err := ctx.Runner.Run(ctx.Context, cmd)
			ctx.Steps.End("run", err)
			if err != nil {
				return nil, err
			}
			return &session.Result{
				Output: res.Output(),
				Steps:  []gkerrors.StepOutput{{Step: "run", Output: res.Output()}},
			}, nil
		})
}
