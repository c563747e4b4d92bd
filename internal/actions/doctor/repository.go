package doctor

import (
	"errors"
	"io/fs"
	"os"

	"gitkey.dev/gitkey/internal/gitconfig"
	"gitkey.dev/gitkey/internal/runtime"
)

func missing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}

// checkSSHCommand looks for core.sshCommand values that point at key files
// which no longer exist. Those break every later ssh operation.
func checkSSHCommand(ctx *runtime.Context, r *report, opts Options) {
	scope := gitconfig.NewScope(ctx.Runner, opts.GitEnv)
	current, err := scope.Get(ctx.Context, gitconfig.SSHCommandKey)
	switch {
	case err != nil:
		r.fail("cannot read global %s: %v", gitconfig.SSHCommandKey, err)
	case !current.Set:
		r.ok("global %s is not set", gitconfig.SSHCommandKey)
	default:
		keyPath, err := gitconfig.KeyPathFromSSHCommand(current.Value)
		switch {
		case err != nil:
			r.ok("global %s is %q", gitconfig.SSHCommandKey, current.Value)
		case !missing(keyPath):
			r.ok("global %s uses %s", gitconfig.SSHCommandKey, keyPath)
		case opts.Fix:
			if err := scope.Exit(ctx.Context, gitconfig.SSHCommandKey, gitconfig.Prior{}); err != nil {
				r.fail("failed to unset global %s: %v", gitconfig.SSHCommandKey, err)
			} else {
				r.warn("unset global %s, which pointed at missing key %s", gitconfig.SSHCommandKey, keyPath)
			}
		default:
			r.warn("global %s points at missing key %s", gitconfig.SSHCommandKey, keyPath)
		}
	}

	if opts.RepoPath == "" || !gitconfig.IsRepository(opts.RepoPath) {
		return
	}
	if keyPath, err := gitconfig.KeyPathFromRepo(opts.RepoPath); err == nil && missing(keyPath) {
		r.warn("%s in %s points at missing key %s; run `git config --unset %s` there",
			gitconfig.SSHCommandKey, opts.RepoPath, keyPath, gitconfig.SSHCommandKey)
	}
}
