package actions

import (
	"context"

	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/gitconfig"
	"gitkey.dev/gitkey/internal/runtime"
	"gitkey.dev/gitkey/internal/session"
)

// PullOptions contains options for the pull command
type PullOptions struct {
	RepoPath string
	Force    bool
	// NoCommit stops git from creating a merge commit
	NoCommit  bool
	ExtraArgs []string
	Credentials
}

// PullArgs builds `git pull [-f] --commit|--no-commit [extra...]`
func PullArgs(force, noCommit bool, extraArgs []string) []string {
	args := []string{"pull"}
	if force {
		args = append(args, "-f")
	}
	if noCommit {
		args = append(args, "--no-commit")
	} else {
		args = append(args, "--commit")
	}
	return append(args, extraArgs...)
}

func requireRepository(p string) error {
	if p == "" {
		return gkerrors.NewValidationError("repository", "path is required")
	}
	if !gitconfig.IsRepository(p) {
		return gkerrors.NewValidationError("repository", p+" is not a git repository")
	}
	return nil
}

// PullAction pulls into the repository at RepoPath
func PullAction(ctx *runtime.Context, opts PullOptions) (*session.Result, error) {
	if err := requireRepository(opts.RepoPath); err != nil {
		return nil, err
	}
	args := PullArgs(opts.Force, opts.NoCommit, opts.ExtraArgs)

	return ctx.Guard.WithCredential(ctx.Context, opts.params(opts.RepoPath, ""),
		func(_ context.Context, op *session.Operation) (*session.Result, error) {
			rec := newStepRecorder(ctx, op)
			if err := rec.git("pull", opts.RepoPath, args...); err != nil {
				return nil, err
			}
			return rec.result(), nil
		})
}
