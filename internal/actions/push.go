package actions

import (
	"context"

	"gitkey.dev/gitkey/internal/runtime"
	"gitkey.dev/gitkey/internal/session"
)

// DefaultRemote is pushed to when no remote is given
const DefaultRemote = "origin"

// PushOptions contains options for the push command
type PushOptions struct {
	RepoPath string
	// Remote defaults to DefaultRemote
	Remote string
	// Branch is the refspec to push; empty pushes git's default
	Branch    string
	ExtraArgs []string
	Credentials
}

// PushArgs builds `git push <remote> [refspec] [extra...]`
func PushArgs(remote, refspec string, extraArgs []string) []string {
	if remote == "" {
		remote = DefaultRemote
	}
	args := []string{"push", remote}
	if refspec != "" {
		args = append(args, refspec)
	}
	return append(args, extraArgs...)
}

// PushAction pushes the repository at RepoPath
func PushAction(ctx *runtime.Context, opts PushOptions) (*session.Result, error) {
	if err := requireRepository(opts.RepoPath); err != nil {
		return nil, err
	}
	args := PushArgs(opts.Remote, opts.Branch, opts.ExtraArgs)

	return ctx.Guard.WithCredential(ctx.Context, opts.params(opts.RepoPath, args[1]),
		func(_ context.Context, op *session.Operation) (*session.Result, error) {
			rec := newStepRecorder(ctx, op)
			if err := rec.git("push", opts.RepoPath, args...); err != nil {
				return nil, err
			}
			return rec.result(), nil
		})
}
