package actions

import (
	"context"
	"strings"

	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/runtime"
	"gitkey.dev/gitkey/internal/session"
)

// CommitOptions contains options for the commit command
type CommitOptions struct {
	RepoPath string
	Message  string
	// Paths are staged instead of everything when not empty
	Paths     []string
	UserName  string
	UserEmail string
	Push      bool
	Remote    string
	Branch    string
	Credentials
}

// AddArgs builds `git add -A`, or `git add <paths...>`
func AddArgs(paths []string) []string {
	if len(paths) == 0 {
		return []string{"add", "-A"}
	}
	return append([]string{"add"}, paths...)
}

// CommitArgs builds `git commit -a -m <message>`
func CommitArgs(message string) []string {
	return []string{"commit", "-a", "-m", message}
}

// CommitAction stages and commits changes and optionally pushes them
func CommitAction(ctx *runtime.Context, opts CommitOptions) (*session.Result, error) {
	if strings.TrimSpace(opts.Message) == "" {
		return nil, gkerrors.NewValidationError("message", "commit message is required")
	}
	if err := requireRepository(opts.RepoPath); err != nil {
		return nil, err
	}

	return ctx.Guard.WithCredential(ctx.Context, opts.params(opts.RepoPath, opts.Remote),
		func(_ context.Context, op *session.Operation) (*session.Result, error) {
			rec := newStepRecorder(ctx, op)
			if err := rec.setIdentity(opts.RepoPath, opts.UserName, opts.UserEmail); err != nil {
				return nil, err
			}
			if err := rec.git("add", opts.RepoPath, AddArgs(opts.Paths)...); err != nil {
				return nil, rec.fail(err)
			}
			if err := rec.git("commit", opts.RepoPath, CommitArgs(opts.Message)...); err != nil {
				return nil, rec.fail(err)
			}
			if opts.Push {
				if err := rec.git("push", opts.RepoPath, PushArgs(opts.Remote, opts.Branch, nil)...); err != nil {
					return nil, rec.fail(err)
				}
			}
			return rec.result(), nil
		})
}
