package actions

import (
	"context"
	"strings"
	"unicode"

	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/runtime"
	"gitkey.dev/gitkey/internal/session"
)

// TagOptions contains options for the tag command
type TagOptions struct {
	RepoPath string
	Name     string
	// Message makes the tag annotated; empty creates a lightweight tag
	Message   string
	UserName  string
	UserEmail string
	Push      bool
	Remote    string
	Credentials
}

// TagArgs builds `git tag -a <name> -m <message>`, or `git tag <name>` for a
// lightweight tag
func TagArgs(name, message string) []string {
	if message == "" {
		return []string{"tag", name}
	}
	return []string{"tag", "-a", name, "-m", message}
}

// ValidateTagName rejects empty names and names containing whitespace
func ValidateTagName(name string) error {
	if name == "" {
		return gkerrors.NewValidationError("tag", "name is required")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return gkerrors.NewValidationError("tag", `name cannot contain spaces and should be a version such as "v2.1.0"`)
	}
	return nil
}

// TagAction creates a tag and optionally pushes it
func TagAction(ctx *runtime.Context, opts TagOptions) (*session.Result, error) {
	if err := ValidateTagName(opts.Name); err != nil {
		return nil, err
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
			if err := rec.git("tag", opts.RepoPath, TagArgs(opts.Name, opts.Message)...); err != nil {
				return nil, rec.fail(err)
			}
			if opts.Push {
				if err := rec.git("push", opts.RepoPath, PushArgs(opts.Remote, opts.Name, nil)...); err != nil {
					return nil, rec.fail(err)
				}
			}
			return rec.result(), nil
		})
}
