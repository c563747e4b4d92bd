package actions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/runtime"
	"gitkey.dev/gitkey/internal/session"
)

// CloneOptions contains options for the clone commands
type CloneOptions struct {
	URL    string
	Branch string
	// Path is the clone destination; defaults to the repository name
	Path      string
	Overwrite bool
	ExtraArgs []string
	Credentials
}

// CloneArgs builds `git clone --progress <url> [-b branch] [extra...] <path>`
func CloneArgs(url, branch string, extraArgs []string, clonePath string) []string {
	args := []string{"clone", "--progress", url}
	if branch != "" {
		args = append(args, "-b", branch)
	}
	args = append(args, extraArgs...)
	return append(args, clonePath)
}

// IsHTTPS reports whether url uses the https scheme
func IsHTTPS(url string) bool {
	return strings.HasPrefix(strings.ToLower(url), "https://")
}

// AuthenticatedURL embeds username and password into an https URL
func AuthenticatedURL(rawURL, username, password string) (string, error) {
	ep, err := transport.NewEndpoint(rawURL)
	if err != nil {
		return "", gkerrors.NewValidationError("url", err.Error())
	}
	ep.User = username
	ep.Password = password
	return ep.String(), nil
}

// ResolveClonePath returns the absolute clone destination: p when given
// (with ~ expanded), otherwise the repository name without .git.
func ResolveClonePath(p, rawURL string) (string, error) {
	if p == "" {
		name := ""
		if ep, err := transport.NewEndpoint(rawURL); err == nil {
			name = path.Base(strings.TrimSuffix(ep.Path, "/"))
		}
		name = strings.TrimSuffix(name, ".git")
		if name == "" || name == "." || name == "/" {
			return "", gkerrors.NewValidationError("path", fmt.Sprintf("cannot derive a directory name from %q", rawURL))
		}
		p = name
	}
	return filepath.Abs(expandHome(p))
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

// emptyDir removes everything inside dir, keeping dir itself
func emptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to empty %s: %w", dir, err)
		}
	}
	return nil
}

// validatePrivateClone returns the URL git should clone from. An https URL
// needs a username and password; anything else is cloned over ssh and
// needs a key.
func validatePrivateClone(ctx *runtime.Context, opts CloneOptions) (string, error) {
	if opts.URL == "" {
		return "", gkerrors.NewValidationError("url", "repository URL is required")
	}
	if IsHTTPS(opts.URL) {
		if opts.Username == "" || opts.Password == "" {
			return "", gkerrors.NewValidationError("credentials", "both username and password are required for https repository URLs")
		}
		return AuthenticatedURL(opts.URL, opts.Username, opts.Password)
	}
	if opts.Username != "" || opts.Password != "" {
		ctx.Splog.Warn("Username and password are only used with https repository URLs")
	}
	if strings.TrimSpace(opts.SSHKey) == "" {
		return "", gkerrors.NewCredentialError("clone", fmt.Errorf("%w for non-https repository URLs", gkerrors.ErrKeyMissing))
	}
	return opts.URL, nil
}

// CloneAction clones a private repository over ssh with a key, or over https
// with a username and password
func CloneAction(ctx *runtime.Context, opts CloneOptions) (*session.Result, error) {
	if err := VerifyGitVersion(ctx); err != nil {
		return nil, err
	}
	cloneURL, err := validatePrivateClone(ctx, opts)
	if err != nil {
		return nil, err
	}
	return clone(ctx, opts, cloneURL)
}

// ClonePublicAction clones a public repository over https without credentials
func ClonePublicAction(ctx *runtime.Context, opts CloneOptions) (*session.Result, error) {
	if err := VerifyGitVersion(ctx); err != nil {
		return nil, err
	}
	if !IsHTTPS(opts.URL) {
		return nil, gkerrors.NewValidationError("url", "public repositories must use an https URL; anonymous ssh is not supported")
	}
	opts.Credentials = Credentials{}
	return clone(ctx, opts, opts.URL)
}

func clone(ctx *runtime.Context, opts CloneOptions, cloneURL string) (*session.Result, error) {
	clonePath, err := ResolveClonePath(opts.Path, opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.Overwrite {
		if err := emptyDir(clonePath); err != nil {
			return nil, err
		}
	}

	args := CloneArgs(cloneURL, opts.Branch, opts.ExtraArgs, clonePath)
	return ctx.Guard.WithCredential(ctx.Context, opts.params(clonePath, opts.URL),
		func(_ context.Context, op *session.Operation) (*session.Result, error) {
			rec := newStepRecorder(ctx, op)
			if err := rec.git("clone", "", args...); err != nil {
				return nil, redact(err, cloneURL, opts.URL)
			}
			return rec.result(), nil
		})
}

// redact hides the password embedded in an authenticated URL. A process
// error is replaced by a scrubbed copy so errors.As never exposes it.
func redact(err error, secretURL, publicURL string) error {
	if secretURL == publicURL {
		return err
	}
	scrub := func(s string) string { return strings.ReplaceAll(s, secretURL, publicURL) }

	if perr, ok := err.(*gkerrors.ProcessError); ok {
		args := make([]string, len(perr.Args))
		for i, arg := range perr.Args {
			args[i] = scrub(arg)
		}
		return gkerrors.NewProcessError(perr.Command, args, scrub(perr.Stdout), scrub(perr.Stderr), perr.ExitCode, perr.Err)
	}
	return &redactedError{err: err, secret: secretURL, public: publicURL}
}

type redactedError struct {
	err            error
	secret, public string
}

func (e *redactedError) Error() string {
	return strings.ReplaceAll(e.err.Error(), e.secret, e.public)
}

func (e *redactedError) Unwrap() error {
	return e.err
}
