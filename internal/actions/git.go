package actions

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/mod/semver"

	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/process"
	"gitkey.dev/gitkey/internal/runtime"
	"gitkey.dev/gitkey/internal/session"
)

// MinimumGitVersion is the oldest git that understands core.sshCommand
const MinimumGitVersion = "2.10.0"

// Credentials are the secrets an action may authenticate with
type Credentials struct {
	SSHKey    string
	SaveCreds bool
	Username  string
	Password  string
}

func (c Credentials) params(repoPath, remote string) session.Params {
	return session.Params{
		RepoPath:  repoPath,
		Remote:    remote,
		SSHKey:    c.SSHKey,
		SaveCreds: c.SaveCreds,
		Username:  c.Username,
		Password:  c.Password,
	}
}

// ParseGitVersion extracts the x.y.z version from `git --version` output,
// ignoring vendor suffixes such as ".windows.1" or " (Apple Git-146)".
func ParseGitVersion(out string) (string, error) {
	fields := strings.Fields(out)
	if len(fields) < 3 || fields[0] != "git" || fields[1] != "version" {
		return "", fmt.Errorf("unexpected git --version output %q", strings.TrimSpace(out))
	}
	parts := strings.Split(fields[2], ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	version := strings.Join(parts, ".")
	if !semver.IsValid("v" + version) {
		return "", fmt.Errorf("unexpected git version %q", fields[2])
	}
	return version, nil
}

// VerifyGitVersion fails unless git is at least MinimumGitVersion
func VerifyGitVersion(ctx *runtime.Context) error {
	res, err := ctx.Runner.Run(ctx.Context, process.Command{
		Name:     "git",
		Args:     []string{"--version"},
		Progress: io.Discard,
	})
	if err != nil {
		return fmt.Errorf("could not determine git version: %w", err)
	}
	version, err := ParseGitVersion(res.Stdout)
	if err != nil {
		return fmt.Errorf("could not determine git version: %w", err)
	}
	if semver.Compare("v"+version, "v"+MinimumGitVersion) < 0 {
		return gkerrors.NewValidationError("git", fmt.Sprintf("version must be %s or higher, got %s", MinimumGitVersion, version))
	}
	ctx.Splog.Debug("Using git %s", version)
	return nil
}

// stepRecorder runs the git commands of one action and remembers what each
// completed step printed
type stepRecorder struct {
	ctx       *runtime.Context
	op        *session.Operation
	completed []gkerrors.StepOutput
}

func newStepRecorder(ctx *runtime.Context, op *session.Operation) *stepRecorder {
	return &stepRecorder{ctx: ctx, op: op}
}

// git runs `git <args>` in dir as the step named step
func (r *stepRecorder) git(step, dir string, args ...string) error {
	name := "git " + step
	r.ctx.Steps.Begin(name)
	res, err := r.ctx.Runner.Run(r.ctx.Context, process.Command{
		Name: "git",
		Args: args,
		Dir:  dir,
		Env:  r.op.Env,
	})
	r.ctx.Steps.End(name, err)
	if err != nil {
		return err
	}
	r.completed = append(r.completed, gkerrors.StepOutput{Step: step, Output: res.Output()})
	return nil
}

// quiet runs a bookkeeping git command that is not reported as a step
func (r *stepRecorder) quiet(dir string, args ...string) error {
	_, err := r.ctx.Runner.Run(r.ctx.Context, process.Command{
		Name:     "git",
		Args:     args,
		Dir:      dir,
		Env:      r.op.Env,
		Progress: io.Discard,
	})
	return err
}

// fail wraps err with the outputs of the steps that completed before it
func (r *stepRecorder) fail(err error) error {
	if len(r.completed) == 0 {
		return err
	}
	return gkerrors.NewStepError(r.completed, err)
}

func (r *stepRecorder) result() *session.Result {
	outputs := make([]string, 0, len(r.completed))
	for _, s := range r.completed {
		if out := strings.TrimRight(s.Output, "\n"); out != "" {
			outputs = append(outputs, out)
		}
	}
	return &session.Result{Output: strings.Join(outputs, "\n"), Steps: r.completed}
}

// setIdentity configures the repository-local author when given
func (r *stepRecorder) setIdentity(dir, name, email string) error {
	if name != "" {
		if err := r.quiet(dir, "config", "user.name", name); err != nil {
			return err
		}
	}
	if email != "" {
		if err := r.quiet(dir, "config", "user.email", email); err != nil {
			return err
		}
	}
	return nil
}
