// Package session runs git operations inside a credentialed region: the key
// is written to disk, git is pointed at it and an ssh-agent holds it for
// exactly as long as the operation runs.
package session

import (
	"context"
	"fmt"
	"strings"

	"gitkey.dev/gitkey/internal/agent"
	"gitkey.dev/gitkey/internal/credential"
	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/gitconfig"
	"gitkey.dev/gitkey/internal/output"
)

// EnvGitSSHCommand overrides core.sshCommand for a single git process
const EnvGitSSHCommand = "GIT_SSH_COMMAND"

// ConfigMode selects how git is pointed at the key file
type ConfigMode string

const (
	// ConfigGlobal rewrites the global core.sshCommand for the duration
	ConfigGlobal ConfigMode = "global"
	// ConfigProcess sets GIT_SSH_COMMAND on the operation's commands only
	ConfigProcess ConfigMode = "process"
)

// ParseConfigMode validates a configScope value; empty means ConfigGlobal
func ParseConfigMode(s string) (ConfigMode, error) {
	switch ConfigMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ConfigGlobal:
		return ConfigGlobal, nil
	case ConfigProcess:
		return ConfigProcess, nil
	}
	return "", gkerrors.NewValidationError("configScope", fmt.Sprintf("%q is not one of global, process", s))
}

// Params are the caller supplied inputs of one operation
type Params struct {
	RepoPath  string
	Remote    string
	SSHKey    string
	SaveCreds bool
	Username  string
	Password  string
}

// HasKey reports whether the operation needs the credentialed region
func (p Params) HasKey() bool {
	return strings.TrimSpace(p.SSHKey) != ""
}

// Operation is what an inner function receives: the original params plus the
// key file path and the environment its commands must run with.
type Operation struct {
	Params  Params
	KeyPath string
	Env     map[string]string
}

// Result is the outcome of an inner function
type Result struct {
	Output string
	Steps  []gkerrors.StepOutput
}

// InnerFunc performs the actual git work
type InnerFunc func(ctx context.Context, op *Operation) (*Result, error)

// Materializer writes and destroys key files
type Materializer interface {
	Materialize(ctx context.Context, rawKey string, retain bool) (*credential.Handle, error)
	Destroy(ctx context.Context, h *credential.Handle) error
}

// ConfigScope temporarily overrides a global git config key
type ConfigScope interface {
	Enter(ctx context.Context, key, value string) (gitconfig.Prior, error)
	Exit(ctx context.Context, key string, prior gitconfig.Prior) error
}

// Observer is told about each lifecycle step
type Observer interface {
	Begin(step string)
	End(step string, err error)
}

// Lifecycle step names reported to the Observer
const (
	StepMaterialize = "write key file"
	StepConfigure   = "point git at key"
	StepAgent       = "load key into ssh-agent"
	StepCleanup     = "clean up credentials"
)

// Options configures a Guard
type Options struct {
	Materializer Materializer
	Scope        ConfigScope
	Agent        agent.Manager
	Lock         Locker
	Splog        *output.Splog
	Observer     Observer
	// SSHOptions are passed to ssh before -i; gitconfig.DefaultSSHOptions when nil
	SSHOptions []string
	Mode       ConfigMode
}

// Guard owns the process-wide state touched by credentialed operations and
// serializes access to it.
type Guard struct {
	materializer Materializer
	scope        ConfigScope
	agent        agent.Manager
	lock         Locker
	splog        *output.Splog
	observer     Observer
	sshOptions   []string
	mode         ConfigMode
}

// NewGuard creates a Guard
func NewGuard(opts Options) *Guard {
	g := &Guard{
		materializer: opts.Materializer,
		scope:        opts.Scope,
		agent:        opts.Agent,
		lock:         opts.Lock,
		splog:        opts.Splog,
		observer:     opts.Observer,
		sshOptions:   opts.SSHOptions,
		mode:         opts.Mode,
	}
	if g.agent == nil {
		g.agent = agent.NewNoop()
	}
	if g.lock == nil {
		g.lock = NewRegionLock("")
	}
	if g.splog == nil {
		g.splog = output.NewSplog()
	}
	if g.observer == nil {
		g.observer = nopObserver{}
	}
	if g.mode == "" {
		g.mode = ConfigGlobal
	}
	return g
}

// WithCredential runs inner inside the credentialed region. Without a key,
// inner is called directly and nothing is touched.
//
// Cleanup always runs, in reverse order of acquisition. An inner error is
// returned as is; a cleanup failure after a successful inner call is returned
// as a *errors.CleanupError alongside the result.
func (g *Guard) WithCredential(ctx context.Context, p Params, inner InnerFunc) (res *Result, err error) {
	if !p.HasKey() {
		return inner(ctx, &Operation{Params: p, Env: map[string]string{}})
	}

	lease, err := g.Acquire(ctx, p)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := lease.Release(ctx); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()

	return inner(ctx, lease.Operation())
}

// Acquire enters the credentialed region and returns a Lease that must be
// released. If any step fails, the steps already taken are undone before the
// error is returned.
func (g *Guard) Acquire(ctx context.Context, p Params) (*Lease, error) {
	if !p.HasKey() {
		return &Lease{op: &Operation{Params: p, Env: map[string]string{}}}, nil
	}

	unlock, err := g.lock.Lock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enter credential region: %w", err)
	}
	l := &Lease{g: g, unlock: unlock}

	if err := l.acquire(ctx, p); err != nil {
		if releaseErr := l.Release(ctx); releaseErr != nil {
			g.splog.Debug("Cleanup after failed acquisition: %v", releaseErr)
		}
		return nil, err
	}
	return l, nil
}

type nopObserver struct{}

func (nopObserver) Begin(string)      {}
func (nopObserver) End(string, error) {}
