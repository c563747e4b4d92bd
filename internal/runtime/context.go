package runtime

import (
	"context"
	"io"

	"gitkey.dev/gitkey/internal/agent"
	"gitkey.dev/gitkey/internal/config"
	"gitkey.dev/gitkey/internal/credential"
	"gitkey.dev/gitkey/internal/gitconfig"
	"gitkey.dev/gitkey/internal/output"
	"gitkey.dev/gitkey/internal/process"
	"gitkey.dev/gitkey/internal/session"
)

// Context provides access to the logger, command runner and credential guard
// for actions
type Context struct {
	Context context.Context
	Splog   *output.Splog
	Runner  process.Runner
	Guard   *session.Guard
	// Steps reports the progress of multi-step actions
	Steps output.StepProgress
}

// NewContext creates a context from already built parts
func NewContext(ctx context.Context, splog *output.Splog, runner process.Runner, guard *session.Guard) *Context {
	return &Context{
		Context: ctx,
		Splog:   splog,
		Runner:  runner,
		Guard:   guard,
		Steps:   output.NewSimpleStepProgress(splog),
	}
}

// Options control how NewContextFromConfig wires things up
type Options struct {
	// Interactive draws an animated step display instead of streaming git
	// output
	Interactive bool
	// GitEnv is passed to every git config invocation
	GitEnv map[string]string
}

// NewContextFromConfig wires the production dependencies described by cfg
func NewContextFromConfig(ctx context.Context, cfg *config.Config, splog *output.Splog, opts Options) (*Context, error) {
	timeout, err := cfg.GetCommandTimeout()
	if err != nil {
		return nil, err
	}
	lifetime, err := cfg.GetAgentKeyLifetime()
	if err != nil {
		return nil, err
	}
	mode, err := session.ParseConfigMode(cfg.GetConfigScope())
	if err != nil {
		return nil, err
	}

	steps := output.NewStepProgress(splog, opts.Interactive)
	var progress io.Writer = output.NewProgressWriter(splog)
	if opts.Interactive {
		progress = io.Discard
	}
	runner := process.NewExecutor(timeout, progress)

	guard := session.NewGuard(session.Options{
		Materializer: credential.NewMaterializer(cfg.GetKeyDir(), credential.NewShredder(runner, cfg.GetShredPasses())),
		Scope:        gitconfig.NewScope(runner, opts.GitEnv),
		Agent:        agent.New(runner, agent.Options{KeyLifetime: lifetime}),
		Lock:         session.NewRegionLock(cfg.GetLockFile()),
		Splog:        splog,
		Observer:     steps,
		SSHOptions:   cfg.GetSSHOptions(),
		Mode:         mode,
	})
	splog.Debug("Using config %s (scope %s)", cfg.Path(), mode)

	return &Context{
		Context: ctx,
		Splog:   splog,
		Runner:  runner,
		Guard:   guard,
		Steps:   steps,
	}, nil
}

// Close finalizes progress output
func (c *Context) Close() {
	if c.Steps != nil {
		c.Steps.Complete()
	}
}

type contextKey struct{}

// WithContext stores c in parent so commands can retrieve it with GetContext
func WithContext(parent context.Context, c *Context) context.Context {
	return context.WithValue(parent, contextKey{}, c)
}

// GetContext returns the Context stored by WithContext
func GetContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(contextKey{}).(*Context)
	return c, ok && c != nil
}
