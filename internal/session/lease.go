package session

import (
	"context"
	"fmt"

	"gitkey.dev/gitkey/internal/credential"
	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/gitconfig"
)

// Lease is a held credentialed region. Release must be called exactly once
// the operation is done; further calls are no-ops.
type Lease struct {
	g      *Guard
	unlock func()
	op     *Operation

	handle       *credential.Handle
	prior        *gitconfig.Prior
	agentEnsured bool
	agentStarted bool
	released     bool
}

// Operation returns what the inner function runs with
func (l *Lease) Operation() *Operation {
	return l.op
}

func (l *Lease) acquire(ctx context.Context, p Params) error {
	g := l.g

	g.observer.Begin(StepMaterialize)
	h, err := g.materializer.Materialize(ctx, p.SSHKey, p.SaveCreds)
	g.observer.End(StepMaterialize, err)
	if err != nil {
		return err
	}
	l.handle = h
	g.splog.Debug("Wrote key file %s", h.Path)

	sshCommand := gitconfig.SSHCommand(h.Path, g.sshOptions)
	env := map[string]string{}

	g.observer.Begin(StepConfigure)
	if g.mode == ConfigProcess {
		env[EnvGitSSHCommand] = sshCommand
		g.observer.End(StepConfigure, nil)
	} else {
		prior, err := g.scope.Enter(ctx, gitconfig.SSHCommandKey, sshCommand)
		g.observer.End(StepConfigure, err)
		if err != nil {
			return fmt.Errorf("failed to set %s: %w", gitconfig.SSHCommandKey, err)
		}
		l.prior = &prior
		g.splog.Debug("Set global %s (was %s)", gitconfig.SSHCommandKey, prior)
	}

	g.observer.Begin(StepAgent)
	started, err := g.agent.EnsureUp(ctx, h)
	l.agentEnsured = true
	l.agentStarted = started
	g.observer.End(StepAgent, err)
	if err != nil {
		return err
	}
	if started {
		g.splog.Debug("Started ssh-agent")
	}
	for k, v := range g.agent.Env() {
		env[k] = v
	}

	l.op = &Operation{Params: p, KeyPath: h.Path, Env: env}
	return nil
}

// Release undoes the acquisition in reverse order: the key file is destroyed,
// core.sshCommand restored and the agent stopped if this lease started it.
// Every step runs even if an earlier one failed, and even when ctx has been
// cancelled. Agent teardown failures are only logged; the others are
// returned as a *errors.CleanupError.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.released || l.g == nil {
		return nil
	}
	l.released = true
	defer l.unlock()

	g := l.g
	ctx = context.WithoutCancel(ctx)
	g.observer.Begin(StepCleanup)

	var errs []error
	if l.handle != nil {
		if l.handle.Retain {
			g.splog.Tip("Key file kept at %s", l.handle.Path)
		} else if err := g.materializer.Destroy(ctx, l.handle); err != nil {
			g.splog.Warn("Failed to destroy key file: %v", err)
			errs = append(errs, err)
		}
	}

	if l.prior != nil {
		if err := g.scope.Exit(ctx, gitconfig.SSHCommandKey, *l.prior); err != nil {
			g.splog.Warn("Failed to restore global %s to %s: %v", gitconfig.SSHCommandKey, *l.prior, err)
			errs = append(errs, fmt.Errorf("failed to restore %s: %w", gitconfig.SSHCommandKey, err))
		}
	}

	if l.agentEnsured {
		if err := g.agent.TearDown(ctx, l.agentStarted); err != nil {
			g.splog.Warn("Failed to stop ssh-agent: %v", err)
		}
	}

	cleanupErr := gkerrors.NewCleanupError(errs...)
	if cleanupErr == nil {
		g.observer.End(StepCleanup, nil)
		return nil
	}
	g.observer.End(StepCleanup, cleanupErr)
	return cleanupErr
}
