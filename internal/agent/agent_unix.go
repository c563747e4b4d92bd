//go:build !windows

package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/crypto/ssh"
	sshagent "golang.org/x/crypto/ssh/agent"

	"gitkey.dev/gitkey/internal/credential"
	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/process"
)

const (
	dialTimeout   = 2 * time.Second
	socketRetries = 10
	// InheritedKeyLifetime bounds a key added to the user's own agent when
	// no agentKeyLifetime is configured.
	InheritedKeyLifetime = 10 * time.Minute
)

// sshAgent drives the OpenSSH ssh-agent binary. State describes the agent
// this manager started; an agent inherited through SSH_AUTH_SOCK is used but
// never recorded.
type sshAgent struct {
	runner process.Runner
	opts   Options

	mu    sync.Mutex
	state State
}

var _ Manager = (*sshAgent)(nil)

// New returns the ssh-agent backed Manager
func New(runner process.Runner, opts Options) Manager {
	return &sshAgent{runner: runner, opts: opts}
}

func (a *sshAgent) EnsureUp(ctx context.Context, h *credential.Handle) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	started := false
	sock := a.advertised()
	if sock == "" {
		st, err := a.start(ctx)
		if err != nil {
			return false, gkerrors.NewCredentialError("start ssh-agent", err)
		}
		a.state = st
		started = true
		sock = st.AuthSock
		if err := waitForSocket(ctx, sock); err != nil {
			return started, gkerrors.NewCredentialError("start ssh-agent", err)
		}
	}

	if h == nil {
		return started, nil
	}
	if err := a.register(ctx, sock, h, a.lifetimeSecs(!started)); err != nil {
		return started, gkerrors.NewCredentialError("register key with ssh-agent", err)
	}
	return started, nil
}

// advertised returns the socket of a reachable agent, preferring one this
// manager started over one inherited from the environment.
func (a *sshAgent) advertised() string {
	if a.state.AuthSock != "" && reachable(a.state.AuthSock) {
		return a.state.AuthSock
	}
	if sock, ok := a.opts.lookupEnv(EnvAuthSock); ok && sock != "" && reachable(sock) {
		return sock
	}
	return ""
}

func (a *sshAgent) start(ctx context.Context) (State, error) {
	res, err := a.runner.Run(ctx, process.Command{
		Name:     "ssh-agent",
		Args:     []string{"-s"},
		Progress: io.Discard,
	})
	if err != nil {
		return State{}, err
	}
	return ParseAgentOutput(res.Stdout)
}

func (a *sshAgent) register(ctx context.Context, sock string, h *credential.Handle, lifetime uint32) error {
	data, err := os.ReadFile(h.Path)
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}

	key, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		// Formats x/crypto can't parse (or encrypted keys) go through ssh-add.
		return a.sshAdd(ctx, sock, h.Path, lifetime)
	}

	conn, err := net.DialTimeout("unix", sock, dialTimeout)
	if err != nil {
		return fmt.Errorf("connect to agent at %s: %w", sock, err)
	}
	defer func() { _ = conn.Close() }()

	return sshagent.NewClient(conn).Add(sshagent.AddedKey{
		PrivateKey:   key,
		Comment:      filepath.Base(h.Path),
		LifetimeSecs: lifetime,
	})
}

func (a *sshAgent) sshAdd(ctx context.Context, sock, path string, lifetime uint32) error {
	args := []string{}
	if lifetime > 0 {
		args = append(args, "-t", strconv.FormatUint(uint64(lifetime), 10))
	}
	args = append(args, path)
	_, err := a.runner.Run(ctx, process.Command{
		Name:     "ssh-add",
		Args:     args,
		Env:      map[string]string{EnvAuthSock: sock},
		Progress: io.Discard,
	})
	return err
}

// lifetimeSecs is the configured key lifetime. Keys added to an inherited
// agent outlive this process, so they get InheritedKeyLifetime by default.
func (a *sshAgent) lifetimeSecs(inherited bool) uint32 {
	lifetime := a.opts.KeyLifetime
	if lifetime <= 0 && inherited {
		lifetime = InheritedKeyLifetime
	}
	if lifetime <= 0 {
		return 0
	}
	return uint32(lifetime / time.Second)
}

func (a *sshAgent) TearDown(ctx context.Context, startedByUs bool) error {
	if !startedByUs {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.state
	a.state = State{}
	if st.AuthSock == "" {
		return nil
	}

	_, err := a.runner.Run(ctx, process.Command{
		Name:     "ssh-agent",
		Args:     []string{"-k"},
		Env:      st.Env(),
		Progress: io.Discard,
	})
	if err != nil {
		return fmt.Errorf("stop ssh-agent (pid %d): %w", st.PID, err)
	}
	return nil
}

func (a *sshAgent) Env() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Env()
}

func reachable(sock string) bool {
	conn, err := net.DialTimeout("unix", sock, dialTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// waitForSocket polls until the freshly started agent accepts connections.
// ssh-agent forks before binding, so the socket may briefly be missing.
func waitForSocket(ctx context.Context, sock string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond

	return backoff.Retry(func() error {
		if reachable(sock) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		return errors.New("agent socket " + sock + " not ready")
	}, backoff.WithContext(backoff.WithMaxRetries(b, socketRetries), ctx))
}
