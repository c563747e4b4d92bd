// Package agent makes sure an ssh-agent holding the operation's key is
// reachable, and stops the agent again only when gitkey started it.
package agent

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gitkey.dev/gitkey/internal/credential"
)

// Environment variables advertising a running agent
const (
	EnvAuthSock = "SSH_AUTH_SOCK"
	EnvAgentPID = "SSH_AGENT_PID"
)

// Manager brings an agent up for an operation and tears it down afterwards
type Manager interface {
	// EnsureUp makes an agent reachable and registers the key with it. It
	// reports whether this call started the agent; that value must be passed
	// to TearDown even when an error is returned.
	EnsureUp(ctx context.Context, h *credential.Handle) (startedByUs bool, err error)
	// TearDown stops the agent if startedByUs is true and forgets its state
	TearDown(ctx context.Context, startedByUs bool) error
	// Env returns the variables commands need to reach an agent started by
	// this manager. It is empty when an inherited agent is used.
	Env() map[string]string
}

// Options configures a Manager
type Options struct {
	// KeyLifetime limits how long the agent keeps the key; zero means until
	// the agent exits
	KeyLifetime time.Duration
	// LookupEnv reads the inherited environment; os.LookupEnv when nil
	LookupEnv func(string) (string, bool)
}

func (o Options) lookupEnv(key string) (string, bool) {
	if o.LookupEnv != nil {
		return o.LookupEnv(key)
	}
	return os.LookupEnv(key)
}

// State is the endpoint of an agent started by a Manager
type State struct {
	AuthSock string
	PID      int
}

// Env returns the state as environment variables
func (s State) Env() map[string]string {
	if s.AuthSock == "" {
		return map[string]string{}
	}
	env := map[string]string{EnvAuthSock: s.AuthSock}
	if s.PID > 0 {
		env[EnvAgentPID] = strconv.Itoa(s.PID)
	}
	return env
}

var (
	sockRe = regexp.MustCompile(`SSH_AUTH_SOCK[= ]([^;\s]+)`)
	pidRe  = regexp.MustCompile(`SSH_AGENT_PID[= ](\d+)`)
)

// ParseAgentOutput reads the endpoint from the shell snippet printed by
// `ssh-agent -s` (or the csh flavour printed by `ssh-agent -c`).
func ParseAgentOutput(out string) (State, error) {
	sock := sockRe.FindStringSubmatch(out)
	if sock == nil {
		return State{}, fmt.Errorf("no %s in ssh-agent output %q", EnvAuthSock, out)
	}
	pid := pidRe.FindStringSubmatch(out)
	if pid == nil {
		return State{}, fmt.Errorf("no %s in ssh-agent output %q", EnvAgentPID, out)
	}
	n, err := strconv.Atoi(pid[1])
	if err != nil {
		return State{}, fmt.Errorf("invalid %s %q: %w", EnvAgentPID, pid[1], err)
	}
	return State{AuthSock: sock[1], PID: n}, nil
}
