// Package process runs external commands for gitkey.
//
// Every git, ssh-agent, ssh-add and shred invocation goes through a Runner so
// that output is streamed for progress reporting, buffered for diagnostics and
// turned into a *errors.ProcessError on failure.
package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	gkerrors "gitkey.dev/gitkey/internal/errors"
)

// Command describes a single external process invocation
type Command struct {
	// Name is the executable to run, resolved through PATH
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory
	Dir string
	// Env is merged over the inherited environment, see MergeEnv
	Env map[string]string
	// Stdin is optional input for the process
	Stdin io.Reader
	// Progress receives stdout and stderr as they are produced.
	// When nil the executor's default writer is used.
	Progress io.Writer
	// Timeout applies a deadline when the context has none
	Timeout time.Duration
}

// Result holds the buffered output of a finished command
type Result struct {
	Stdout string
	Stderr string
}

// Output returns stdout, or stderr when the command wrote nothing to stdout.
// git reports progress and some successful outcomes only on stderr.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	if r.Stdout == "" && r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// Runner runs external commands
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// pipeGrace is how long output is still read after the context ends
const pipeGrace = 500 * time.Millisecond

// Executor is the os/exec backed Runner
type Executor struct {
	timeout  time.Duration
	progress io.Writer
}

var _ Runner = (*Executor)(nil)

// NewExecutor creates an Executor. timeout is applied to commands that have
// neither their own timeout nor a context deadline; zero disables it.
// progress receives streamed output for commands that don't set their own.
func NewExecutor(timeout time.Duration, progress io.Writer) *Executor {
	return &Executor{timeout: timeout, progress: progress}
}

// Run starts the command, streams its output and waits for it to exit.
// A spawn failure or non-zero exit returns a *errors.ProcessError together
// with whatever output was captured.
func (e *Executor) Run(ctx context.Context, c Command) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = e.timeout
	}
	if _, ok := ctx.Deadline(); !ok && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = MergeEnv(os.Environ(), c.Env)
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, gkerrors.NewProcessError(c.Name, c.Args, "", "", -1, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, gkerrors.NewProcessError(c.Name, c.Args, "", "", -1, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, gkerrors.NewProcessError(c.Name, c.Args, "", "", -1, err)
	}

	progress := c.Progress
	if progress == nil {
		progress = e.progress
	}
	sink := &syncWriter{w: progress}

	var eg errgroup.Group
	outBuf := pump(&eg, stdout, sink)
	errBuf := pump(&eg, stderr, sink)

	// A killed child's own children (ssh under git, anything under sh -c)
	// can hold the pipes open, so stop reading once the grace period passes.
	drained := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-drained:
			return
		}
		select {
		case <-time.After(pipeGrace):
			_ = stdout.Close()
			_ = stderr.Close()
		case <-drained:
		}
	}()

	// The pipes must be drained before Wait closes them.
	copyErr := eg.Wait()
	close(drained)
	waitErr := cmd.Wait()

	res := &Result{Stdout: outBuf.String(), Stderr: errBuf.String()}
	if waitErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			waitErr = ctxErr
		}
		return res, gkerrors.NewProcessError(c.Name, c.Args, res.Stdout, res.Stderr, exitCode, waitErr)
	}
	if copyErr != nil {
		return res, gkerrors.NewProcessError(c.Name, c.Args, res.Stdout, res.Stderr, 0, copyErr)
	}
	return res, nil
}

// pump copies r into a buffer and the progress sink until EOF
func pump(eg *errgroup.Group, r io.Reader, sink io.Writer) *bytes.Buffer {
	buf := bytes.NewBuffer(nil)
	eg.Go(func() error {
		_, err := io.Copy(io.MultiWriter(buf, sink), r)
		return err
	})
	return buf
}

// syncWriter serializes writes from the stdout and stderr pumps. Progress
// write failures are dropped so they never stall the child process.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	if s.w == nil {
		return len(p), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(p)
	return len(p), nil
}

// ShellCommand wraps a free-form command line so it runs through the
// platform shell.
func ShellCommand(line string) Command {
	if runtime.GOOS == "windows" {
		return Command{Name: "cmd", Args: []string{"/C", line}}
	}
	return Command{Name: "sh", Args: []string{"-c", line}}
}
