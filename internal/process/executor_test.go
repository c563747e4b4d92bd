package process_test

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/process"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell tests require a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
}

func TestExecutorRun(t *testing.T) {
	t.Parallel()
	requireShell(t)

	t.Run("buffers and streams stdout", func(t *testing.T) {
		t.Parallel()
		var progress bytes.Buffer
		exe := process.NewExecutor(0, nil)

		cmd := process.ShellCommand("echo hello")
		cmd.Progress = &progress
		res, err := exe.Run(context.Background(), cmd)
		require.NoError(t, err)
		require.Equal(t, "hello\n", res.Stdout)
		require.Equal(t, "hello\n", res.Output())
		require.Equal(t, "hello\n", progress.String())
	})

	t.Run("stderr becomes the output when stdout is empty", func(t *testing.T) {
		t.Parallel()
		exe := process.NewExecutor(0, nil)

		res, err := exe.Run(context.Background(), process.ShellCommand("echo 'Cloning into repo...' >&2"))
		require.NoError(t, err)
		require.Empty(t, res.Stdout)
		require.Equal(t, "Cloning into repo...\n", res.Output())
	})

	t.Run("stdout wins over stderr", func(t *testing.T) {
		t.Parallel()
		exe := process.NewExecutor(0, nil)

		res, err := exe.Run(context.Background(), process.ShellCommand("echo out; echo err >&2"))
		require.NoError(t, err)
		require.Equal(t, "out\n", res.Output())
		require.Equal(t, "err\n", res.Stderr)
	})

	t.Run("non-zero exit returns a process error with output", func(t *testing.T) {
		t.Parallel()
		exe := process.NewExecutor(0, nil)

		res, err := exe.Run(context.Background(), process.ShellCommand("echo partial; echo 'fatal: nope' >&2; exit 3"))
		require.Error(t, err)
		require.ErrorIs(t, err, gkerrors.ErrProcess)
		require.NotNil(t, res)
		require.Equal(t, "partial\n", res.Stdout)

		var perr *gkerrors.ProcessError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, 3, perr.ExitCode)
		require.Contains(t, perr.Stderr, "fatal: nope")
	})

	t.Run("spawn failure returns a process error", func(t *testing.T) {
		t.Parallel()
		exe := process.NewExecutor(0, nil)

		_, err := exe.Run(context.Background(), process.Command{Name: "gitkey-definitely-not-a-binary"})
		var perr *gkerrors.ProcessError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, -1, perr.ExitCode)
	})

	t.Run("runs in the requested directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		exe := process.NewExecutor(0, nil)

		cmd := process.ShellCommand("pwd")
		cmd.Dir = dir
		res, err := exe.Run(context.Background(), cmd)
		require.NoError(t, err)
		require.Equal(t, filepath.Base(dir), filepath.Base(strings.TrimSpace(res.Stdout)))
	})

	t.Run("env overrides reach the child", func(t *testing.T) {
		t.Parallel()
		exe := process.NewExecutor(0, nil)

		cmd := process.ShellCommand(`printf '%s|%s' "$GITKEY_TEST_A" "${GITKEY_TEST_B-unset}"`)
		cmd.Env = map[string]string{"GITKEY_TEST_A": "a", "GITKEY_TEST_B": ""}
		res, err := exe.Run(context.Background(), cmd)
		require.NoError(t, err)
		require.Equal(t, "a|unset", res.Stdout)
	})

	t.Run("timeout kills the process", func(t *testing.T) {
		t.Parallel()
		exe := process.NewExecutor(100*time.Millisecond, nil)

		start := time.Now()
		_, err := exe.Run(context.Background(), process.ShellCommand("exec sleep 5"))
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Less(t, time.Since(start), 4*time.Second)
	})

	t.Run("cancelled context stops the process", func(t *testing.T) {
		t.Parallel()
		exe := process.NewExecutor(0, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := exe.Run(ctx, process.ShellCommand("exec sleep 5"))
		require.Error(t, err)
	})

	t.Run("cancellation returns while a grandchild holds the pipes", func(t *testing.T) {
		t.Parallel()
		var progress bytes.Buffer
		exe := process.NewExecutor(0, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		cmd := process.ShellCommand("sleep 5; echo done")
		cmd.Progress = &progress
		start := time.Now()
		res, err := exe.Run(ctx, cmd)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Less(t, time.Since(start), 3*time.Second)
		require.NotContains(t, res.Stdout, "done")
	})
}
