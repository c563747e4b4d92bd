package doctor_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"gitkey.dev/gitkey/internal/actions/doctor"
	"gitkey.dev/gitkey/internal/credential"
	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/output"
	"gitkey.dev/gitkey/internal/process"
	"gitkey.dev/gitkey/internal/runtime"
	"gitkey.dev/gitkey/internal/session"
)

// fakeGit answers git --version and git config --global for core.sshCommand
type fakeGit struct {
	mu         sync.Mutex
	version    string
	sshCommand string
	calls      []string
}

func (f *fakeGit) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	line := strings.Join(cmd.Args, " ")
	f.calls = append(f.calls, line)

	switch line {
	case "--version":
		return &process.Result{Stdout: f.version}, nil
	case "config --global --get core.sshCommand":
		if f.sshCommand == "" {
			return &process.Result{}, gkerrors.NewProcessError("git", cmd.Args, "", "", 1, errors.New("exit status 1"))
		}
		return &process.Result{Stdout: f.sshCommand + "\n"}, nil
	case "config --global --unset core.sshCommand":
		f.sshCommand = ""
	}
	return &process.Result{}, nil
}

func findAll(string) (string, error) { return "/usr/bin/x", nil }

func newContext(runner process.Runner) (*runtime.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	splog := output.NewSplogWithWriter(&buf, false)
	return runtime.NewContext(context.Background(), splog, runner, session.NewGuard(session.Options{Splog: splog})), &buf
}

func TestDoctorHealthy(t *testing.T) {
	t.Parallel()

	git := &fakeGit{version: "git version 2.43.0\n"}
	ctx, log := newContext(git)

	err := doctor.Action(ctx, doctor.Options{KeyDir: t.TempDir(), LookPath: findAll})
	require.NoError(t, err)
	require.Contains(t, log.String(), "git 2.43.0")
	require.Contains(t, log.String(), "global core.sshCommand is not set")
	require.Contains(t, log.String(), "All checks passed")
}

func TestDoctorErrors(t *testing.T) {
	t.Parallel()

	git := &fakeGit{version: "git version 2.9.0\n"}
	ctx, log := newContext(git)

	err := doctor.Action(ctx, doctor.Options{
		KeyDir:   t.TempDir(),
		LookPath: func(string) (string, error) { return "", errors.New("not found") },
	})
	require.ErrorContains(t, err, "doctor found 2 error(s)")
	require.Contains(t, log.String(), "git 2.9.0 is too old")
	require.Contains(t, log.String(), "ssh is not installed")
}

func TestDoctorLeftovers(t *testing.T) {
	t.Parallel()

	keyDir := t.TempDir()
	m := credential.NewMaterializer(keyDir, nil)
	kept, err := m.Materialize(context.Background(), "retained key", true)
	require.NoError(t, err)
	stale := filepath.Join(t.TempDir(), "gone", "git-key-1.pem")

	t.Run("reported", func(t *testing.T) {
		git := &fakeGit{version: "git version 2.43.0\n", sshCommand: "ssh -o IdentitiesOnly=yes -i " + stale}
		ctx, log := newContext(git)

		require.NoError(t, doctor.Action(ctx, doctor.Options{KeyDir: keyDir, LookPath: findAll}))
		require.Contains(t, log.String(), "key file "+kept.Path+" is still on disk")
		require.Contains(t, log.String(), "points at missing key "+stale)
		require.Contains(t, log.String(), "Doctor found 2 warning(s)")
		require.FileExists(t, kept.Path)
		require.NotContains(t, git.calls, "config --global --unset core.sshCommand")
	})

	t.Run("fixed", func(t *testing.T) {
		git := &fakeGit{version: "git version 2.43.0\n", sshCommand: "ssh -i " + stale}
		ctx, _ := newContext(git)

		require.NoError(t, doctor.Action(ctx, doctor.Options{KeyDir: keyDir, LookPath: findAll, Fix: true}))
		require.NoFileExists(t, kept.Path)
		require.Contains(t, git.calls, "config --global --unset core.sshCommand")
		require.Empty(t, git.sshCommand)

		entries, err := os.ReadDir(keyDir)
		require.NoError(t, err)
		require.Empty(t, entries)
	})
}

func TestDoctorKeepsWorkingSSHCommand(t *testing.T) {
	t.Parallel()

	keyDir := t.TempDir()
	live := filepath.Join(keyDir, "deploy.pem")
	require.NoError(t, os.WriteFile(live, []byte("k"), 0o600))

	git := &fakeGit{version: "git version 2.43.0\n", sshCommand: "ssh -i " + live}
	ctx, log := newContext(git)

	require.NoError(t, doctor.Action(ctx, doctor.Options{KeyDir: keyDir, LookPath: findAll, Fix: true}))
	require.Contains(t, log.String(), "global core.sshCommand uses "+live)
	require.NotContains(t, git.calls, "config --global --unset core.sshCommand")
}
