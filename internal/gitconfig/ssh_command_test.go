package gitconfig_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"gitkey.dev/gitkey/internal/gitconfig"
	"gitkey.dev/gitkey/testhelpers"
)

func TestSSHCommand(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("path escaping differs on windows")
	}

	t.Run("default options", func(t *testing.T) {
		t.Parallel()
		require.Equal(t,
			"ssh -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null -i /tmp/gitkey-1/git-key-a.pem",
			gitconfig.SSHCommand("/tmp/gitkey-1/git-key-a.pem", nil))
	})

	t.Run("custom options", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "ssh -o IdentitiesOnly=yes -i /k.pem",
			gitconfig.SSHCommand("/k.pem", []string{"-o", "IdentitiesOnly=yes"}))
	})

	t.Run("round trips paths with spaces", func(t *testing.T) {
		t.Parallel()
		cmd := gitconfig.SSHCommand("/tmp/my keys/git-key.pem", nil)
		got, err := gitconfig.KeyPathFromSSHCommand(cmd)
		require.NoError(t, err)
		require.Equal(t, "/tmp/my keys/git-key.pem", got)
	})
}

func TestKeyPathFromSSHCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		command string
		want    string
		wantErr bool
	}{
		{name: "plain", command: "ssh -i /tmp/key.pem", want: "/tmp/key.pem"},
		{name: "escaped windows path", command: `ssh -o StrictHostKeyChecking=no -i C:\\Temp\\git-key.pem`, want: `C:\Temp\git-key.pem`},
		{name: "no identity", command: "ssh -o BatchMode=yes", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := gitconfig.KeyPathFromSSHCommand(tt.command)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestKeyPathFromRepo(t *testing.T) {
	t.Parallel()

	t.Run("reads the local core.sshCommand", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, scene.Repo.RunGitCommand("config", "core.sshCommand", "ssh -o StrictHostKeyChecking=no -i /keys/deploy.pem"))

		got, err := gitconfig.KeyPathFromRepo(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, "/keys/deploy.pem", got)
	})

	t.Run("fails when no ssh command is configured", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		_, err := gitconfig.KeyPathFromRepo(scene.Dir)
		require.Error(t, err)
	})

	t.Run("fails outside a repository", func(t *testing.T) {
		t.Parallel()
		_, err := gitconfig.KeyPathFromRepo(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		require.False(t, gitconfig.IsRepository(t.TempDir()))
	})

	t.Run("detects repositories", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		require.True(t, gitconfig.IsRepository(scene.Dir))
	})
}
