package actions_test

import (
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitkey.dev/gitkey/internal/actions"
	"gitkey.dev/gitkey/internal/gitconfig"
	"gitkey.dev/gitkey/internal/process"
	"gitkey.dev/gitkey/internal/session"
	"gitkey.dev/gitkey/testhelpers"
)

func realRunner(scene *testhelpers.Scene) process.Runner {
	return &envRunner{runner: process.NewExecutor(time.Minute, nil), env: scene.GlobalEnv()}
}

func TestCommitAndPushWithKey(t *testing.T) {
	t.Parallel()

	for _, mode := range []session.ConfigMode{session.ConfigGlobal, session.ConfigProcess} {
		mode := mode
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()
			scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
			bare, err := scene.Repo.CreateBareRemote("origin")
			require.NoError(t, err)

			runner := realRunner(scene)
			ctx := newTestContext(t, runner, mode, scene.GlobalEnv())
			require.NoError(t, scene.Repo.CreateChange("2", "2"))

			res, err := actions.CommitAction(ctx.Context, actions.CommitOptions{
				RepoPath:    scene.Dir,
				Message:     "second",
				Push:        true,
				Branch:      "main",
				Credentials: actions.Credentials{SSHKey: testhelpers.GenerateKey(t)},
			})
			require.NoError(t, err)
			require.Len(t, res.Steps, 3)

			head, err := scene.Repo.GetRevision("HEAD")
			require.NoError(t, err)
			remote, err := scene.Repo.RemoteRevision(bare, "refs/heads/main")
			require.NoError(t, err)
			require.Equal(t, head, remote)

			entries, err := os.ReadDir(ctx.keyDir)
			require.NoError(t, err)
			require.Empty(t, entries, "key file and its directory are gone")

			after, err := gitconfig.NewScope(runner, nil).Get(ctx.Context.Context, gitconfig.SSHCommandKey)
			require.NoError(t, err)
			require.False(t, after.Set, "global core.sshCommand is unset again")
		})
	}
}

func TestTagAndPushRetainingKey(t *testing.T) {
	t.Parallel()
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
	bare, err := scene.Repo.CreateBareRemote("origin")
	require.NoError(t, err)
	ctx := newTestContext(t, realRunner(scene), session.ConfigProcess, nil)

	_, err = actions.TagAction(ctx.Context, actions.TagOptions{
		RepoPath:    scene.Dir,
		Name:        "v1.0.0",
		Message:     "First release",
		Push:        true,
		Credentials: actions.Credentials{SSHKey: testhelpers.GenerateKey(t), SaveCreds: true},
	})
	require.NoError(t, err)

	head, err := scene.Repo.GetRevision("HEAD")
	require.NoError(t, err)
	tagged, err := scene.Repo.RemoteRevision(bare, "v1.0.0^{commit}")
	require.NoError(t, err)
	require.Equal(t, head, tagged)

	kind, err := scene.Repo.RunGitCommandAndGetOutput("cat-file", "-t", "v1.0.0")
	require.NoError(t, err)
	require.Equal(t, "tag", kind, "a message makes an annotated tag")

	keys, err := filepath.Glob(filepath.Join(ctx.keyDir, "gitkey-*", "git-key-*.pem"))
	require.NoError(t, err)
	require.Len(t, keys, 1, "retained key stays on disk")
}

func TestRunAction(t *testing.T) {
	t.Parallel()

	if goruntime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}

	t.Run("exports password and key path", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		ctx := newTestContext(t, realRunner(scene), session.ConfigProcess, nil)

		res, err := actions.RunAction(ctx.Context, actions.RunOptions{
			Dir:         scene.Dir,
			Command:     `printf '%s|%s' "$GITKEY_GIT_PASSWORD" "$GITKEY_GIT_SSH_KEY_PATH"`,
			Credentials: actions.Credentials{Password: "hunter2", SSHKey: testhelpers.GenerateKey(t)},
		})
		require.NoError(t, err)

		parts := strings.SplitN(res.Output, "|", 2)
		require.Equal(t, "hunter2", parts[0])
		require.True(t, strings.HasPrefix(parts[1], ctx.keyDir))
		require.NoFileExists(t, parts[1])
	})

	t.Run("falls back to the repository key", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, scene.Repo.RunGitCommand("config", "core.sshCommand", "ssh -i /keys/deploy.pem"))
		ctx := newTestContext(t, realRunner(scene), session.ConfigProcess, nil)

		res, err := actions.RunAction(ctx.Context, actions.RunOptions{
			Dir:     scene.Dir,
			Command: `printf '%s' "$GITKEY_GIT_SSH_KEY_PATH"`,
		})
		require.NoError(t, err)
		require.Equal(t, "/keys/deploy.pem", res.Output)
	})

	t.Run("surfaces command failures", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		ctx := newTestContext(t, realRunner(scene), session.ConfigProcess, nil)

		_, err := actions.RunAction(ctx.Context, actions.RunOptions{Dir: scene.Dir, Command: "echo broken >&2; exit 3"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "broken")
	})
}

func TestRunEnv(t *testing.T) {
	t.Parallel()

	require.Equal(t, map[string]string{"SSH_AUTH_SOCK": "/a"}, actions.RunEnv(map[string]string{"SSH_AUTH_SOCK": "/a"}, "", ""))
	require.Equal(t, map[string]string{
		actions.EnvGitPassword:   "pw",
		actions.EnvGitSSHKeyPath: "/k.pem",
	}, actions.RunEnv(nil, "pw", "/k.pem"))
}
