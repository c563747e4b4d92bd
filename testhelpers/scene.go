package testhelpers

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Scene represents a test scene with a temporary directory, a Git repository
// and an isolated global git configuration.
type Scene struct {
	Dir  string
	Repo *GitRepo
	// Home is a throwaway HOME so nothing leaks into the real ~/.gitconfig
	Home string
	// GlobalConfig is the file git treats as the global configuration
	GlobalConfig string
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test scene. It skips the test when git is not
// installed. Cleanup is handled by t.TempDir().
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()
	RequireGit(t)

	root := t.TempDir()
	home := filepath.Join(root, "home")
	if err := os.MkdirAll(home, 0o700); err != nil {
		t.Fatalf("Failed to create home dir: %v", err)
	}
	globalConfig := filepath.Join(home, ".gitconfig")
	if err := os.WriteFile(globalConfig, nil, 0o600); err != nil {
		t.Fatalf("Failed to create global config: %v", err)
	}

	dir := filepath.Join(root, "repo")
	repo, err := NewGitRepo(dir, globalConfig)
	if err != nil {
		t.Fatalf("Failed to create Git repo: %v", err)
	}

	scene := &Scene{
		Dir:          dir,
		Repo:         repo,
		Home:         home,
		GlobalConfig: globalConfig,
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}
	return scene
}

// GlobalEnv returns environment overrides that make git read and write the
// scene's global configuration instead of the user's.
func (s *Scene) GlobalEnv() map[string]string {
	return map[string]string{
		"HOME":                s.Home,
		"XDG_CONFIG_HOME":     filepath.Join(s.Home, ".config"),
		"GIT_CONFIG_GLOBAL":   s.GlobalConfig,
		"GIT_CONFIG_NOSYSTEM": "1",
	}
}

// BasicSceneSetup is a setup function that creates a basic scene with a single commit.
func BasicSceneSetup(scene *Scene) error {
	return scene.Repo.CreateChangeAndCommit("1", "1")
}

// RequireGit skips the test when git is not on PATH.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found on PATH")
	}
}

// RequireSSHAgent skips the test when ssh-agent or ssh-add is missing.
func RequireSSHAgent(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ssh-agent", "ssh-add"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found on PATH", bin)
		}
	}
}
