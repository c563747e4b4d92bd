// Package testhelpers provides testing utilities for gitkey, including a
// scene system, Git repository helpers and throwaway SSH keys.
package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const textFileName = "test.txt"

// GitRepo represents a Git repository for testing purposes.
type GitRepo struct {
	Dir string
	// env isolates git from the developer's global configuration
	env []string
}

// NewGitRepo initializes a new Git repository in the specified directory using 'git init'.
// globalConfig is used as GIT_CONFIG_GLOBAL for every command run through the repo.
func NewGitRepo(dir, globalConfig string) (*GitRepo, error) {
	repo := &GitRepo{
		Dir: dir,
		env: append(os.Environ(), "GIT_CONFIG_GLOBAL="+globalConfig, "GIT_CONFIG_NOSYSTEM=1"),
	}

	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "-c", "core.autocrlf=false", "init", dir, "-b", "main")
	cmd.Env = repo.env
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %s: %w", output, err)
	}

	// Configure Git user (required for commits)
	if err := repo.RunGitCommand("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.RunGitCommand("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}

	return repo, nil
}

// RunGitCommand executes a git command in the repository directory.
func (r *GitRepo) RunGitCommand(args ...string) error {
	_, err := r.RunGitCommandAndGetOutput(args...)
	return err
}

// RunGitCommandAndGetOutput executes a git command and returns its trimmed output.
func (r *GitRepo) RunGitCommandAndGetOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = r.env
	output, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		return "", fmt.Errorf("git %s failed: %s: %w", strings.Join(args, " "), stderr, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CreateChange writes textValue to a file named after prefix.
func (r *GitRepo) CreateChange(textValue string, prefix string) error {
	name := textFileName
	if prefix != "" {
		name = prefix + "_" + textFileName
	}
	return os.WriteFile(filepath.Join(r.Dir, name), []byte(textValue), 0o644)
}

// CreateChangeAndCommit creates a file change, stages it and commits it.
func (r *GitRepo) CreateChangeAndCommit(textValue string, prefix string) error {
	if err := r.CreateChange(textValue, prefix); err != nil {
		return err
	}
	if err := r.RunGitCommand("add", "."); err != nil {
		return err
	}
	return r.RunGitCommand("commit", "-m", textValue)
}

// CreateBareRemote creates a bare repository next to the repo and adds it as
// a remote called name. It returns the bare repository path.
func (r *GitRepo) CreateBareRemote(name string) (string, error) {
	bareDir := r.Dir + "-" + name + ".git"

	cmd := exec.Command("git", "init", "--bare", bareDir)
	cmd.Env = r.env
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to create bare repo: %s: %w", output, err)
	}

	if err := r.RunGitCommand("remote", "add", name, bareDir); err != nil {
		return "", fmt.Errorf("failed to add remote: %w", err)
	}
	return bareDir, nil
}

// GetRevision returns the SHA a revision resolves to.
func (r *GitRepo) GetRevision(rev string) (string, error) {
	return r.RunGitCommandAndGetOutput("rev-parse", rev)
}

// RemoteRevision returns the SHA of ref in the bare repository at bareDir.
func (r *GitRepo) RemoteRevision(bareDir, ref string) (string, error) {
	cmd := exec.Command("git", "--git-dir", bareDir, "rev-parse", ref)
	cmd.Env = r.env
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse %s in %s failed: %w", ref, bareDir, err)
	}
	return strings.TrimSpace(string(output)), nil
}
