package gitconfig

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// DefaultSSHOptions disable host key prompts so non-interactive runs never
// block on an unknown host.
var DefaultSSHOptions = []string{
	"-o", "StrictHostKeyChecking=no",
	"-o", "UserKnownHostsFile=/dev/null",
}

var identityRe = regexp.MustCompile(`-i ([^\n\r]+)`)

// SSHCommand builds the ssh invocation git should use for keyPath. The
// identity flag always comes last so KeyPathFromSSHCommand can find it.
func SSHCommand(keyPath string, options []string) string {
	if options == nil {
		options = DefaultSSHOptions
	}
	parts := append([]string{"ssh"}, options...)
	return strings.Join(append(parts, "-i", escapeKeyPath(keyPath)), " ")
}

func escapeKeyPath(p string) string {
	if runtime.GOOS == "windows" {
		p = strings.ReplaceAll(p, `\`, `\\`)
	}
	if strings.ContainsAny(p, " \t") {
		p = `"` + p + `"`
	}
	return p
}

// KeyPathFromSSHCommand extracts the identity file from an ssh command
// produced by SSHCommand.
func KeyPathFromSSHCommand(sshCommand string) (string, error) {
	m := identityRe.FindStringSubmatch(sshCommand)
	if m == nil {
		return "", fmt.Errorf("no identity file in ssh command %q", sshCommand)
	}
	p := strings.TrimSpace(m[1])
	if len(p) >= 2 && strings.HasPrefix(p, `"`) && strings.HasSuffix(p, `"`) {
		p = p[1 : len(p)-1]
	}
	p = strings.ReplaceAll(p, `\\`, `\`)
	if p == "" {
		return "", fmt.Errorf("empty identity file in ssh command %q", sshCommand)
	}
	return p, nil
}

// KeyPathFromRepo returns the key file a repository was configured with
// through its local core.sshCommand.
func KeyPathFromRepo(repoPath string) (string, error) {
	if repoPath == "" {
		return "", fmt.Errorf("repository path must be provided")
	}
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open repository %s: %w", repoPath, err)
	}
	cfg, err := repo.Config()
	if err != nil {
		return "", fmt.Errorf("failed to read config of %s: %w", repoPath, err)
	}
	sshCommand := cfg.Raw.Section("core").Option("sshCommand")
	if sshCommand == "" {
		return "", fmt.Errorf("core.sshCommand is not set in %s", repoPath)
	}
	return KeyPathFromSSHCommand(sshCommand)
}

// IsRepository reports whether path is inside a git work tree
func IsRepository(path string) bool {
	_, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}
