package helpers

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/actions"
	gkerrors "gitkey.dev/gitkey/internal/errors"
	"gitkey.dev/gitkey/internal/output"
)

// Environment fallbacks for secrets that should stay out of shell history
const (
	EnvSSHKey   = "GITKEY_SSH_KEY"
	EnvPassword = "GITKEY_PASSWORD"
)

// CredentialFlags holds the authentication flags shared by commands that talk
// to a remote
type CredentialFlags struct {
	SSHKey     string
	SSHKeyFile string
	SaveCreds  bool
	Username   string
	Password   string
}

// Register adds the credential flags to cmd
func (f *CredentialFlags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.SSHKey, "ssh-key", "", "Private key contents (default $"+EnvSSHKey+")")
	cmd.Flags().StringVar(&f.SSHKeyFile, "ssh-key-file", "", "Read the private key from this file")
	cmd.Flags().BoolVar(&f.SaveCreds, "save-creds", false, "Keep the key file on disk after the command")
	cmd.Flags().StringVarP(&f.Username, "username", "u", "", "Username for https remotes")
	cmd.Flags().StringVar(&f.Password, "password", "", "Password or token for https remotes (default $"+EnvPassword+")")
	cmd.MarkFlagsMutuallyExclusive("ssh-key", "ssh-key-file")
	_ = cmd.MarkFlagFilename("ssh-key-file")
}

// Resolve returns the credentials with the key file and environment
// fallbacks applied
func (f *CredentialFlags) Resolve() (actions.Credentials, error) {
	return f.resolve(os.LookupEnv)
}

func (f *CredentialFlags) resolve(lookupEnv func(string) (string, bool)) (actions.Credentials, error) {
	creds := actions.Credentials{
		SSHKey:    f.SSHKey,
		SaveCreds: f.SaveCreds,
		Username:  f.Username,
		Password:  f.Password,
	}
	if f.SSHKeyFile != "" {
		data, err := os.ReadFile(f.SSHKeyFile)
		if err != nil {
			return creds, gkerrors.NewCredentialError("read key file", err)
		}
		creds.SSHKey = string(data)
	}
	if creds.SSHKey == "" {
		creds.SSHKey, _ = lookupEnv(EnvSSHKey)
	}
	if creds.Password == "" {
		creds.Password, _ = lookupEnv(EnvPassword)
	}
	return creds, nil
}

// PromptPassword asks for the password on a terminal when an https URL has a
// username but no password
func PromptPassword(creds *actions.Credentials, url string) error {
	if creds.Username == "" || creds.Password != "" || !actions.IsHTTPS(url) || !output.IsTTY() {
		return nil
	}
	prompt := &survey.Password{
		Message: fmt.Sprintf("Password for %s:", creds.Username),
	}
	if err := survey.AskOne(prompt, &creds.Password); err != nil {
		return fmt.Errorf("canceled")
	}
	return nil
}

// SplitArgs splits extra git arguments the way a POSIX shell would
func SplitArgs(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	args, err := shlex.Split(s)
	if err != nil {
		return nil, gkerrors.NewValidationError("args", err.Error())
	}
	return args, nil
}
