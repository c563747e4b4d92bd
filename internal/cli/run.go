package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/actions"
	"gitkey.dev/gitkey/internal/cli/helpers"
	"gitkey.dev/gitkey/internal/runtime"
)

// newRunCmd creates the run command
func newRunCmd() *cobra.Command {
	var (
		dir   string
		creds helpers.CredentialFlags
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command...>",
		Short: "Run a shell command with a temporary key",
		Long: `Run a shell command with a temporary key.

The command sees the key file path in $` + actions.EnvGitSSHKeyPath + ` and the
password in $` + actions.EnvGitPassword + `. Without a key, the key path configured
in the repository's core.sshCommand is exported instead.

Example:
  gitkey run --ssh-key-file deploy.pem -- git submodule update --init`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			credentials, err := creds.Resolve()
			if err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				res, err := actions.RunAction(ctx, actions.RunOptions{
					Dir:         dir,
					Command:     strings.Join(args, " "),
					Credentials: credentials,
				})
				if err != nil {
					return err
				}
				helpers.PrintResult(cmd, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "C", "", "Directory to run the command in")
	creds.Register(cmd)

	return cmd
}
