package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/cli/helpers"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gitkey",
		Short: "Run git commands with a temporary SSH key",
		Long: `gitkey runs git commands authenticated with an SSH key passed on the
command line or in the environment.

The key is written to a private temporary file, git is pointed at it through
core.sshCommand (or GIT_SSH_COMMAND with configScope=process), the key is loaded
into ssh-agent, and everything is cleaned up again when the command finishes.
Use --save-creds to keep the key file on disk afterwards.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(helpers.FlagConfig, "", "Path to the config file (default $GITKEY_CONFIG or the user config directory)")
	rootCmd.PersistentFlags().BoolP(helpers.FlagQuiet, "q", false, "Only print command output and errors")
	rootCmd.PersistentFlags().Bool(helpers.FlagDebug, false, "Print debug logging")

	rootCmd.AddCommand(newCloneCmd())
	rootCmd.AddCommand(newClonePublicCmd())
	rootCmd.AddCommand(newPullCmd())
	rootCmd.AddCommand(newPushCmd())
	rootCmd.AddCommand(newTagCmd())
	rootCmd.AddCommand(newCommitCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	return rootCmd
}
