package cli

import (
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/actions"
	"gitkey.dev/gitkey/internal/cli/helpers"
	"gitkey.dev/gitkey/internal/runtime"
)

// newVersionCmd creates the version command
func newVersionCmd(version, commit, date string) *cobra.Command {
	var checkGit bool

	cmd := &cobra.Command{
		Use:          "version",
		Short:        "Print version information",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "gitkey %s (commit %s, built %s, %s/%s)\n",
				version, commit, date, goruntime.GOOS, goruntime.GOARCH)
			if !checkGit {
				return nil
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				if err := actions.VerifyGitVersion(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "git is %s or newer\n", actions.MinimumGitVersion)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&checkGit, "check-git", false, "Also check that the installed git is new enough")

	return cmd
}
