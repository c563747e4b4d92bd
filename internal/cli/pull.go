package cli

import (
	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/actions"
	"gitkey.dev/gitkey/internal/cli/helpers"
	"gitkey.dev/gitkey/internal/runtime"
)

// newPullCmd creates the pull command
func newPullCmd() *cobra.Command {
	var (
		repoPath string
		force    bool
		noCommit bool
		extra    string
		creds    helpers.CredentialFlags
	)

	cmd := &cobra.Command{
		Use:          "pull",
		Short:        "Pull into a repository using a temporary key",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			extraArgs, err := helpers.SplitArgs(extra)
			if err != nil {
				return err
			}
			credentials, err := creds.Resolve()
			if err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				res, err := actions.PullAction(ctx, actions.PullOptions{
					RepoPath:    repoPath,
					Force:       force,
					NoCommit:    noCommit,
					ExtraArgs:   extraArgs,
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

	cmd.Flags().StringVar(&repoPath, helpers.FlagRepo, ".", "Path to the repository")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Pass -f to git pull")
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "Do not create a merge commit")
	cmd.Flags().StringVar(&extra, "args", "", "Extra arguments for git pull")
	creds.Register(cmd)

	return cmd
}
