package cli

import (
	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/actions"
	"gitkey.dev/gitkey/internal/cli/helpers"
	"gitkey.dev/gitkey/internal/runtime"
)

// newPushCmd creates the push command
func newPushCmd() *cobra.Command {
	var (
		repoPath string
		remote   string
		branch   string
		extra    string
		creds    helpers.CredentialFlags
	)

	cmd := &cobra.Command{
		Use:          "push",
		Short:        "Push a repository using a temporary key",
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
				res, err := actions.PushAction(ctx, actions.PushOptions{
					RepoPath:    repoPath,
					Remote:      remote,
					Branch:      branch,
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
	cmd.Flags().StringVar(&remote, "remote", actions.DefaultRemote, "Remote to push to")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch or refspec to push")
	cmd.Flags().StringVar(&extra, "args", "", "Extra arguments for git push, e.g. \"--tags\"")
	_ = cmd.RegisterFlagCompletionFunc("remote", helpers.CompleteRemotes)
	creds.Register(cmd)

	return cmd
}
