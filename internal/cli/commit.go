package cli

import (
	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/actions"
	"gitkey.dev/gitkey/internal/cli/helpers"
	"gitkey.dev/gitkey/internal/runtime"
)

// newCommitCmd creates the commit command
func newCommitCmd() *cobra.Command {
	var (
		opts  actions.CommitOptions
		creds helpers.CredentialFlags
	)

	cmd := &cobra.Command{
		Use:   "commit -m <message> [paths...]",
		Short: "Stage and commit changes, optionally pushing them",
		Long: `Stage and commit changes, optionally pushing them.

Without paths every change in the working tree is staged.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Paths = args
			var err error
			opts.Credentials, err = creds.Resolve()
			if err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				res, err := actions.CommitAction(ctx, opts)
				if err != nil {
					return err
				}
				helpers.PrintResult(cmd, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.RepoPath, helpers.FlagRepo, ".", "Path to the repository")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "Commit message")
	cmd.Flags().StringVar(&opts.UserName, "user-name", "", "Set user.name in the repository first")
	cmd.Flags().StringVar(&opts.UserEmail, "user-email", "", "Set user.email in the repository first")
	cmd.Flags().BoolVar(&opts.Push, "push", false, "Push after committing")
	cmd.Flags().StringVar(&opts.Remote, "remote", actions.DefaultRemote, "Remote to push to")
	cmd.Flags().StringVarP(&opts.Branch, "branch", "b", "", "Branch or refspec to push")
	_ = cmd.MarkFlagRequired("message")
	_ = cmd.RegisterFlagCompletionFunc("remote", helpers.CompleteRemotes)
	creds.Register(cmd)

	return cmd
}
