package cli

import (
	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/actions"
	"gitkey.dev/gitkey/internal/cli/helpers"
	"gitkey.dev/gitkey/internal/runtime"
)

// newTagCmd creates the tag command
func newTagCmd() *cobra.Command {
	var (
		opts  actions.TagOptions
		creds helpers.CredentialFlags
	)

	cmd := &cobra.Command{
		Use:   "tag <name>",
		Short: "Create a tag and optionally push it",
		Long: `Create a tag and optionally push it.

A tag with --message is annotated; without one it is lightweight. When the
push fails after the tag was created, the error lists the output of the tag
step so you know the tag exists locally.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Name = args[0]
			var err error
			opts.Credentials, err = creds.Resolve()
			if err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				res, err := actions.TagAction(ctx, opts)
				if err != nil {
					return err
				}
				helpers.PrintResult(cmd, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.RepoPath, helpers.FlagRepo, ".", "Path to the repository")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "Tag message; makes the tag annotated")
	cmd.Flags().StringVar(&opts.UserName, "user-name", "", "Set user.name in the repository first")
	cmd.Flags().StringVar(&opts.UserEmail, "user-email", "", "Set user.email in the repository first")
	cmd.Flags().BoolVar(&opts.Push, "push", false, "Push the tag after creating it")
	cmd.Flags().StringVar(&opts.Remote, "remote", actions.DefaultRemote, "Remote to push to")
	_ = cmd.RegisterFlagCompletionFunc("remote", helpers.CompleteRemotes)
	creds.Register(cmd)

	return cmd
}
