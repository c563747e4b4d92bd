package cli

import (
	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/actions"
	"gitkey.dev/gitkey/internal/cli/helpers"
	"gitkey.dev/gitkey/internal/runtime"
)

type cloneFlags struct {
	branch    string
	overwrite bool
	args      string
}

func (f *cloneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.branch, "branch", "b", "", "Branch to check out")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "Empty the destination directory first")
	cmd.Flags().StringVar(&f.args, "args", "", "Extra arguments for git clone, e.g. \"--depth 1\"")
}

func (f *cloneFlags) options(args []string) (actions.CloneOptions, error) {
	extra, err := helpers.SplitArgs(f.args)
	if err != nil {
		return actions.CloneOptions{}, err
	}
	opts := actions.CloneOptions{
		URL:       args[0],
		Branch:    f.branch,
		Overwrite: f.overwrite,
		ExtraArgs: extra,
	}
	if len(args) > 1 {
		opts.Path = args[1]
	}
	return opts, nil
}

// newCloneCmd creates the clone command
func newCloneCmd() *cobra.Command {
	var (
		flags cloneFlags
		creds helpers.CredentialFlags
	)

	cmd := &cobra.Command{
		Use:   "clone <url> [path]",
		Short: "Clone a private repository",
		Long: `Clone a private repository.

SSH URLs are cloned with the key given by --ssh-key, --ssh-key-file or
$GITKEY_SSH_KEY. HTTPS URLs need --username and --password; the password is
prompted for on a terminal when only the username is given.`,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(args)
			if err != nil {
				return err
			}
			opts.Credentials, err = creds.Resolve()
			if err != nil {
				return err
			}
			if err := helpers.PromptPassword(&opts.Credentials, opts.URL); err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				res, err := actions.CloneAction(ctx, opts)
				if err != nil {
					return err
				}
				helpers.PrintResult(cmd, res)
				return nil
			})
		},
	}

	flags.register(cmd)
	creds.Register(cmd)

	return cmd
}

// newClonePublicCmd creates the clone-public command
func newClonePublicCmd() *cobra.Command {
	var flags cloneFlags

	cmd := &cobra.Command{
		Use:          "clone-public <url> [path]",
		Short:        "Clone a public repository over https without credentials",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(args)
			if err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				res, err := actions.ClonePublicAction(ctx, opts)
				if err != nil {
					return err
				}
				helpers.PrintResult(cmd, res)
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}
