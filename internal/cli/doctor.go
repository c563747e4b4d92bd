package cli

import (
	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/actions/doctor"
	"gitkey.dev/gitkey/internal/cli/helpers"
	"gitkey.dev/gitkey/internal/runtime"
)

// newDoctorCmd creates the doctor command
func newDoctorCmd() *cobra.Command {
	var (
		fix      bool
		repoPath string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues with your gitkey setup",
		Long: `Run diagnostic checks on your gitkey environment.

The doctor command checks:
  - Environment: git version, ssh, ssh-agent, ssh-add and shred
  - Key files: the key directory works and no keys were left behind
  - Git configuration: core.sshCommand does not point at a deleted key

With --fix, leftover key files are destroyed and a stale global
core.sshCommand is unset.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return doctor.Action(ctx, doctor.Options{
					Fix:      fix,
					RepoPath: repoPath,
					KeyDir:   cfg.GetKeyDir(),
				})
			})
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Destroy leftover keys and unset a stale core.sshCommand")
	cmd.Flags().StringVar(&repoPath, helpers.FlagRepo, ".", "Repository to check")

	return cmd
}
