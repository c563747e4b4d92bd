package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/cli/helpers"
	"gitkey.dev/gitkey/internal/config"
)

// newConfigCmd creates the config command
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get and set gitkey configuration",
		Long: `Get and set gitkey configuration values.

Examples:
  gitkey config get configScope
  gitkey config set configScope process
  gitkey config set sshOptions "-o StrictHostKeyChecking=accept-new"
  gitkey config set agentKeyLifetime 15m
  gitkey config list`,
	}

	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigListCmd())

	return cmd
}

// newConfigGetCmd creates the config get command
func newConfigGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "get <key>",
		Short:             "Get a configuration value",
		Args:              cobra.ExactArgs(1),
		SilenceUsage:      true,
		ValidArgsFunction: helpers.CompleteConfigKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	return cmd
}

// newConfigSetCmd creates the config set command
func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Set a configuration value; an empty value unsets it",
		Args:              cobra.ExactArgs(2),
		SilenceUsage:      true,
		ValidArgsFunction: helpers.CompleteConfigKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}
			key, value := args[0], args[1]
			if err := cfg.Set(key, value); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Set %s to: %s\n", key, value)
			return nil
		},
	}

	return cmd
}

// newConfigListCmd creates the config list command
func newConfigListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "Show the config file path and every value",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", cfg.Path())
			for _, key := range config.Keys() {
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s=%s\n", key, value)
			}
			return nil
		},
	}

	return cmd
}
