package helpers

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/config"
	"gitkey.dev/gitkey/internal/output"
	"gitkey.dev/gitkey/internal/runtime"
	"gitkey.dev/gitkey/internal/session"
)

// Flag names shared between commands
const (
	FlagConfig = "config"
	FlagQuiet  = "quiet"
	FlagDebug  = "debug"
	FlagRepo   = "repo"
)

// Run is a helper that provides a runtime context to a command's execution
// function. A context attached to the command with runtime.WithContext is
// used as is; otherwise one is built from the user configuration and the
// global flags, and torn down when fn returns.
func Run(cmd *cobra.Command, fn func(ctx *runtime.Context) error) error {
	if ctx, ok := runtime.GetContext(cmd.Context()); ok {
		return fn(ctx)
	}

	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	quiet, _ := cmd.Flags().GetBool(FlagQuiet)
	debug, _ := cmd.Flags().GetBool(FlagDebug)

	splog, err := output.NewSplogWithConfig(cfg.GetLogFile(), debug)
	if err != nil {
		return err
	}
	defer func() { _ = splog.Close() }()
	splog.SetQuiet(quiet)

	ctx, err := runtime.NewContextFromConfig(cmd.Context(), cfg, splog, runtime.Options{
		Interactive: output.IsTTY() && !quiet && !debug,
	})
	if err != nil {
		return err
	}
	defer ctx.Close()

	splog.Debug("Running %s", cmd.CommandPath())
	return fn(ctx)
}

// LoadConfig loads the file named by --config, or the default configuration
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(FlagConfig)
	if path == "" {
		return config.LoadDefault()
	}
	return config.Load(path)
}

// PrintResult writes the combined git output of an action to stdout
func PrintResult(cmd *cobra.Command, res *session.Result) {
	if res == nil {
		return
	}
	if out := strings.TrimRight(res.Output, "\n"); out != "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
}
