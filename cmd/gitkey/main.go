package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gitkey.dev/gitkey/internal/cli"
	"gitkey.dev/gitkey/internal/output"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd(version, commit, date)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, output.ErrorPrefix()+err.Error())
		stop()
		os.Exit(1)
	}
}
