// Package helpers provides shared helper functions for CLI commands.
package helpers

import (
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"

	"gitkey.dev/gitkey/internal/config"
)

// CompleteRemotes is a helper for RegisterFlagCompletionFunc that returns the
// remotes of the repository named by the --repo flag.
func CompleteRemotes(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	repoPath, _ := cmd.Flags().GetString(FlagRepo)
	if repoPath == "" {
		repoPath = "."
	}
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names := make([]string, 0, len(remotes))
	for _, r := range remotes {
		names = append(names, r.Config().Name)
	}
	sort.Strings(names)
	return names, cobra.ShellCompDirectiveNoFileComp
}

// CompleteConfigKeys completes the first argument of config get and set
func CompleteConfigKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return config.Keys(), cobra.ShellCompDirectiveNoFileComp
}
