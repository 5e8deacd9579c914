// Package main provides the entry point for the bulkblame CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bulkblame/cmd/bulkblame/commands"
	"github.com/Sumatoshi-tech/bulkblame/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bulkblame",
		Short: "Blame every file of a git repository in one pass",
		Long: `bulkblame computes line-level blame for many files simultaneously,
following renames, copies and merges in a single walk of the commit graph.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewBlameCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "bulkblame %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
