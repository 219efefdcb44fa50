package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/issuelens/issuelens/internal/log"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "issuelens",
		Short: "GitHub issue corpus analyzer",
		Long: `A CLI tool that fetches a repository's issues and their timelines,
caches the raw pages, and runs analyses over the resulting corpus.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Initialize(opts.Verbosity, os.Stderr)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v, -vv)")

	// Register subcommands
	rootCmd.AddCommand(NewCmdRun(opts))
	rootCmd.AddCommand(NewCmdFetch(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdCache(opts))
	rootCmd.AddCommand(NewCmdRateLimit(opts))
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
