package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/issuelens/issuelens/internal/log"
)

// NewCmdFetch creates the fetch command.
func NewCmdFetch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the issue corpus and warm the page cache",
		Long: `Fetch every issue and timeline page for the configured repository and
store the raw pages in the local cache. Later runs serve from the cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts)
		},
	}

	addFetchFlags(cmd, opts)

	return cmd
}

func runFetch(opts *Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, ld, err := buildLoader(opts)
	if err != nil {
		return err
	}

	log.Progress("Fetching issues for %s...", cfg.Repo)
	issues, err := ld.Issues(ctx)
	log.ProgressDone()
	if err != nil {
		return err
	}

	report := ld.LastReport()
	fmt.Printf("Fetched %s issues from %s.\n", color.GreenString("%d", len(issues)), cfg.Repo)
	fmt.Printf("  pages fetched: %d\n", report.PagesFetched)
	fmt.Printf("  cache hits:    %d\n", report.CacheHits)
	if report.Dropped > 0 {
		fmt.Printf("  dropped:       %s (see warnings above)\n", color.YellowString("%d", report.Dropped))
	}
	return nil
}
