package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the raw page cache",
	}

	cmd.PersistentFlags().StringVar(&opts.CacheDir, "cache-dir", "", "Page cache directory")

	cmd.AddCommand(newCmdCacheClear(opts))
	cmd.AddCommand(newCmdCacheStats(opts))

	return cmd
}

// newCmdCacheClear creates the cache clear subcommand.
func newCmdCacheClear(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(opts)
		},
	}
}

// newCmdCacheStats creates the cache stats subcommand.
func newCmdCacheStats(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show page cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheStats(opts)
		},
	}
}

func runCacheClear(opts *Options) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Println("Cache cleared.")
	return nil
}

func runCacheStats(opts *Options) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}

	total, valid, err := store.Stats()
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	fmt.Println("Page cache statistics:")
	fmt.Printf("  Location: %s\n", store.Dir())
	fmt.Printf("  Pages:    %d\n", total)
	fmt.Printf("  Valid:    %d\n", valid)
	if total > valid {
		fmt.Printf("  Corrupt:  %d\n", total-valid)
	}
	return nil
}
