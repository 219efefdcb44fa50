package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display current GitHub API rate limit status including remaining quota and reset time.`,
	}
	cmd.AddCommand(newCmdRateLimitStatus(opts))
	return cmd
}

// newCmdRateLimitStatus creates the ratelimit status subcommand.
func newCmdRateLimitStatus(opts *Options) *cobra.Command {
	c := &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRateLimitStatus(cmd, opts)
		},
	}
	c.Flags().StringVarP(&opts.Repo, "repo", "r", "", "Target repository (owner/name)")
	return c
}

func runRateLimitStatus(cmd *cobra.Command, opts *Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	limits, err := client.RateLimits(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get rate limits: %w", err)
	}

	fmt.Println("GitHub API Rate Limits:")
	fmt.Println()

	if limits.Core != nil {
		resetIn := time.Until(limits.Core.Reset.Time).Round(time.Second)
		if resetIn < 0 {
			resetIn = 0
		}
		fmt.Printf("Core API: %d/%d remaining (resets in %s)\n",
			limits.Core.Remaining, limits.Core.Limit, resetIn)
	}

	return nil
}
