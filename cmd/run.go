package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/issuelens/issuelens/internal/analysis"
)

// NewCmdRun creates the run command.
func NewCmdRun(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <analysis>",
		Short: "Run an analysis over the issue corpus",
		Long: `Run an analysis over the repository's issues. Pages are served from
the local cache when available; anything missing is fetched first.

Available analyses: ` + strings.Join(analysis.Names(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: analysis.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(args[0], opts)
		},
	}

	addFetchFlags(cmd, opts)
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Analysis parameter (name=value, repeatable)")

	return cmd
}

func runAnalysis(name string, opts *Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, ld, err := buildLoader(opts)
	if err != nil {
		return err
	}

	a, err := analysis.New(name, cfg, ld)
	if err != nil {
		return err
	}

	return a.Run(ctx, os.Stdout)
}
