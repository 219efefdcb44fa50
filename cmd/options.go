package cmd

import (
	"github.com/spf13/cobra"
)

// Options holds the shared command-line options for the issuelens CLI.
type Options struct {
	Repo         string
	Workers      int
	PerPage      int
	Verbosity    int
	ForceRefresh bool
	FailFast     bool
	CacheDir     string
	Params       []string // name=value analysis parameters
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithRepo sets the target repository ("owner/name").
func WithRepo(repo string) Option {
	return func(o *Options) {
		o.Repo = repo
	}
}

// WithWorkers sets the number of concurrent timeline fetches.
func WithWorkers(workers int) Option {
	return func(o *Options) {
		o.Workers = workers
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithForceRefresh bypasses cached pages.
func WithForceRefresh(force bool) Option {
	return func(o *Options) {
		o.ForceRefresh = force
	}
}

// WithFailFast aborts the run on the first per-issue failure.
func WithFailFast(failFast bool) Option {
	return func(o *Options) {
		o.FailFast = failFast
	}
}

// addFetchFlags registers the flags shared by commands that touch the API.
func addFetchFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Repo, "repo", "r", "", "Target repository (owner/name)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "Concurrent timeline fetches (default 10)")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", 0, "API page size (default 100)")
	cmd.Flags().BoolVar(&opts.ForceRefresh, "refresh", false, "Refetch pages even when cached")
	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "Abort on the first per-issue failure")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Page cache directory")
}
