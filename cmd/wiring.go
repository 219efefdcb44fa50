package cmd

import (
	"fmt"

	"github.com/issuelens/issuelens/config"
	"github.com/issuelens/issuelens/internal/cache"
	"github.com/issuelens/issuelens/internal/github"
	"github.com/issuelens/issuelens/internal/loader"
)

// loadConfig merges the config files with command-line overrides.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if opts.Repo != "" {
		cfg.Repo = opts.Repo
	}
	if opts.Workers > 0 {
		cfg.Workers = &opts.Workers
	}
	if opts.PerPage > 0 {
		cfg.PerPage = &opts.PerPage
	}
	if opts.FailFast {
		cfg.FailFast = &opts.FailFast
	}
	if opts.CacheDir != "" {
		cfg.CacheDir = opts.CacheDir
	}
	if err := cfg.SetParams(opts.Params); err != nil {
		return nil, err
	}

	if cfg.Owner() == "" || cfg.Name() == "" {
		return nil, fmt.Errorf("no repository configured. Use --repo owner/name or set repo in the config file")
	}
	return cfg, nil
}

// newStore opens the page cache, honoring a configured directory override.
func newStore(cfg *config.Config) (*cache.Store, error) {
	if cfg.CacheDir != "" {
		return cache.NewStoreWithDir(cfg.CacheDir)
	}
	return cache.NewStore()
}

// openStore opens the cache without requiring a configured repository,
// for commands that only touch cached pages.
func openStore(opts *Options) (*cache.Store, error) {
	if opts.CacheDir != "" {
		return cache.NewStoreWithDir(opts.CacheDir)
	}
	if cfg, err := config.Load(); err == nil && cfg.CacheDir != "" {
		return cache.NewStoreWithDir(cfg.CacheDir)
	}
	return cache.NewStore()
}

// newClient creates the API client from the merged config.
func newClient(cfg *config.Config) (*github.Client, error) {
	return github.NewClient(cfg.GetGitHubToken(), cfg.Owner(), cfg.Name(),
		github.WithPerPage(cfg.GetPerPage()),
		github.WithMaxRetries(cfg.GetMaxRetries()),
	)
}

// buildLoader wires config, cache, client, and loader together.
func buildLoader(opts *Options) (*config.Config, *loader.Loader, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open page cache: %w", err)
	}

	client, err := newClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	ld := loader.New(client, store, cfg.RepoID(),
		loader.WithWorkers(cfg.GetWorkers()),
		loader.WithForceRefresh(opts.ForceRefresh),
		loader.WithFailFast(cfg.GetFailFast()),
	)
	return cfg, ld, nil
}
