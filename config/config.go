package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Repo is the target repository as "owner/name".
	Repo string `yaml:"repo,omitempty"`

	// Fetch settings
	Workers    *int  `yaml:"workers,omitempty"`
	PerPage    *int  `yaml:"per_page,omitempty"`
	MaxRetries *int  `yaml:"max_retries,omitempty"`
	FailFast   *bool `yaml:"fail_fast,omitempty"`

	// CacheDir overrides the default page cache location.
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Parameters holds free-form analysis parameters looked up by name.
	Parameters map[string]any `yaml:"parameters,omitempty"`
}

// Fallbacks for unset fetch settings.
const (
	DefaultWorkers    = 10
	DefaultPerPage    = 100
	DefaultMaxRetries = 3
)

// Owner returns the owner half of Repo, or "" if unset or malformed.
func (c *Config) Owner() string {
	owner, _, _ := strings.Cut(c.Repo, "/")
	return owner
}

// Name returns the repository half of Repo, or "" if unset or malformed.
func (c *Config) Name() string {
	_, name, ok := strings.Cut(c.Repo, "/")
	if !ok {
		return ""
	}
	return name
}

// RepoID returns a filesystem-safe identifier for the repository,
// used in cache keys.
func (c *Config) RepoID() string {
	return strings.ReplaceAll(c.Repo, "/", "-")
}

// GetWorkers returns the timeline worker pool size.
func (c *Config) GetWorkers() int {
	if c.Workers != nil && *c.Workers > 0 {
		return *c.Workers
	}
	return DefaultWorkers
}

// GetPerPage returns the requested API page size.
func (c *Config) GetPerPage() int {
	if c.PerPage != nil && *c.PerPage > 0 {
		return *c.PerPage
	}
	return DefaultPerPage
}

// GetMaxRetries returns the transient-failure retry bound.
func (c *Config) GetMaxRetries() int {
	if c.MaxRetries != nil && *c.MaxRetries >= 0 {
		return *c.MaxRetries
	}
	return DefaultMaxRetries
}

// GetFailFast reports whether per-issue failures abort the run.
func (c *Config) GetFailFast() bool {
	return c.FailFast != nil && *c.FailFast
}

// Get returns the named analysis parameter, or def if it is not set.
func (c *Config) Get(name string, def any) any {
	if v, ok := c.Parameters[name]; ok {
		return v
	}
	return def
}

// GetString returns the named parameter as a string, or def.
func (c *Config) GetString(name, def string) string {
	switch v := c.Get(name, def).(type) {
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// GetInt returns the named parameter as an int, or def. YAML and
// command-line values may arrive as int, float, or numeric string.
func (c *Config) GetInt(name string, def int) int {
	switch v := c.Get(name, def).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Set stores a named analysis parameter, taking precedence over any
// file-provided value.
func (c *Config) Set(name string, value any) {
	if c.Parameters == nil {
		c.Parameters = map[string]any{}
	}
	c.Parameters[name] = value
}

// SetParams applies "name=value" pairs, as given on the command line.
// Malformed pairs are reported rather than silently dropped.
func (c *Config) SetParams(pairs []string) error {
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		c.Set(name, value)
	}
	return nil
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment
// variable. Following 12-factor app best practices, tokens are only read
// from the environment.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".issuelens"
	}
	return filepath.Join(configDir, "issuelens")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".issuelens.yaml"
}

// ConfigFileExists returns true if the config file exists on disk
func ConfigFileExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Load loads the configuration from disk.
// It first loads the global config from XDG config directory, then merges
// any local .issuelens.yaml config on top (local values take precedence).
func Load() (*Config, error) {
	cfg := &Config{}

	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}

		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}

		cfg = mergeConfig(cfg, &localCfg)
	}

	return cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{
		Repo:       global.Repo,
		Workers:    global.Workers,
		PerPage:    global.PerPage,
		MaxRetries: global.MaxRetries,
		FailFast:   global.FailFast,
		CacheDir:   global.CacheDir,
	}

	if local.Repo != "" {
		result.Repo = local.Repo
	}
	if local.Workers != nil {
		result.Workers = local.Workers
	}
	if local.PerPage != nil {
		result.PerPage = local.PerPage
	}
	if local.MaxRetries != nil {
		result.MaxRetries = local.MaxRetries
	}
	if local.FailFast != nil {
		result.FailFast = local.FailFast
	}
	if local.CacheDir != "" {
		result.CacheDir = local.CacheDir
	}

	// Parameters merge key-wise, local keys win.
	if len(global.Parameters) > 0 || len(local.Parameters) > 0 {
		result.Parameters = map[string]any{}
		for k, v := range global.Parameters {
			result.Parameters[k] = v
		}
		for k, v := range local.Parameters {
			result.Parameters[k] = v
		}
	}

	return result
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configDir := DefaultConfigDir()

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# issuelens configuration file

# Target repository
# repo: owner/name

# Concurrent timeline fetches
# workers: 10

# API page size
# per_page: 100

# Abort the run on the first per-issue failure instead of dropping
# fail_fast: false

# Free-form analysis parameters, also settable with --param name=value
# parameters:
#   top: 50
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
