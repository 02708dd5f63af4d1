// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// Defaults used when a key is absent.
const (
	DefaultBaseURL         = "https://www.themealdb.com/api/json/v1/"
	DefaultAPITimeout      = 10 * time.Second
	DefaultCacheTTL        = 5 * time.Minute
	DefaultSearchDebounce  = 700 * time.Millisecond
	DefaultMinSearchChars  = 2
	DefaultStatusTimeout   = 2200 * time.Millisecond
	DefaultRefreshInterval = 1500 * time.Millisecond
	DefaultRandomCount     = 4
	MaxRandomCount         = 20
)

// APIConfig holds upstream settings
type APIConfig struct {
	BaseURL     string `yaml:"base_url"`
	Timeout     string `yaml:"timeout"`
	MinInterval string `yaml:"min_interval"`
}

// StorageConfig holds the durable store location
type StorageConfig struct {
	Path string `yaml:"path"`
}

// UIConfig holds user interface settings
type UIConfig struct {
	SearchDebounce  string `yaml:"search_debounce"`
	MinSearchChars  int    `yaml:"min_search_chars"`
	StatusTimeout   string `yaml:"status_timeout"`
	RefreshInterval string `yaml:"refresh_interval"`
	RandomCount     int    `yaml:"random_count"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	FileEnabled *bool  `yaml:"file_enabled"` // Log to a file during TUI sessions (default: true)
	Level       string `yaml:"level"`
}

// Config represents the application configuration
type Config struct {
	API          APIConfig     `yaml:"api"`
	CacheTTL     string        `yaml:"cache_ttl"`
	Storage      StorageConfig `yaml:"storage"`
	UI           UIConfig      `yaml:"ui"`
	Logging      LoggingConfig `yaml:"logging"`
	NoPrompt     bool          `yaml:"no_prompt"`
	OutputFormat string        `yaml:"output_format"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path: filepath.Join(GetDataDir(), "recipefinder.db"),
		},
		OutputFormat: "text",
	}
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it is created from the sample.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML and fills unset fields with defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}

	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "text"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(GetDataDir(), "recipefinder.db")
	} else {
		cfg.Storage.Path = ExpandPath(cfg.Storage.Path)
	}
	return cfg, nil
}

// save writes the embedded sample to path
func (c *Config) save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}

	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid api.base_url: %q (must be an http or https URL)", c.API.BaseURL)
		}
	}

	durations := []struct {
		key      string
		value    string
		positive bool
	}{
		{"api.timeout", c.API.Timeout, true},
		{"api.min_interval", c.API.MinInterval, false},
		{"cache_ttl", c.CacheTTL, true},
		{"ui.search_debounce", c.UI.SearchDebounce, false},
		{"ui.status_timeout", c.UI.StatusTimeout, true},
		{"ui.refresh_interval", c.UI.RefreshInterval, true},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", d.key, d.value)
		}
		if v < 0 || (d.positive && v == 0) {
			return fmt.Errorf("%s must be positive, got %q", d.key, d.value)
		}
	}

	if c.UI.MinSearchChars < 0 {
		return fmt.Errorf("ui.min_search_chars must not be negative, got %d", c.UI.MinSearchChars)
	}
	if c.UI.RandomCount < 0 || c.UI.RandomCount > MaxRandomCount {
		return fmt.Errorf("ui.random_count must be between 1 and %d, got %d", MaxRandomCount, c.UI.RandomCount)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q (must be debug, info, warn or error)", c.Logging.Level)
	}

	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(noPrompt bool, outputFormat string) {
	if noPrompt {
		c.NoPrompt = true
	}
	if outputFormat != "" {
		c.OutputFormat = outputFormat
	}
}

// parseDuration returns the parsed value or fallback when unset or invalid.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// GetBaseURL returns the API root, defaulting to TheMealDB.
func (c *Config) GetBaseURL() string {
	if c.API.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.API.BaseURL
}

// GetAPITimeout returns the per-request timeout (default 10s).
func (c *Config) GetAPITimeout() time.Duration {
	return parseDuration(c.API.Timeout, DefaultAPITimeout)
}

// GetMinInterval returns the request pacing interval (default: none).
func (c *Config) GetMinInterval() time.Duration {
	return parseDuration(c.API.MinInterval, 0)
}

// GetCacheTTL returns the cache TTL setting as a string.
// Returns "5m" (default) if not configured.
func (c *Config) GetCacheTTL() string {
	if c.CacheTTL == "" {
		return "5m"
	}
	return c.CacheTTL
}

// GetCacheTTLDuration returns the cache TTL as a time.Duration.
// Returns 5 minutes as default if not configured or if parsing fails.
func (c *Config) GetCacheTTLDuration() time.Duration {
	d := parseDuration(c.CacheTTL, DefaultCacheTTL)
	if d == 0 {
		return DefaultCacheTTL
	}
	return d
}

// GetDatabasePath returns the path to the SQLite database
func (c *Config) GetDatabasePath() string {
	if c.Storage.Path == "" {
		return filepath.Join(GetDataDir(), "recipefinder.db")
	}
	return c.Storage.Path
}

// GetSearchDebounce returns the typing quiet period.
func (c *Config) GetSearchDebounce() time.Duration {
	return parseDuration(c.UI.SearchDebounce, DefaultSearchDebounce)
}

// GetMinSearchChars returns the shortest query that triggers a search.
func (c *Config) GetMinSearchChars() int {
	if c.UI.MinSearchChars <= 0 {
		return DefaultMinSearchChars
	}
	return c.UI.MinSearchChars
}

// GetStatusTimeout returns how long status messages stay visible.
func (c *Config) GetStatusTimeout() time.Duration {
	d := parseDuration(c.UI.StatusTimeout, DefaultStatusTimeout)
	if d == 0 {
		return DefaultStatusTimeout
	}
	return d
}

// GetRefreshInterval returns the background refresh interval.
func (c *Config) GetRefreshInterval() time.Duration {
	d := parseDuration(c.UI.RefreshInterval, DefaultRefreshInterval)
	if d == 0 {
		return DefaultRefreshInterval
	}
	return d
}

// GetRandomCount returns how many recipes the random action fetches.
func (c *Config) GetRandomCount() int {
	if c.UI.RandomCount <= 0 || c.UI.RandomCount > MaxRandomCount {
		return DefaultRandomCount
	}
	return c.UI.RandomCount
}

// IsFileLoggingEnabled returns true if TUI sessions log to a file.
// Returns true (default) if not configured.
func (c *Config) IsFileLoggingEnabled() bool {
	if c.Logging.FileEnabled == nil {
		return true
	}
	return *c.Logging.FileEnabled
}

// GetLogLevel returns the configured level name, "info" when unset.
func (c *Config) GetLogLevel() string {
	if c.Logging.Level == "" {
		return "info"
	}
	return strings.ToLower(c.Logging.Level)
}

// GetLogPath returns the file TUI sessions log to.
func GetLogPath() string {
	return filepath.Join(GetCacheDir(), "recipefinder.log")
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "recipefinder")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "recipefinder")
	}
	return filepath.Join(home, fallbackPath, "recipefinder")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// GetCacheDir returns the cache directory following XDG spec
func GetCacheDir() string {
	return getXDGDir("XDG_CACHE_HOME", ".cache")
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
