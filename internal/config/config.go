package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/stockdash/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Provider    ProviderConfig  `toml:"provider"`
	Cache       CacheConfig     `toml:"cache"`
	Format      FormatConfig    `toml:"format"`
	Storage     StorageConfig   `toml:"storage"`
	Dashboard   DashboardConfig `toml:"dashboard"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// ProviderConfig contains market data source settings.
// Source "yahoo" uses the live endpoints; "memory" serves the bundled demo ticker.
type ProviderConfig struct {
	Source        string `toml:"source"`
	QueryURL      string `toml:"query_url"`
	TimeseriesURL string `toml:"timeseries_url"`
	CookieURL     string `toml:"cookie_url"`
	UserAgent     string `toml:"user_agent"`
	Timeout       string `toml:"timeout"`
}

// TimeoutDuration parses Timeout, falling back to 15s.
func (c ProviderConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 15*time.Second)
}

// CacheConfig contains HTTP response cache settings.
type CacheConfig struct {
	TTL        string `toml:"ttl"`
	MaxEntries int    `toml:"max_entries"`
}

// TTLDuration parses TTL, falling back to 10m.
func (c CacheConfig) TTLDuration() time.Duration {
	return parseDuration(c.TTL, 10*time.Minute)
}

// FormatConfig contains locale and statement cell settings.
type FormatConfig struct {
	Locale     string `toml:"locale"`
	Currency   string `toml:"currency"`
	CellPolicy string `toml:"cell_policy"`
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig contains BadgerDB-specific settings.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// DashboardConfig contains page-level settings.
type DashboardConfig struct {
	WatchlistFile string `toml:"watchlist_file"`
	SessionTTL    string `toml:"session_ttl"`
}

// SessionTTLDuration parses SessionTTL, falling back to 24h.
func (c DashboardConfig) SessionTTLDuration() time.Duration {
	return parseDuration(c.SessionTTL, 24*time.Hour)
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// ToCommon converts to the logger's configuration type.
func (c LoggingConfig) ToCommon() common.LoggingConfig {
	return common.LoggingConfig{
		Level:      c.Level,
		Outputs:    c.Outputs,
		FilePath:   c.FilePath,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
	}
}

// IsProduction reports whether the environment is "prod" or "production".
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "prod" || env == "production"
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies STOCKDASH_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKDASH_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("STOCKDASH_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("STOCKDASH_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if source := os.Getenv("STOCKDASH_PROVIDER_SOURCE"); source != "" {
		config.Provider.Source = source
	}
	if ua := os.Getenv("STOCKDASH_PROVIDER_USER_AGENT"); ua != "" {
		config.Provider.UserAgent = ua
	}
	if timeout := os.Getenv("STOCKDASH_PROVIDER_TIMEOUT"); timeout != "" {
		config.Provider.Timeout = timeout
	}
	if ttl := os.Getenv("STOCKDASH_CACHE_TTL"); ttl != "" {
		config.Cache.TTL = ttl
	}
	if locale := os.Getenv("STOCKDASH_LOCALE"); locale != "" {
		config.Format.Locale = locale
	}
	if currency := os.Getenv("STOCKDASH_CURRENCY"); currency != "" {
		config.Format.Currency = currency
	}
	if badgerPath := os.Getenv("STOCKDASH_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if wl := os.Getenv("STOCKDASH_WATCHLIST_FILE"); wl != "" {
		config.Dashboard.WatchlistFile = wl
	}
	if level := os.Getenv("STOCKDASH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("STOCKDASH_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate returns a list of human-readable problems with the configuration.
// An empty slice means the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	switch c.Provider.Source {
	case "yahoo", "memory":
	default:
		issues = append(issues, fmt.Sprintf("provider.source %q must be yahoo or memory", c.Provider.Source))
	}
	if c.Provider.QueryURL == "" {
		issues = append(issues, "provider.query_url is empty")
	}
	if c.Provider.TimeseriesURL == "" {
		issues = append(issues, "provider.timeseries_url is empty")
	}
	if _, err := time.ParseDuration(c.Provider.Timeout); err != nil {
		issues = append(issues, fmt.Sprintf("provider.timeout %q is not a duration", c.Provider.Timeout))
	}
	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		issues = append(issues, fmt.Sprintf("cache.ttl %q is not a duration", c.Cache.TTL))
	}
	if c.Cache.MaxEntries <= 0 {
		issues = append(issues, "cache.max_entries must be positive")
	}
	if c.Format.Currency == "" {
		issues = append(issues, "format.currency is empty")
	}
	switch c.Format.CellPolicy {
	case "currency", "number":
	default:
		issues = append(issues, fmt.Sprintf("format.cell_policy %q must be currency or number", c.Format.CellPolicy))
	}
	if c.Storage.Badger.Path == "" {
		issues = append(issues, "storage.badger.path is empty")
	}

	return issues
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
