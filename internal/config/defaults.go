package config

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "dev",
		Server: ServerConfig{
			Port: 8501,
			Host: "localhost",
		},
		Provider: ProviderConfig{
			Source:        "yahoo",
			QueryURL:      "https://query1.finance.yahoo.com",
			TimeseriesURL: "https://query2.finance.yahoo.com",
			CookieURL:     "https://fc.yahoo.com",
			UserAgent:     defaultUserAgent,
			Timeout:       "15s",
		},
		Cache: CacheConfig{
			TTL:        "10m",
			MaxEntries: 200,
		},
		Format: FormatConfig{
			Locale:     "en-IN",
			Currency:   "INR",
			CellPolicy: "currency",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/stockdash",
			},
		},
		Dashboard: DashboardConfig{
			WatchlistFile: "",
			SessionTTL:    "24h",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			Outputs: []string{"console", "file"},
		},
	}
}
