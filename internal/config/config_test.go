package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Port != 8501 {
		t.Errorf("expected default port 8501, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
	if cfg.Storage.Badger.Path != "./data/stockdash" {
		t.Errorf("expected default badger path ./data/stockdash, got %s", cfg.Storage.Badger.Path)
	}
	if cfg.Format.Locale != "en-IN" {
		t.Errorf("expected default locale en-IN, got %s", cfg.Format.Locale)
	}
	if cfg.Format.Currency != "INR" {
		t.Errorf("expected default currency INR, got %s", cfg.Format.Currency)
	}
	if cfg.Format.CellPolicy != "currency" {
		t.Errorf("expected default cell policy currency, got %s", cfg.Format.CellPolicy)
	}
	if cfg.Provider.TimeoutDuration() != 15*time.Second {
		t.Errorf("expected default provider timeout 15s, got %s", cfg.Provider.TimeoutDuration())
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestNewDefaultConfig_Validates(t *testing.T) {
	if issues := NewDefaultConfig().Validate(); len(issues) != 0 {
		t.Errorf("expected default config to validate, got %v", issues)
	}
}

func TestLoadFromFiles_NoFiles(t *testing.T) {
	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles with no files should not error: %v", err)
	}
	if cfg.Server.Port != 8501 {
		t.Errorf("expected default port 8501, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFiles_ValidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "test.toml")

	content := `
[server]
port = 9090
host = "0.0.0.0"

[provider]
timeout = "5s"

[cache]
ttl = "1m"
max_entries = 50

[format]
locale = "en-US"
currency = "USD"
cell_policy = "number"

[storage.badger]
path = "/tmp/test-db"

[dashboard]
watchlist_file = "watchlist.yaml"

[logging]
level = "debug"
outputs = ["console"]
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Provider.TimeoutDuration() != 5*time.Second {
		t.Errorf("expected timeout 5s, got %s", cfg.Provider.TimeoutDuration())
	}
	if cfg.Cache.TTLDuration() != time.Minute {
		t.Errorf("expected cache ttl 1m, got %s", cfg.Cache.TTLDuration())
	}
	if cfg.Cache.MaxEntries != 50 {
		t.Errorf("expected max entries 50, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.Format.Currency != "USD" || cfg.Format.Locale != "en-US" || cfg.Format.CellPolicy != "number" {
		t.Errorf("unexpected format section: %+v", cfg.Format)
	}
	if cfg.Storage.Badger.Path != "/tmp/test-db" {
		t.Errorf("expected badger path /tmp/test-db, got %s", cfg.Storage.Badger.Path)
	}
	if cfg.Dashboard.WatchlistFile != "watchlist.yaml" {
		t.Errorf("expected watchlist file watchlist.yaml, got %s", cfg.Dashboard.WatchlistFile)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if len(cfg.Logging.Outputs) != 1 || cfg.Logging.Outputs[0] != "console" {
		t.Errorf("expected outputs [console], got %v", cfg.Logging.Outputs)
	}
}

func TestLoadFromFiles_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "partial.toml")

	content := `
[server]
port = 3000
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("expected port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
	if cfg.Format.Currency != "INR" {
		t.Errorf("expected default currency INR, got %s", cfg.Format.Currency)
	}
}

func TestLoadFromFiles_MultipleFiles(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	baseContent := `
[server]
port = 3000
host = "base-host"
`
	if err := os.WriteFile(base, []byte(baseContent), 0644); err != nil {
		t.Fatal(err)
	}

	override := filepath.Join(dir, "override.toml")
	overrideContent := `
[server]
port = 4000
`
	if err := os.WriteFile(override, []byte(overrideContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(base, override)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("expected port 4000 from override, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "base-host" {
		t.Errorf("expected host base-host from base file, got %s", cfg.Server.Host)
	}
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/path.toml")
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadFromFiles_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "invalid.toml")

	if err := os.WriteFile(tomlPath, []byte("this is not valid {{toml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromFiles(tomlPath)
	if err == nil {
		t.Error("expected error for invalid TOML, got nil")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Setenv("STOCKDASH_SERVER_PORT", "9999")
	t.Setenv("STOCKDASH_SERVER_HOST", "env-host")
	t.Setenv("STOCKDASH_BADGER_PATH", "/env/path")
	t.Setenv("STOCKDASH_LOG_LEVEL", "error")
	t.Setenv("STOCKDASH_CURRENCY", "USD")
	t.Setenv("STOCKDASH_LOCALE", "en-US")
	t.Setenv("STOCKDASH_PROVIDER_TIMEOUT", "3s")
	t.Setenv("STOCKDASH_WATCHLIST_FILE", "/etc/wl.yaml")

	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9999 {
		t.Errorf("expected env port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "env-host" {
		t.Errorf("expected env host env-host, got %s", cfg.Server.Host)
	}
	if cfg.Storage.Badger.Path != "/env/path" {
		t.Errorf("expected env badger path /env/path, got %s", cfg.Storage.Badger.Path)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected env log level error, got %s", cfg.Logging.Level)
	}
	if cfg.Format.Currency != "USD" || cfg.Format.Locale != "en-US" {
		t.Errorf("expected env format USD/en-US, got %+v", cfg.Format)
	}
	if cfg.Provider.TimeoutDuration() != 3*time.Second {
		t.Errorf("expected env timeout 3s, got %s", cfg.Provider.TimeoutDuration())
	}
	if cfg.Dashboard.WatchlistFile != "/etc/wl.yaml" {
		t.Errorf("expected env watchlist /etc/wl.yaml, got %s", cfg.Dashboard.WatchlistFile)
	}
}

func TestApplyEnvOverrides_InvalidPort(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Setenv("STOCKDASH_SERVER_PORT", "not-a-number")

	applyEnvOverrides(cfg)

	if cfg.Server.Port != 8501 {
		t.Errorf("expected default port 8501 for invalid env, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFiles_EnvOverridesToml(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "env.toml")

	content := `
[format]
currency = "EUR"
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOCKDASH_CURRENCY", "USD")

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if cfg.Format.Currency != "USD" {
		t.Errorf("expected env override USD, got %s", cfg.Format.Currency)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 7777, "flag-host")

	if cfg.Server.Port != 7777 {
		t.Errorf("expected flag port 7777, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "flag-host" {
		t.Errorf("expected flag host flag-host, got %s", cfg.Server.Host)
	}
}

func TestApplyFlagOverrides_ZeroPortNoOverride(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 0, "")

	if cfg.Server.Port != 8501 {
		t.Errorf("expected default port 8501, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad timeout", func(c *Config) { c.Provider.Timeout = "soon" }},
		{"bad ttl", func(c *Config) { c.Cache.TTL = "" }},
		{"zero max entries", func(c *Config) { c.Cache.MaxEntries = 0 }},
		{"empty currency", func(c *Config) { c.Format.Currency = "" }},
		{"unknown cell policy", func(c *Config) { c.Format.CellPolicy = "percent" }},
		{"empty badger path", func(c *Config) { c.Storage.Badger.Path = "" }},
		{"empty query url", func(c *Config) { c.Provider.QueryURL = "" }},
		{"unknown source", func(c *Config) { c.Provider.Source = "bloomberg" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if issues := cfg.Validate(); len(issues) != 1 {
				t.Errorf("expected exactly 1 issue, got %v", issues)
			}
		})
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Provider.Timeout = "garbage"
	cfg.Cache.TTL = "-1s"
	cfg.Dashboard.SessionTTL = ""

	if cfg.Provider.TimeoutDuration() != 15*time.Second {
		t.Errorf("expected fallback timeout 15s, got %s", cfg.Provider.TimeoutDuration())
	}
	if cfg.Cache.TTLDuration() != 10*time.Minute {
		t.Errorf("expected fallback ttl 10m, got %s", cfg.Cache.TTLDuration())
	}
	if cfg.Dashboard.SessionTTLDuration() != 24*time.Hour {
		t.Errorf("expected fallback session ttl 24h, got %s", cfg.Dashboard.SessionTTLDuration())
	}
}

func TestIsProduction(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.IsProduction() {
		t.Error("expected dev environment by default")
	}
	cfg.Environment = " Production "
	if !cfg.IsProduction() {
		t.Error("expected Production to count as production")
	}
}

func TestLoggingConfig_ToCommon(t *testing.T) {
	lc := LoggingConfig{Level: "warn", Outputs: []string{"file"}, FilePath: "x.log", MaxSizeMB: 2, MaxBackups: 3}
	c := lc.ToCommon()
	if c.Level != "warn" || c.FilePath != "x.log" || c.MaxSizeMB != 2 || c.MaxBackups != 3 || len(c.Outputs) != 1 {
		t.Errorf("unexpected conversion: %+v", c)
	}
}
