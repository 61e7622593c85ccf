package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultTimeframe != "30d" {
		t.Errorf("DefaultTimeframe = %q, want 30d", cfg.DefaultTimeframe)
	}
	if len(cfg.DefaultTokens) != 10 {
		t.Errorf("len(DefaultTokens) = %d, want 10", len(cfg.DefaultTokens))
	}
	if cfg.Forecast.ARIMA != (ARIMAConfig{P: 5, D: 1, Q: 0}) {
		t.Errorf("ARIMA = %+v", cfg.Forecast.ARIMA)
	}
	if cfg.AI.WhitepaperMaxLength != 15000 {
		t.Errorf("WhitepaperMaxLength = %d", cfg.AI.WhitepaperMaxLength)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL)
	}
	if got := cfg.Providers.CoinGecko.Endpoint("coin_list", ""); got != "/coins/list" {
		t.Errorf("coin_list endpoint = %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
default_tokens: [BTC, ETH]
providers:
  coingecko:
    base_url: http://localhost:9999
    request_limit: 10
forecast:
  default_model: Prophet
  horizon_days: 14
cache:
  ttl: 90s
database:
  type: postgres
  dsn: postgres://u:p@localhost/db
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.DefaultTokens) != 2 {
		t.Errorf("DefaultTokens = %v", cfg.DefaultTokens)
	}
	if cfg.Providers.CoinGecko.BaseURL != "http://localhost:9999" || cfg.Providers.CoinGecko.RequestLimit != 10 {
		t.Errorf("coingecko = %+v", cfg.Providers.CoinGecko)
	}
	if cfg.Providers.CoinGecko.APIKeyHeader != "x-cg-pro-api-key" {
		t.Errorf("api key header default not applied")
	}
	if cfg.Forecast.DefaultModel != "Prophet" || cfg.Forecast.HorizonDays != 14 {
		t.Errorf("forecast = %+v", cfg.Forecast)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL)
	}
	if cfg.Database.Path != "" {
		t.Errorf("sqlite path should stay empty for postgres, got %q", cfg.Database.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("timeframes: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"COINGECKO_API_KEY": "cg-key",
		"OPENAI_API_KEY":    "sk-test",
		"DB_TYPE":           "postgres",
		"DB_DSN":            "postgres://x",
		"LOG_LEVEL":         "debug",
		"SCHEDULE_ENABLED":  "true",
		"CACHE_TTL":         "5m",
	}
	cfg := &Config{}
	cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	cfg.applyDefaults()

	if !cfg.Providers.CoinGecko.HasKey() || cfg.Providers.CoinGecko.APIKey != "cg-key" {
		t.Errorf("coingecko key = %q", cfg.Providers.CoinGecko.APIKey)
	}
	if cfg.Providers.NewsAPI.HasKey() {
		t.Error("newsapi should have no key")
	}
	if cfg.AI.APIKey != "sk-test" {
		t.Errorf("ai key = %q", cfg.AI.APIKey)
	}
	if cfg.Database.Type != "postgres" || cfg.Database.DSN != "postgres://x" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if !cfg.Schedule.Enabled {
		t.Error("schedule should be enabled")
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown model", func(c *Config) { c.Forecast.DefaultModel = "GARCH" }},
		{"zero horizon", func(c *Config) { c.Forecast.HorizonDays = -1 }},
		{"bad db type", func(c *Config) { c.Database.Type = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Type = "postgres"; c.Database.DSN = "" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }},
		{"telegram token only", func(c *Config) { c.Telegram.BotToken = "abc" }},
		{"bad retry status", func(c *Config) { c.Retry.RetryableStatus = []int{200} }},
		{"bad base url", func(c *Config) { c.Providers.CoinGecko.BaseURL = "not a url" }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
		{"no tokens", func(c *Config) { c.DefaultTokens = nil }},
		{"bad default timeframe", func(c *Config) { c.DefaultTimeframe = "fortnight" }},
		{"bad timeframe list", func(c *Config) { c.Timeframes = []string{"7d", "decade"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
