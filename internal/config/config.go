package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"CoinScope/internal/model"
)

// Provider describes one external REST provider.
type Provider struct {
	BaseURL       string            `yaml:"base_url" validate:"required,url"`
	Endpoints     map[string]string `yaml:"endpoints"`
	APIKey        string            `yaml:"api_key"`
	APIKeyHeader  string            `yaml:"api_key_header"`
	APIKeyParam   string            `yaml:"api_key_param"`
	RequestLimit  int               `yaml:"request_limit" validate:"gte=0"` // per RequestWindow, 0 = unlimited
	RequestWindow time.Duration     `yaml:"request_window"`
}

// Endpoint returns the configured path for name, or fallback when unset.
func (p Provider) Endpoint(name, fallback string) string {
	if v, ok := p.Endpoints[name]; ok && v != "" {
		return v
	}
	return fallback
}

// HasKey reports whether credentials are configured for the provider.
func (p Provider) HasKey() bool { return p.APIKey != "" }

type ARIMAConfig struct {
	P int `yaml:"p" validate:"gte=0,lte=10"`
	D int `yaml:"d" validate:"gte=0,lte=2"`
	Q int `yaml:"q" validate:"gte=0,lte=10"`
}

type LSTMConfig struct {
	Units      int     `yaml:"units" validate:"gt=0"`
	Layers     int     `yaml:"layers" validate:"gt=0"`
	Dropout    float64 `yaml:"dropout" validate:"gte=0,lt=1"`
	Epochs     int     `yaml:"epochs" validate:"gt=0"`
	BatchSize  int     `yaml:"batch_size" validate:"gt=0"`
	WindowSize int     `yaml:"window_size" validate:"gt=0"`
}

type ProphetConfig struct {
	ChangepointPriorScale float64 `yaml:"changepoint_prior_scale" validate:"gt=0"`
	SeasonalityMode       string  `yaml:"seasonality_mode" validate:"oneof=additive multiplicative"`
	YearlySeasonality     bool    `yaml:"yearly_seasonality"`
	WeeklySeasonality     bool    `yaml:"weekly_seasonality"`
	DailySeasonality      bool    `yaml:"daily_seasonality"`
}

// Database selects the persistence backend.
type Database struct {
	Type string `yaml:"type" validate:"oneof=sqlite postgres none"`
	Path string `yaml:"path"`
	DSN  string `yaml:"dsn"`
}

// Config holds all application configuration. It is built once at startup
// and handed to each component constructor.
type Config struct {
	Timeframes       []string `yaml:"timeframes"`
	DefaultTimeframe string   `yaml:"default_timeframe"`
	DefaultTokens    []string `yaml:"default_tokens" validate:"min=1,dive,required"`

	Providers struct {
		CoinGecko   Provider `yaml:"coingecko"`
		NewsAPI     Provider `yaml:"newsapi"`
		CryptoPanic Provider `yaml:"cryptopanic"`
	} `yaml:"providers"`

	Retry struct {
		MaxAttempts     int           `yaml:"max_attempts" validate:"gte=1"`
		BaseDelay       time.Duration `yaml:"base_delay"`
		RetryableStatus []int         `yaml:"retryable_status"`
	} `yaml:"retry"`

	Forecast struct {
		DefaultModel   string        `yaml:"default_model" validate:"oneof=ARIMA LSTM Prophet"`
		HorizonDays    int           `yaml:"horizon_days" validate:"gte=1,lte=365"`
		ModelServerURL string        `yaml:"model_server_url" validate:"omitempty,url"`
		Timeout        time.Duration `yaml:"timeout"`
		ARIMA          ARIMAConfig   `yaml:"arima"`
		LSTM           LSTMConfig    `yaml:"lstm"`
		Prophet        ProphetConfig `yaml:"prophet"`
	} `yaml:"forecast"`

	AI struct {
		APIKey              string        `yaml:"api_key"`
		BaseURL             string        `yaml:"base_url" validate:"omitempty,url"`
		Model               string        `yaml:"model"`
		Temperature         float32       `yaml:"temperature" validate:"gte=0,lte=2"`
		MaxTokens           int           `yaml:"max_tokens" validate:"gt=0"`
		WhitepaperMaxLength int           `yaml:"whitepaper_max_length" validate:"gt=0"`
		DownloadTimeout     time.Duration `yaml:"download_timeout"`
	} `yaml:"ai"`

	Database Database `yaml:"database"`

	Cache struct {
		TTL       time.Duration `yaml:"ttl"`
		RedisAddr string        `yaml:"redis_addr"`
		RedisDB   int           `yaml:"redis_db"`
	} `yaml:"cache"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Schedule struct {
		Enabled      bool   `yaml:"enabled"`
		RefreshCron  string `yaml:"refresh_cron"`
		TrendingCron string `yaml:"trending_cron"`
	} `yaml:"schedule"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"telegram"`

	Log struct {
		Level string `yaml:"level" validate:"oneof=debug info warn error"`
	} `yaml:"log"`

	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a configuration with every default applied and no file or
// environment input.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("COINGECKO_API_KEY", &c.Providers.CoinGecko.APIKey)
	str("NEWS_API_KEY", &c.Providers.NewsAPI.APIKey)
	str("CRYPTO_PANIC_API_KEY", &c.Providers.CryptoPanic.APIKey)
	str("OPENAI_API_KEY", &c.AI.APIKey)
	str("OPENAI_BASE_URL", &c.AI.BaseURL)
	str("MODEL_SERVER_URL", &c.Forecast.ModelServerURL)
	str("DB_TYPE", &c.Database.Type)
	str("DB_PATH", &c.Database.Path)
	str("DB_DSN", &c.Database.DSN)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("HTTP_ADDR", &c.Server.Addr)
	str("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	str("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	str("HTTPS_PROXY", &c.Proxy)
	str("LOG_LEVEL", &c.Log.Level)
	str("CRON_REFRESH", &c.Schedule.RefreshCron)

	if v, ok := lookup("SCHEDULE_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Schedule.Enabled = b
		}
	}
	if v, ok := lookup("CACHE_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
}

func (c *Config) applyDefaults() {
	if len(c.Timeframes) == 0 {
		c.Timeframes = []string{"24h", "7d", "30d", "90d", "1y", "All Time"}
	}
	if c.DefaultTimeframe == "" {
		c.DefaultTimeframe = "30d"
	}
	if len(c.DefaultTokens) == 0 {
		c.DefaultTokens = []string{"BTC", "ETH", "BNB", "XRP", "ADA", "SOL", "DOT", "DOGE", "AVAX", "LINK"}
	}

	cg := &c.Providers.CoinGecko
	if cg.BaseURL == "" {
		cg.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cg.APIKeyHeader == "" {
		cg.APIKeyHeader = "x-cg-pro-api-key"
	}
	if cg.Endpoints == nil {
		cg.Endpoints = map[string]string{
			"market_data":            "/global",
			"historical_market_data": "/global/history",
			"coin_list":              "/coins/list",
			"coin_data":              "/coins/{id}",
			"historical_coin_data":   "/coins/{id}/market_chart/range",
		}
	}
	if cg.RequestLimit == 0 {
		cg.RequestLimit = 50
	}
	if cg.RequestWindow == 0 {
		cg.RequestWindow = time.Minute
	}

	na := &c.Providers.NewsAPI
	if na.BaseURL == "" {
		na.BaseURL = "https://newsapi.org/v2"
	}
	if na.APIKeyParam == "" {
		na.APIKeyParam = "apiKey"
	}
	if na.RequestLimit == 0 {
		na.RequestLimit = 100
	}
	if na.RequestWindow == 0 {
		na.RequestWindow = 24 * time.Hour
	}
	if na.Endpoints == nil {
		na.Endpoints = map[string]string{"everything": "/everything", "top_headlines": "/top-headlines"}
	}

	cp := &c.Providers.CryptoPanic
	if cp.BaseURL == "" {
		cp.BaseURL = "https://cryptopanic.com/api/v1"
	}
	if cp.APIKeyParam == "" {
		cp.APIKeyParam = "auth_token"
	}
	if cp.RequestLimit == 0 {
		cp.RequestLimit = 60
	}
	if cp.RequestWindow == 0 {
		cp.RequestWindow = time.Hour
	}
	if cp.Endpoints == nil {
		cp.Endpoints = map[string]string{"posts": "/posts/"}
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = 500 * time.Millisecond
	}
	if len(c.Retry.RetryableStatus) == 0 {
		c.Retry.RetryableStatus = []int{429}
	}

	f := &c.Forecast
	if f.DefaultModel == "" {
		f.DefaultModel = "ARIMA"
	}
	if f.HorizonDays == 0 {
		f.HorizonDays = 30
	}
	if f.Timeout == 0 {
		f.Timeout = 2 * time.Minute
	}
	if f.ARIMA == (ARIMAConfig{}) {
		f.ARIMA = ARIMAConfig{P: 5, D: 1, Q: 0}
	}
	if f.LSTM == (LSTMConfig{}) {
		f.LSTM = LSTMConfig{Units: 50, Layers: 2, Dropout: 0.2, Epochs: 50, BatchSize: 32, WindowSize: 14}
	}
	if f.Prophet == (ProphetConfig{}) {
		f.Prophet = ProphetConfig{
			ChangepointPriorScale: 0.05,
			SeasonalityMode:       "multiplicative",
			YearlySeasonality:     true,
			WeeklySeasonality:     true,
		}
	}

	if c.AI.Model == "" {
		c.AI.Model = "gpt-3.5-turbo"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.2
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 1000
	}
	if c.AI.WhitepaperMaxLength == 0 {
		c.AI.WhitepaperMaxLength = 15000
	}
	if c.AI.DownloadTimeout == 0 {
		c.AI.DownloadTimeout = 30 * time.Second
	}

	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "data/crypto_data.db"
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 0 * * * *"
	}
	if c.Schedule.TrendingCron == "" {
		c.Schedule.TrendingCron = "0 30 */6 * * *"
	}
	if c.Telegram.BaseURL == "" {
		c.Telegram.BaseURL = "https://api.telegram.org"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks field constraints and the cross-field rules the tags cannot
// express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	for _, tf := range append([]string{c.DefaultTimeframe}, c.Timeframes...) {
		if _, err := model.ParseTimeframe(tf); err != nil {
			return fmt.Errorf("timeframes: %w", err)
		}
	}
	for _, code := range c.Retry.RetryableStatus {
		if code < 400 || code > 599 {
			return fmt.Errorf("retry.retryable_status: %d is not an HTTP error status", code)
		}
	}
	return nil
}
