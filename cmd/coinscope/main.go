package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"CoinScope/internal/analyzer"
	"CoinScope/internal/api"
	"CoinScope/internal/cache"
	"CoinScope/internal/collector"
	"CoinScope/internal/config"
	"CoinScope/internal/dashboard"
	"CoinScope/internal/forecast"
	"CoinScope/internal/logging"
	"CoinScope/internal/model"
	"CoinScope/internal/news"
	"CoinScope/internal/notifier"
	"CoinScope/internal/retry"
	"CoinScope/internal/scheduler"
	"CoinScope/internal/store"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		zap.NewExample().Fatal("Load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		zap.NewExample().Fatal("Config validation", zap.Error(err))
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		zap.NewExample().Fatal("Init logger", zap.Error(err))
	}
	defer logger.Sync()
	logger.Info("CoinScope starting", zap.String("config", cfgPath))

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	policy := retry.Policy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		BaseDelay:       cfg.Retry.BaseDelay,
		RetryableStatus: cfg.Retry.RetryableStatus,
	}

	// Init cache
	var c cache.Cache
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisDB, cfg.Cache.TTL, logger)
		if err != nil {
			logger.Warn("Redis unavailable, using memory cache", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
			c = cache.NewMemoryCache(cfg.Cache.TTL)
		} else {
			c = rc
		}
	} else {
		c = cache.NewMemoryCache(cfg.Cache.TTL)
	}
	defer c.Close()

	// Init store
	st, err := store.New(cfg.Database, logger)
	if err != nil {
		logger.Warn("Init store failed, persistence disabled", zap.String("type", cfg.Database.Type), zap.Error(err))
		st = store.NewNoopStore()
	}
	defer st.Close()

	// Init components
	apiClient := collector.NewHTTPClient(cfg.Proxy, 30*time.Second)
	col := collector.New(cfg.Providers.CoinGecko, apiClient, policy, c, logger)
	logger.Info("Market data source", zap.String("source", col.SourceName()))

	predictor := forecast.NewAdapter(cfg, collector.NewHTTPClient(cfg.Proxy, cfg.Forecast.Timeout), policy, logger)
	analyst := analyzer.New(cfg, collector.NewHTTPClient(cfg.Proxy, cfg.AI.DownloadTimeout), logger)
	trends := news.New(cfg, apiClient, policy, logger)

	svc := dashboard.New(col, st, predictor, analyst, trends, options(cfg), logger)

	// Init HTTP server
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			cancel()
		}
	}()

	// Init Telegram notifier
	var sender scheduler.Sender
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BaseURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID,
		collector.NewHTTPClient(cfg.Proxy, 30*time.Second), policy, logger)
	if tn.Enabled() {
		sender = tn
	}

	// Init scheduler
	sched := scheduler.New(ctx, svc, sender, logger)
	if cfg.Schedule.Enabled {
		if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.TrendingCron); err != nil {
			logger.Fatal("Register cron tasks", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	}

	// Start Telegram polling
	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, refreshing now")
		go sched.RefreshNow()
	}

	logger.Info("CoinScope is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	logger.Info("Shutdown signal received, stopping...")
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", zap.Error(err))
	}
	logger.Info("CoinScope stopped")
}

// options converts the configured timeframes into service defaults. Config
// validation has already rejected unknown names.
func options(cfg *config.Config) dashboard.Options {
	opts := dashboard.Options{
		DefaultTokens: cfg.DefaultTokens,
		DefaultModel:  cfg.Forecast.DefaultModel,
		HorizonDays:   cfg.Forecast.HorizonDays,
	}
	for _, name := range cfg.Timeframes {
		if tf, err := model.ParseTimeframe(name); err == nil {
			opts.Timeframes = append(opts.Timeframes, tf)
		}
	}
	if tf, err := model.ParseTimeframe(cfg.DefaultTimeframe); err == nil {
		opts.DefaultTimeframe = tf
	}
	return opts
}
