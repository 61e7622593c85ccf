package collector

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"CoinScope/internal/cache"
	"CoinScope/internal/config"
	"CoinScope/internal/model"
	"CoinScope/internal/retry"
)

// Collector serves series from the live source when one is configured and
// substitutes synthetic data whenever the live fetch fails. Unknown tokens
// are reported, not papered over.
type Collector struct {
	live     Source
	fallback Source
	cache    cache.Cache
	logger   *zap.Logger
}

// NewCollector wires a collector from explicit sources. live may be nil, in
// which case every call is served by fallback.
func NewCollector(live, fallback Source, c cache.Cache, logger *zap.Logger) *Collector {
	return &Collector{live: live, fallback: fallback, cache: c, logger: logger}
}

// New picks the source by capability: CoinGecko when an API key is
// configured, synthetic data otherwise.
func New(provider config.Provider, httpClient *http.Client, policy retry.Policy, c cache.Cache, logger *zap.Logger) *Collector {
	fallback := NewSynthetic(time.Now().UnixNano())
	if !provider.HasKey() {
		logger.Info("No market data API key configured, serving synthetic data")
		return NewCollector(nil, fallback, c, logger)
	}
	client := NewClient("coingecko", provider, httpClient, policy, logger)
	return NewCollector(NewCoinGecko(client, logger), fallback, c, logger)
}

// SourceName reports which source answers requests.
func (c *Collector) SourceName() string {
	if c.live == nil {
		return c.fallback.Name()
	}
	return c.live.Name()
}

func (c *Collector) TokenSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.TokenSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if c.live == nil {
		return c.fallback.TokenSeries(ctx, symbol, tf)
	}

	key := cache.Key("token", c.live.Name(), symbol, string(tf))
	series, err := cache.Fetch(ctx, c.cache, key, func(ctx context.Context) (*model.TokenSeries, error) {
		return c.live.TokenSeries(ctx, symbol, tf)
	})
	if err == nil {
		return series, nil
	}
	if errors.Is(err, ErrTokenNotFound) {
		return nil, err
	}
	c.logger.Warn("Token fetch failed, using synthetic data",
		zap.String("symbol", symbol), zap.String("timeframe", string(tf)), zap.Error(err))
	return c.fallback.TokenSeries(ctx, symbol, tf)
}

func (c *Collector) MarketSeries(ctx context.Context, tf model.Timeframe) (*model.MarketSeries, error) {
	if c.live == nil {
		return c.fallback.MarketSeries(ctx, tf)
	}

	key := cache.Key("market", c.live.Name(), string(tf))
	series, err := cache.Fetch(ctx, c.cache, key, func(ctx context.Context) (*model.MarketSeries, error) {
		return c.live.MarketSeries(ctx, tf)
	})
	if err == nil {
		return series, nil
	}
	c.logger.Warn("Market fetch failed, using synthetic data", zap.String("timeframe", string(tf)), zap.Error(err))
	return c.fallback.MarketSeries(ctx, tf)
}

// TokenList never fails: the fixed list of common tickers stands in for the
// provider's list.
func (c *Collector) TokenList(ctx context.Context) []string {
	if c.live == nil {
		list, _ := c.fallback.TokenList(ctx)
		return list
	}
	list, err := cache.Fetch(ctx, c.cache, cache.Key("tokens", c.live.Name()), c.live.TokenList)
	if err != nil || len(list) == 0 {
		c.logger.Warn("Token list fetch failed, using fallback list", zap.Error(err))
		return append([]string(nil), FallbackSymbols...)
	}
	return list
}
