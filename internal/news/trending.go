package news

import (
	"context"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"CoinScope/internal/collector"
	"CoinScope/internal/config"
	"CoinScope/internal/model"
	"CoinScope/internal/retry"
)

// Service builds the trending view from the first provider that answers.
type Service struct {
	providers []Provider
	logger    *zap.Logger
	now       func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// New wires NewsAPI and CryptoPanic, in that order, for each provider that
// has credentials configured.
func New(cfg *config.Config, httpClient *http.Client, policy retry.Policy, logger *zap.Logger) *Service {
	var providers []Provider
	if p := cfg.Providers.NewsAPI; p.HasKey() {
		providers = append(providers, NewNewsAPI(collector.NewClient("newsapi", p, httpClient, policy, logger)))
	}
	if p := cfg.Providers.CryptoPanic; p.HasKey() {
		providers = append(providers, NewCryptoPanic(collector.NewClient("cryptopanic", p, httpClient, policy, logger)))
	}
	return NewService(providers, logger)
}

func NewService(providers []Provider, logger *zap.Logger) *Service {
	return &Service{
		providers: providers,
		logger:    logger,
		now:       time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Trending never fails: when no provider yields articles it returns
// canned data with Source "mock".
func (s *Service) Trending(ctx context.Context) model.TrendingData {
	for _, p := range s.providers {
		articles, err := p.Articles(ctx)
		if err != nil {
			s.logger.Warn("News provider failed", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		tokens := TrendingTokens(articles)
		s.mu.Lock()
		breakdown := Breakdown(tokens, s.rnd)
		s.mu.Unlock()

		s.logger.Info("Trending topics refreshed",
			zap.String("provider", p.Name()),
			zap.Int("articles", len(articles)),
			zap.Int("tokens", len(tokens)),
		)
		return model.TrendingData{
			Topics:             GroupTopics(articles),
			TrendingTokens:     tokens,
			SentimentBreakdown: breakdown,
			Source:             p.Name(),
			GeneratedAt:        s.now().UTC(),
		}
	}
	return mockTrending(s.now().UTC())
}
