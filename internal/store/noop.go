package store

import (
	"context"
	"time"

	"CoinScope/internal/model"
)

// NoopStore is used when no database is configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Save(_ context.Context, _ *model.MarketSeries, _ map[string]*model.TokenSeries) error {
	return nil
}

func (n *NoopStore) Load(_ context.Context, _, _ time.Time) (*model.MarketSeries, map[string]*model.TokenSeries, error) {
	return &model.MarketSeries{}, map[string]*model.TokenSeries{}, nil
}

func (n *NoopStore) SaveAnalysisResult(_ context.Context, _, _ string, _ any) error { return nil }

func (n *NoopStore) AnalysisResults(_ context.Context, _, _ string, _ int) ([]model.StoredResult, error) {
	return nil, nil
}

func (n *NoopStore) SaveTrendingTopics(_ context.Context, _ any) error { return nil }

func (n *NoopStore) TrendingTopics(_ context.Context, _ int) ([]model.StoredResult, error) {
	return nil, nil
}

func (n *NoopStore) Close() error { return nil }
