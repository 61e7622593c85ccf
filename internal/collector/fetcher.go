package collector

import (
	"context"

	"CoinScope/internal/model"
)

// Source defines the interface for fetching market history.
type Source interface {
	TokenSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.TokenSeries, error)
	MarketSeries(ctx context.Context, tf model.Timeframe) (*model.MarketSeries, error)
	TokenList(ctx context.Context) ([]string, error)
	Name() string
}
