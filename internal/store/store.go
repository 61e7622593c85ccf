// Package store persists fetched series, analysis results and trending
// snapshots to a relational database.
package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"CoinScope/internal/config"
	"CoinScope/internal/model"
)

// DateLayout is the on-disk date format for every table.
const DateLayout = "2006-01-02 15:04:05"

// Analysis types stored in analysis_results.
const (
	AnalysisPrediction = "prediction"
	AnalysisWhitepaper = "whitepaper"
)

// Store persists data for later replay. Writes replace any existing row with
// the same key.
type Store interface {
	Save(ctx context.Context, market *model.MarketSeries, tokens map[string]*model.TokenSeries) error
	// Load returns everything stored between start and end inclusive. A zero
	// bound is open.
	Load(ctx context.Context, start, end time.Time) (*model.MarketSeries, map[string]*model.TokenSeries, error)
	SaveAnalysisResult(ctx context.Context, token, analysisType string, result any) error
	AnalysisResults(ctx context.Context, token, analysisType string, limit int) ([]model.StoredResult, error)
	SaveTrendingTopics(ctx context.Context, topics any) error
	TrendingTopics(ctx context.Context, limit int) ([]model.StoredResult, error)
	Close() error
}

// New returns the store selected by cfg.Type.
func New(cfg config.Database, logger *zap.Logger) (Store, error) {
	var (
		s   *SQLStore
		err error
	)
	switch cfg.Type {
	case "sqlite":
		s, err = NewSQLite(cfg.Path, logger)
	case "postgres":
		s, err = NewPostgres(cfg.DSN, logger)
	case "none", "":
		return NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
