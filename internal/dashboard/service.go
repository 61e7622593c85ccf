// Package dashboard runs each user-facing action end to end: fetch,
// normalize, analyze and persist.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"CoinScope/internal/calculator"
	"CoinScope/internal/collector"
	"CoinScope/internal/forecast"
	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

// ErrInvalidInput marks a request the service refuses to run.
var ErrInvalidInput = errors.New("invalid input")

// MaxHorizon is the longest forecast the service will produce.
const MaxHorizon = 365

// MarketData supplies raw series.
type MarketData interface {
	TokenSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.TokenSeries, error)
	MarketSeries(ctx context.Context, tf model.Timeframe) (*model.MarketSeries, error)
	TokenList(ctx context.Context) []string
	SourceName() string
}

// Predictor forecasts prices with a named model.
type Predictor interface {
	Predict(ctx context.Context, series *model.TokenSeries, name string, horizon int) (*model.ForecastResult, error)
	Known(name string) bool
}

// Analyst grades whitepapers.
type Analyst interface {
	Analyze(ctx context.Context, project, url string) model.Analysis
}

// TrendSource builds the trending-topics view.
type TrendSource interface {
	Trending(ctx context.Context) model.TrendingData
}

// Options carries the defaults used when a request leaves a value out.
type Options struct {
	Timeframes       []model.Timeframe
	DefaultTimeframe model.Timeframe
	DefaultTokens    []string
	DefaultModel     string
	HorizonDays      int
}

// Service is the application core behind the HTTP API and the scheduler.
type Service struct {
	data      MarketData
	store     store.Store
	predictor Predictor
	analyst   Analyst
	trends    TrendSource
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
}

func New(data MarketData, st store.Store, predictor Predictor, analyst Analyst, trends TrendSource, opts Options, logger *zap.Logger) *Service {
	if st == nil {
		st = store.NewNoopStore()
	}
	if opts.DefaultTimeframe == "" {
		opts.DefaultTimeframe = model.Timeframe30d
	}
	if len(opts.Timeframes) == 0 {
		opts.Timeframes = model.Timeframes
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = model.ModelARIMA
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 30
	}
	return &Service{
		data:      data,
		store:     st,
		predictor: predictor,
		analyst:   analyst,
		trends:    trends,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// MarketView is the normalized market history with its statistics.
type MarketView struct {
	Timeframe model.Timeframe         `json:"timeframe"`
	Source    string                  `json:"source"`
	Series    *model.NormalizedSeries `json:"series"`
	Stats     model.Stats             `json:"stats"`
}

// TokenView is one token's normalized history with its statistics. Risk is
// nil when the series is too short.
type TokenView struct {
	Symbol    string                  `json:"symbol"`
	Timeframe model.Timeframe         `json:"timeframe"`
	Source    string                  `json:"source"`
	Series    *model.NormalizedSeries `json:"series"`
	Stats     model.Stats             `json:"stats"`
	Risk      *model.RiskMetrics      `json:"risk,omitempty"`
}

// Overview is the market plus a watch-list of tokens for one window.
type Overview struct {
	Timeframe   model.Timeframe                    `json:"timeframe"`
	Source      string                             `json:"source"`
	Market      *model.NormalizedSeries            `json:"market"`
	Tokens      map[string]*model.NormalizedSeries `json:"tokens"`
	Skipped     []string                           `json:"skipped,omitempty"`
	Correlation model.CorrelationMatrix            `json:"correlation"`
	GeneratedAt time.Time                          `json:"generated_at"`
}

// History is the raw data stored for a date range.
type History struct {
	Market *model.MarketSeries           `json:"market"`
	Tokens map[string]*model.TokenSeries `json:"tokens"`
}

func (s *Service) Timeframes() []model.Timeframe {
	return append([]model.Timeframe(nil), s.opts.Timeframes...)
}

func (s *Service) DefaultTimeframe() model.Timeframe { return s.opts.DefaultTimeframe }

func (s *Service) Tokens(ctx context.Context) []string {
	return s.data.TokenList(ctx)
}

func (s *Service) timeframe(tf model.Timeframe) model.Timeframe {
	if tf == "" {
		return s.opts.DefaultTimeframe
	}
	return tf
}

func (s *Service) Market(ctx context.Context, tf model.Timeframe) (*MarketView, error) {
	tf = s.timeframe(tf)
	raw, err := s.data.MarketSeries(ctx, tf)
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", tf, err)
	}
	series := calculator.NormalizeMarket(raw)
	return &MarketView{Timeframe: tf, Source: source(raw.Synthetic, s.data), Series: series, Stats: calculator.CalculateStats(series)}, nil
}

func (s *Service) tokenSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.TokenSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty token symbol", ErrInvalidInput)
	}
	raw, err := s.data.TokenSeries(ctx, symbol, tf)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", symbol, err)
	}
	return raw, nil
}

func (s *Service) Token(ctx context.Context, symbol string, tf model.Timeframe) (*TokenView, error) {
	tf = s.timeframe(tf)
	raw, err := s.tokenSeries(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}
	series := calculator.Normalize(raw.Symbol, raw.Points)
	series.Synthetic = raw.Synthetic
	view := &TokenView{
		Symbol:    raw.Symbol,
		Timeframe: tf,
		Source:    source(raw.Synthetic, s.data),
		Series:    series,
		Stats:     calculator.CalculateStats(series),
	}
	if risk, err := calculator.CalculateRiskMetrics(series); err == nil {
		view.Risk = &risk
	}
	return view, nil
}

func (s *Service) Stats(ctx context.Context, symbol string, tf model.Timeframe) (model.Stats, error) {
	view, err := s.Token(ctx, symbol, tf)
	if err != nil {
		return model.Stats{}, err
	}
	return view.Stats, nil
}

func (s *Service) Risk(ctx context.Context, symbol string, tf model.Timeframe) (model.RiskMetrics, error) {
	tf = s.timeframe(tf)
	raw, err := s.tokenSeries(ctx, symbol, tf)
	if err != nil {
		return model.RiskMetrics{}, err
	}
	return calculator.CalculateRiskMetrics(calculator.Normalize(raw.Symbol, raw.Points))
}

// Outliers returns the rows of column whose z-score exceeds threshold.
func (s *Service) Outliers(ctx context.Context, symbol string, tf model.Timeframe, column model.Column, threshold float64) ([]model.Outlier, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold must be positive", ErrInvalidInput)
	}
	raw, err := s.tokenSeries(ctx, symbol, s.timeframe(tf))
	if err != nil {
		return nil, err
	}
	return calculator.DetectOutliers(calculator.Normalize(raw.Symbol, raw.Points), column, threshold)
}

func (s *Service) Correlation(ctx context.Context, tokens []string, tf model.Timeframe) (model.CorrelationMatrix, error) {
	tf = s.timeframe(tf)
	if len(tokens) == 0 {
		tokens = s.opts.DefaultTokens
	}
	series := make(map[string]*model.TokenSeries, len(tokens))
	for _, tok := range tokens {
		raw, err := s.tokenSeries(ctx, tok, tf)
		if err != nil {
			return model.CorrelationMatrix{}, err
		}
		series[raw.Symbol] = raw
	}
	return calculator.CorrelationMatrix(series), nil
}

// Overview fetches the market and every token for tf, saves the raw series
// and returns them normalized. Unknown tokens are skipped and listed.
func (s *Service) Overview(ctx context.Context, tf model.Timeframe, tokens []string) (*Overview, error) {
	tf = s.timeframe(tf)
	if len(tokens) == 0 {
		tokens = s.opts.DefaultTokens
	}

	market, err := s.data.MarketSeries(ctx, tf)
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", tf, err)
	}

	raw := make(map[string]*model.TokenSeries, len(tokens))
	var skipped []string
	for _, tok := range tokens {
		series, err := s.tokenSeries(ctx, tok, tf)
		if errors.Is(err, collector.ErrTokenNotFound) || errors.Is(err, ErrInvalidInput) {
			s.logger.Warn("Skipping token", zap.String("token", tok), zap.Error(err))
			skipped = append(skipped, tok)
			continue
		}
		if err != nil {
			return nil, err
		}
		raw[series.Symbol] = series
	}

	if err := s.store.Save(ctx, market, raw); err != nil {
		s.logger.Error("Failed to save market data", zap.String("timeframe", string(tf)), zap.Error(err))
	}

	out := &Overview{
		Timeframe:   tf,
		Source:      source(market.Synthetic, s.data),
		Market:      calculator.NormalizeMarket(market),
		Tokens:      make(map[string]*model.NormalizedSeries, len(raw)),
		Skipped:     skipped,
		Correlation: calculator.CorrelationMatrix(raw),
		GeneratedAt: s.now().UTC(),
	}
	for sym, series := range raw {
		n := calculator.Normalize(sym, series.Points)
		n.Synthetic = series.Synthetic
		out.Tokens[sym] = n
	}
	return out, nil
}

// Refresh runs Overview for the default window and watch-list.
func (s *Service) Refresh(ctx context.Context) (*Overview, error) {
	return s.Overview(ctx, s.opts.DefaultTimeframe, s.opts.DefaultTokens)
}

// Forecast predicts symbol's price. An empty model or zero horizon selects
// the configured default. Only an unknown model, an unknown token or bad
// input fail; any model failure yields a fallback forecast instead.
func (s *Service) Forecast(ctx context.Context, symbol string, tf model.Timeframe, name string, horizon int) (*model.ForecastResult, error) {
	if name == "" {
		name = s.opts.DefaultModel
	}
	if !s.predictor.Known(name) {
		return nil, fmt.Errorf("%w: %q", forecast.ErrUnknownModel, name)
	}
	if horizon == 0 {
		horizon = s.opts.HorizonDays
	}
	if horizon < 1 || horizon > MaxHorizon {
		return nil, fmt.Errorf("%w: horizon must be between 1 and %d", ErrInvalidInput, MaxHorizon)
	}

	raw, err := s.tokenSeries(ctx, symbol, s.timeframe(tf))
	if err != nil {
		return nil, err
	}

	res, err := s.predictor.Predict(ctx, raw, name, horizon)
	if err != nil {
		s.logger.Warn("Forecast failed, using fallback",
			zap.String("token", raw.Symbol), zap.String("model", name), zap.Error(err))
		res = forecast.Fallback(raw, name, horizon, s.now())
	}

	if err := s.store.SaveAnalysisResult(ctx, raw.Symbol, store.AnalysisPrediction, res); err != nil {
		s.logger.Error("Failed to save forecast", zap.String("token", raw.Symbol), zap.Error(err))
	}
	return res, nil
}

// Analyze grades a project's whitepaper and stores the result.
func (s *Service) Analyze(ctx context.Context, project, url string) (model.Analysis, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return model.Analysis{}, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	res := s.analyst.Analyze(ctx, project, url)
	if err := s.store.SaveAnalysisResult(ctx, project, store.AnalysisWhitepaper, res); err != nil {
		s.logger.Error("Failed to save analysis", zap.String("project", project), zap.Error(err))
	}
	return res, nil
}

// AnalysisHistory returns stored results of analysisType for token, newest
// first.
func (s *Service) AnalysisHistory(ctx context.Context, token, analysisType string, limit int) ([]model.StoredResult, error) {
	switch analysisType {
	case store.AnalysisPrediction, store.AnalysisWhitepaper:
	default:
		return nil, fmt.Errorf("%w: unknown analysis type %q", ErrInvalidInput, analysisType)
	}
	return s.store.AnalysisResults(ctx, token, analysisType, limit)
}

func (s *Service) Trending(ctx context.Context) model.TrendingData {
	data := s.trends.Trending(ctx)
	if err := s.store.SaveTrendingTopics(ctx, data); err != nil {
		s.logger.Error("Failed to save trending topics", zap.Error(err))
	}
	return data
}

func (s *Service) TrendingHistory(ctx context.Context, limit int) ([]model.StoredResult, error) {
	return s.store.TrendingTopics(ctx, limit)
}

// History returns what the store holds between start and end inclusive.
func (s *Service) History(ctx context.Context, start, end time.Time) (*History, error) {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidInput)
	}
	market, tokens, err := s.store.Load(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return &History{Market: market, Tokens: tokens}, nil
}

func source(synthetic bool, data MarketData) string {
	if synthetic {
		return "synthetic"
	}
	return data.SourceName()
}
