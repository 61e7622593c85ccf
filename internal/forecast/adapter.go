// Package forecast predicts future token prices with one of a fixed set of
// models and normalizes every model's output to the same shape.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"CoinScope/internal/config"
	"CoinScope/internal/model"
	"CoinScope/internal/retry"
)

var (
	ErrUnknownModel      = errors.New("unknown forecast model")
	ErrModelUnavailable  = errors.New("forecast model unavailable")
	ErrInsufficientData  = errors.New("not enough price history to forecast")
	errShortModelOutput  = errors.New("model returned fewer points than requested")
	errInvalidModelValue = errors.New("model returned a non-finite value")
)

// Observation is one dated price handed to a model.
type Observation struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Raw is the unprocessed output of a model. Upper and Lower may be nil when
// the model produces no interval.
type Raw struct {
	Predicted []float64
	Upper     []float64
	Lower     []float64
	Accuracy  null.Float
}

// Forecaster produces horizon predictions following history.
type Forecaster interface {
	Forecast(ctx context.Context, history []Observation, horizon int) (Raw, error)
}

// Adapter dispatches to a named model and post-processes its output.
type Adapter struct {
	models map[string]Forecaster
	logger *zap.Logger
}

// NewAdapter wires ARIMA natively and LSTM/Prophet through the model server
// configured in cfg.
func NewAdapter(cfg *config.Config, httpClient *http.Client, policy retry.Policy, logger *zap.Logger) *Adapter {
	fc := cfg.Forecast
	if fc.ARIMA.Q > 0 {
		logger.Warn("ARIMA moving-average order is not estimated, fitting AR terms only", zap.Int("q", fc.ARIMA.Q))
	}
	remote := NewRemote(fc.ModelServerURL, httpClient, policy, logger)
	return NewAdapterWith(map[string]Forecaster{
		model.ModelARIMA:   ARIMA{P: fc.ARIMA.P, D: fc.ARIMA.D},
		model.ModelLSTM:    remote.Model(model.ModelLSTM, lstmParams(fc.LSTM)),
		model.ModelProphet: remote.Model(model.ModelProphet, prophetParams(fc.Prophet)),
	}, logger)
}

// NewAdapterWith builds an adapter over an explicit model set.
func NewAdapterWith(models map[string]Forecaster, logger *zap.Logger) *Adapter {
	return &Adapter{models: models, logger: logger}
}

// Models lists the registered model names.
func (a *Adapter) Models() []string {
	names := make([]string, 0, len(a.models))
	for name := range a.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a registered model.
func (a *Adapter) Known(name string) bool {
	_, ok := a.models[name]
	return ok
}

// Predict forecasts horizon daily prices after the last point of series.
// The result always holds exactly horizon points dated one day apart,
// starting the day after the last observation, with lower bounds >= 0.
func (a *Adapter) Predict(ctx context.Context, series *model.TokenSeries, name string, horizon int) (*model.ForecastResult, error) {
	m, ok := a.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	history := observations(series)
	if len(history) < 3 {
		return nil, fmt.Errorf("%s %s: %w", name, series.Symbol, ErrInsufficientData)
	}

	raw, err := m.Forecast(ctx, history, horizon)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, series.Symbol, err)
	}
	if len(raw.Predicted) < horizon {
		return nil, fmt.Errorf("%s %s: %w (%d < %d)", name, series.Symbol, errShortModelOutput, len(raw.Predicted), horizon)
	}

	last := history[len(history)-1].Date
	points := make([]model.ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		p := raw.Predicted[i]
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%s %s: %w", name, series.Symbol, errInvalidModelValue)
		}
		points[i] = model.ForecastPoint{
			Date:           last.AddDate(0, 0, i+1),
			PredictedPrice: math.Max(p, 0),
			UpperBound:     nonNegative(bound(raw.Upper, i)),
			LowerBound:     nonNegative(bound(raw.Lower, i)),
		}
	}

	a.logger.Debug("Forecast produced",
		zap.String("token", series.Symbol),
		zap.String("model", name),
		zap.Int("horizon", horizon),
	)
	return &model.ForecastResult{
		Token:    series.Symbol,
		Model:    name,
		Points:   points,
		Accuracy: raw.Accuracy,
	}, nil
}

// observations returns the dated valid prices of series in date order.
func observations(series *model.TokenSeries) []Observation {
	out := make([]Observation, 0, len(series.Points))
	for _, p := range series.Points {
		if p.Price.Valid && !math.IsNaN(p.Price.Float64) {
			out = append(out, Observation{Date: p.Date, Price: p.Price.Float64})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func prices(history []Observation) []float64 {
	out := make([]float64, len(history))
	for i, o := range history {
		out[i] = o.Price
	}
	return out
}

// nonNegative clips a defined price to zero.
func nonNegative(v null.Float) null.Float {
	if v.Valid && v.Float64 < 0 {
		return null.FloatFrom(0)
	}
	return v
}

func bound(values []float64, i int) null.Float {
	if i >= len(values) || math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
		return null.Float{}
	}
	return null.FloatFrom(values[i])
}
