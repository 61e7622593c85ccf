package calculator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/guregu/null/v6"

	"CoinScope/internal/model"
)

var (
	ErrInsufficientData = errors.New("not enough data")
	ErrUnknownColumn    = errors.New("unknown column")
)

// CalculateStats summarizes price, market cap, volume and volatility.
// Skewness and kurtosis are computed for price only.
func CalculateStats(s *model.NormalizedSeries) model.Stats {
	return model.Stats{
		Price:      columnStats(s.Values(model.ColPrice), true),
		MarketCap:  columnStats(s.Values(model.ColMarketCap), false),
		Volume:     columnStats(s.Values(model.ColVolume), false),
		Volatility: volatilityStats(s.Values(model.ColVolatility)),
	}
}

func columnStats(values []float64, shape bool) *model.ColumnStats {
	v := valid(values)
	if len(v) == 0 {
		return nil
	}
	lo, hi := minMax(v)
	cs := &model.ColumnStats{
		Mean:      mean(v),
		Median:    median(v),
		Min:       lo,
		Max:       hi,
		StdDev:    zeroIfNaN(sampleStd(v)),
		Change7d:  trailingChange(values, 7),
		Change30d: trailingChange(values, 30),
	}
	if shape {
		cs.Skewness = nullFloat(skewness(v))
		cs.Kurtosis = nullFloat(kurtosis(v))
	}
	return cs
}

// trailingChange compares the last value with the one n positions from the
// end, clamping n to the series length.
func trailingChange(values []float64, n int) null.Float {
	if len(values) == 0 {
		return null.Float{}
	}
	k := min(n, len(values))
	last, base := values[len(values)-1], values[len(values)-k]
	if math.IsNaN(last) || math.IsNaN(base) || base == 0 {
		return null.Float{}
	}
	return null.FloatFrom((last/base - 1) * 100)
}

func volatilityStats(values []float64) *model.VolatilityStats {
	v := valid(values)
	if len(v) == 0 {
		return nil
	}
	lo, hi := minMax(v)
	return &model.VolatilityStats{
		Mean:    mean(v),
		Median:  median(v),
		Min:     lo,
		Max:     hi,
		Current: v[len(v)-1],
	}
}

// CalculateRiskMetrics derives risk measures from daily returns (in percent):
// Sharpe ratio annualized over 365 days against a 2% risk-free rate, maximum
// drawdown, 95% historical VaR and CVaR, and 14-period RSI of price.
func CalculateRiskMetrics(s *model.NormalizedSeries) (model.RiskMetrics, error) {
	r := valid(s.Values(model.ColDailyReturn))
	if len(r) < 2 {
		return model.RiskMetrics{}, fmt.Errorf("risk metrics: %w", ErrInsufficientData)
	}

	var m model.RiskMetrics
	const riskFree = 0.02 / 365
	if sd := sampleStd(r); sd > 0 {
		m.SharpeRatio = (mean(r) - riskFree) / sd * math.Sqrt(365)
	}

	cum, peak := 1.0, 0.0
	for _, ret := range r {
		cum *= 1 + ret/100
		peak = math.Max(peak, cum)
		m.MaxDrawdown = math.Min(m.MaxDrawdown, (cum/peak-1)*100)
	}

	m.VaR95 = percentile(r, 5)
	var tail []float64
	for _, ret := range r {
		if ret <= m.VaR95 {
			tail = append(tail, ret)
		}
	}
	m.CVaR95 = mean(tail)

	rsi, err := CalculateRSI(valid(s.Values(model.ColPrice)), 14)
	if err != nil {
		return m, err
	}
	m.RSI14 = rsi
	return m, nil
}

// CorrelationMatrix computes Pearson correlation of prices between every
// pair of tokens over the dates both series share.
func CorrelationMatrix(series map[string]*model.TokenSeries) model.CorrelationMatrix {
	tokens := make([]string, 0, len(series))
	byDate := make(map[string]map[int64]float64, len(series))
	for tok, s := range series {
		tokens = append(tokens, tok)
		prices := make(map[int64]float64, len(s.Points))
		for _, p := range s.Points {
			if p.Price.Valid {
				prices[p.Date.Unix()] = p.Price.Float64
			}
		}
		byDate[tok] = prices
	}
	sort.Strings(tokens)

	values := make([][]null.Float, len(tokens))
	for i, a := range tokens {
		values[i] = make([]null.Float, len(tokens))
		for j, b := range tokens {
			if j < i {
				values[i][j] = values[j][i]
				continue
			}
			x, y := aligned(byDate[a], byDate[b])
			values[i][j] = nullFloat(pearson(x, y))
		}
	}
	return model.CorrelationMatrix{Tokens: tokens, Values: values}
}

func aligned(a, b map[int64]float64) (x, y []float64) {
	keys := make([]int64, 0, len(a))
	for k := range a {
		if _, ok := b[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		x = append(x, a[k])
		y = append(y, b[k])
	}
	return x, y
}

// DetectOutliers returns rows whose z-score in col exceeds threshold in
// absolute value. Rows with no value in col are ignored.
func DetectOutliers(s *model.NormalizedSeries, col model.Column, threshold float64) ([]model.Outlier, error) {
	if (&model.NormalizedRow{}).Field(col) == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, col)
	}
	values := s.Values(col)
	v := valid(values)
	sd := populationStd(v)
	if len(v) == 0 || sd == 0 || math.IsNaN(sd) {
		return nil, nil
	}
	mu := mean(v)

	var out []model.Outlier
	for i, x := range values {
		if math.IsNaN(x) {
			continue
		}
		if z := (x - mu) / sd; math.Abs(z) > threshold {
			out = append(out, model.Outlier{Row: s.Rows[i], ZScore: z})
		}
	}
	return out, nil
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
