package calculator

import (
	"math"
	"sort"

	"github.com/guregu/null/v6"

	"CoinScope/internal/model"
)

const volatilityWindow = 10

// Normalize sorts points by date and derives returns, rolling volatility,
// the volume/market-cap ratio and 7/30-point moving averages. Undefined
// entries are then back-filled from the nearest later value, except where a
// zero denominator made the value undefined: those stay null.
func Normalize(symbol string, points []model.TimeSeriesPoint) *model.NormalizedSeries {
	pts := append([]model.TimeSeriesPoint(nil), points...)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })

	n := len(pts)
	price := make([]float64, n)
	mcap := make([]float64, n)
	vol := make([]float64, n)
	for i, p := range pts {
		price[i] = floatOrNaN(p.Price)
		mcap[i] = floatOrNaN(p.MarketCap)
		vol[i] = floatOrNaN(p.Volume)
	}

	ret, retGuard := pctChange(price)
	volatility := RollingStd(ret, volatilityWindow)
	mcapChange, mcapGuard := pctChange(mcap)
	ratio, ratioGuard := safeDiv(vol, mcap)

	cols := map[model.Column][]float64{
		model.ColPrice:           price,
		model.ColMarketCap:       mcap,
		model.ColVolume:          vol,
		model.ColDailyReturn:     ret,
		model.ColVolatility:      volatility,
		model.ColMarketCapChange: mcapChange,
		model.ColVolumeToMcap:    ratio,
		model.ColPrice7dMA:       RollingMean(price, 7),
		model.ColPrice30dMA:      RollingMean(price, 30),
		model.ColMarketCap7dMA:   RollingMean(mcap, 7),
		model.ColMarketCap30dMA:  RollingMean(mcap, 30),
		model.ColVolume7dMA:      RollingMean(vol, 7),
		model.ColVolume30dMA:     RollingMean(vol, 30),
	}
	guards := map[model.Column][]bool{
		model.ColDailyReturn:     retGuard,
		model.ColMarketCapChange: mcapGuard,
		model.ColVolumeToMcap:    ratioGuard,
	}

	out := &model.NormalizedSeries{Symbol: symbol, Rows: make([]model.NormalizedRow, n)}
	for i := range out.Rows {
		out.Rows[i].Date = pts[i].Date
	}
	for col, values := range cols {
		backfill(values, guards[col])
		for i := range out.Rows {
			*out.Rows[i].Field(col) = nullFloat(values[i])
		}
	}
	return out
}

// NormalizeMarket normalizes the aggregate market series and carries BTC
// dominance through.
func NormalizeMarket(m *model.MarketSeries) *model.NormalizedSeries {
	sorted := &model.MarketSeries{Points: append([]model.MarketPoint(nil), m.Points...)}
	sorted.SortByDate()

	out := Normalize("MARKET", sorted.AsTimeSeries())
	out.Synthetic = m.Synthetic

	dom := make([]float64, len(sorted.Points))
	for i, p := range sorted.Points {
		dom[i] = floatOrNaN(p.BTCDominance)
	}
	backfill(dom, nil)
	for i := range out.Rows {
		out.Rows[i].BTCDominance = nullFloat(dom[i])
	}
	return out
}

// pctChange returns (v[i]/v[i-1] - 1) * 100. guard marks entries whose
// previous value was exactly zero.
func pctChange(values []float64) ([]float64, []bool) {
	out := make([]float64, len(values))
	guard := make([]bool, len(values))
	for i := range values {
		out[i] = math.NaN()
		if i == 0 {
			continue
		}
		if values[i-1] == 0 {
			guard[i] = true
			continue
		}
		out[i] = (values[i]/values[i-1] - 1) * 100
	}
	return out, guard
}

// safeDiv returns num/den, marking zero denominators in guard.
func safeDiv(num, den []float64) ([]float64, []bool) {
	out := make([]float64, len(num))
	guard := make([]bool, len(num))
	for i := range num {
		if den[i] == 0 {
			out[i] = math.NaN()
			guard[i] = true
			continue
		}
		out[i] = num[i] / den[i]
	}
	return out, guard
}

// backfill replaces NaN entries with the nearest later non-NaN value.
// Guarded entries are left NaN and never used as a source.
func backfill(values []float64, guard []bool) {
	next := math.NaN()
	for i := len(values) - 1; i >= 0; i-- {
		if guard != nil && guard[i] {
			continue
		}
		if math.IsNaN(values[i]) {
			values[i] = next
			continue
		}
		next = values[i]
	}
}

func floatOrNaN(f null.Float) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}

func nullFloat(v float64) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}
