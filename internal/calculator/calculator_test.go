package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"CoinScope/internal/model"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func series(prices ...float64) []model.TimeSeriesPoint {
	pts := make([]model.TimeSeriesPoint, len(prices))
	for i, p := range prices {
		pts[i] = model.TimeSeriesPoint{
			Date:      day0.AddDate(0, 0, i),
			Price:     null.FloatFrom(p),
			MarketCap: null.FloatFrom(p * 1000),
			Volume:    null.FloatFrom(p * 10),
		}
	}
	return pts
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

var allColumns = []model.Column{
	model.ColPrice, model.ColMarketCap, model.ColVolume, model.ColDailyReturn,
	model.ColVolatility, model.ColMarketCapChange, model.ColVolumeToMcap,
	model.ColPrice7dMA, model.ColPrice30dMA, model.ColMarketCap7dMA,
	model.ColMarketCap30dMA, model.ColVolume7dMA, model.ColVolume30dMA,
}

func TestNormalizeMonotonicHasNoGaps(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100 + float64(i) + 0.5*float64(i*i)
	}
	out := Normalize("BTC", series(prices...))
	if len(out.Rows) != 40 {
		t.Fatalf("rows = %d", len(out.Rows))
	}
	for i := range out.Rows {
		for _, c := range allColumns {
			if !out.Rows[i].Field(c).Valid {
				t.Fatalf("row %d column %s is null", i, c)
			}
		}
	}
}

func TestNormalizeDerivedValues(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = float64(i + 1)
	}
	out := Normalize("X", series(prices...))
	r := out.Rows

	if !approx(r[1].DailyReturn.Float64, 100) {
		t.Errorf("return[1] = %v, want 100", r[1].DailyReturn.Float64)
	}
	if r[0].DailyReturn.Float64 != r[1].DailyReturn.Float64 {
		t.Error("first return should be back-filled from the second")
	}
	if !approx(r[6].Price7dMA.Float64, 4) {
		t.Errorf("price_7d_ma[6] = %v, want 4", r[6].Price7dMA.Float64)
	}
	if r[0].Price7dMA.Float64 != r[6].Price7dMA.Float64 {
		t.Error("leading 7d MA should be back-filled")
	}
	if !approx(r[29].Price30dMA.Float64, 15.5) || !approx(r[0].Price30dMA.Float64, 15.5) {
		t.Errorf("price_30d_ma = %v/%v, want 15.5", r[0].Price30dMA.Float64, r[29].Price30dMA.Float64)
	}
	if !approx(r[3].VolumeToMcap.Float64, 0.01) {
		t.Errorf("volume_to_mcap = %v", r[3].VolumeToMcap.Float64)
	}
	if r[0].Volatility.Float64 != r[10].Volatility.Float64 {
		t.Error("leading volatility should equal the first computable value")
	}
	if r[10].Volatility.Float64 == r[11].Volatility.Float64 {
		t.Error("volatility should vary once computable")
	}
}

func TestNormalizeZeroMarketCapSentinel(t *testing.T) {
	pts := series(1, 2, 3, 4, 5, 6, 7, 8)
	pts[5].MarketCap = null.FloatFrom(0)
	out := Normalize("X", pts)

	if out.Rows[5].VolumeToMcap.Valid {
		t.Errorf("volume_to_mcap with zero cap = %v, want null", out.Rows[5].VolumeToMcap.Float64)
	}
	if out.Rows[6].MarketCapChange.Valid {
		t.Error("change from a zero cap should be null")
	}
	if !out.Rows[4].VolumeToMcap.Valid || !out.Rows[6].VolumeToMcap.Valid {
		t.Error("neighbouring ratios should be defined")
	}
	for _, r := range out.Rows {
		if math.IsInf(r.VolumeToMcap.Float64, 0) || math.IsNaN(r.VolumeToMcap.Float64) {
			t.Fatal("ratio holds a non-finite value")
		}
	}
}

func TestNormalizeSortsByDate(t *testing.T) {
	pts := series(1, 2, 3)
	pts[0], pts[2] = pts[2], pts[0]
	out := Normalize("X", pts)
	for i := 1; i < len(out.Rows); i++ {
		if !out.Rows[i].Date.After(out.Rows[i-1].Date) {
			t.Fatal("rows not sorted")
		}
	}
	if out.Rows[0].Price.Float64 != 1 {
		t.Errorf("first price = %v", out.Rows[0].Price.Float64)
	}
}

func TestNormalizeMarketCarriesDominance(t *testing.T) {
	m := &model.MarketSeries{Synthetic: true}
	for i := 0; i < 5; i++ {
		m.Points = append(m.Points, model.MarketPoint{
			Date:         day0.AddDate(0, 0, 4-i),
			MarketCap:    null.FloatFrom(1e12),
			Volume:       null.FloatFrom(1e11),
			BTCDominance: null.FloatFrom(float64(50 + i)),
		})
	}
	out := NormalizeMarket(m)
	if !out.Synthetic {
		t.Error("synthetic flag lost")
	}
	if got := out.Rows[0].BTCDominance.Float64; got != 54 {
		t.Errorf("oldest dominance = %v, want 54", got)
	}
	if out.Rows[0].Price.Valid {
		t.Error("market series has no price")
	}
	if !approx(out.Rows[2].VolumeToMcap.Float64, 0.1) {
		t.Errorf("ratio = %v", out.Rows[2].VolumeToMcap.Float64)
	}
}

func TestCalculateStats(t *testing.T) {
	out := Normalize("X", series(1, 2, 3, 4, 5))
	st := CalculateStats(out)
	p := st.Price
	if p == nil {
		t.Fatal("price stats missing")
	}
	if !approx(p.Mean, 3) || !approx(p.Median, 3) || p.Min != 1 || p.Max != 5 {
		t.Errorf("price stats = %+v", p)
	}
	if !approx(p.StdDev, math.Sqrt(2.5)) {
		t.Errorf("std = %v", p.StdDev)
	}
	if !approx(p.Skewness.Float64, 0) || !approx(p.Kurtosis.Float64, -1.3) {
		t.Errorf("skew/kurt = %v/%v", p.Skewness.Float64, p.Kurtosis.Float64)
	}
	if !approx(p.Change7d.Float64, 400) || !approx(p.Change30d.Float64, 400) {
		t.Errorf("changes = %v/%v", p.Change7d.Float64, p.Change30d.Float64)
	}
	if st.MarketCap == nil || st.MarketCap.Skewness.Valid {
		t.Error("market cap stats should exist without skewness")
	}
	if st.Volatility != nil {
		t.Error("five points cannot produce volatility")
	}
}

func TestTrailingChangeShortSeries(t *testing.T) {
	if got := trailingChange([]float64{2}, 7); !approx(got.Float64, 0) {
		t.Errorf("single value change = %v", got.Float64)
	}
	if got := trailingChange([]float64{0, 1}, 7); got.Valid {
		t.Error("zero base should be null")
	}
}

func TestCalculateRiskMetrics(t *testing.T) {
	prices := []float64{100, 110, 99, 120, 90, 95, 100, 105, 80, 100, 102, 98, 101, 103, 97, 99}
	out := Normalize("X", series(prices...))
	m, err := CalculateRiskMetrics(out)
	if err != nil {
		t.Fatal(err)
	}
	if m.MaxDrawdown >= 0 {
		t.Errorf("max drawdown = %v, want negative", m.MaxDrawdown)
	}
	if m.CVaR95 > m.VaR95 {
		t.Errorf("CVaR %v should not exceed VaR %v", m.CVaR95, m.VaR95)
	}
	if m.RSI14 <= 0 || m.RSI14 >= 100 {
		t.Errorf("RSI = %v", m.RSI14)
	}

	_, err = CalculateRiskMetrics(Normalize("X", series(1)))
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestPercentile(t *testing.T) {
	v := []float64{5, 1, 4, 2, 3}
	tests := []struct {
		p, want float64
	}{{0, 1}, {5, 1.2}, {50, 3}, {100, 5}}
	for _, tt := range tests {
		if got := percentile(v, tt.p); !approx(got, tt.want) {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestCorrelationMatrix(t *testing.T) {
	a := &model.TokenSeries{Points: series(1, 2, 3, 4)}
	b := &model.TokenSeries{Points: series(2, 4, 6, 8)}
	c := &model.TokenSeries{Points: series(4, 3, 2, 1)}
	d := &model.TokenSeries{Points: []model.TimeSeriesPoint{{Date: day0.AddDate(1, 0, 0), Price: null.FloatFrom(1)}}}

	m := CorrelationMatrix(map[string]*model.TokenSeries{"B": b, "A": a, "C": c, "D": d})
	if len(m.Tokens) != 4 || m.Tokens[0] != "A" || m.Tokens[3] != "D" {
		t.Fatalf("tokens = %v", m.Tokens)
	}
	if !approx(m.Values[0][1].Float64, 1) || !approx(m.Values[0][2].Float64, -1) {
		t.Errorf("row A = %v", m.Values[0])
	}
	if m.Values[1][0] != m.Values[0][1] {
		t.Error("matrix not symmetric")
	}
	if m.Values[0][3].Valid {
		t.Error("no overlap should be null")
	}
}

func TestDetectOutliers(t *testing.T) {
	prices := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 100}
	out := Normalize("X", series(prices...))
	got, err := DetectOutliers(out, model.ColPrice, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Row.Price.Float64 != 100 || got[0].ZScore <= 3 {
		t.Fatalf("outliers = %+v", got)
	}

	if _, err := DetectOutliers(out, "bogus", 3); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("err = %v", err)
	}
	flat := Normalize("X", series(1, 1, 1))
	if got, _ := DetectOutliers(flat, model.ColPrice, 3); len(got) != 0 {
		t.Errorf("constant column outliers = %v", got)
	}
}

func TestCalculateRSI(t *testing.T) {
	up := make([]float64, 20)
	for i := range up {
		up[i] = float64(i)
	}
	if rsi, _ := CalculateRSI(up, 14); rsi != 100 {
		t.Errorf("rising RSI = %v, want 100", rsi)
	}
	if rsi, _ := CalculateRSI(up[:5], 14); rsi != 50 {
		t.Errorf("short RSI = %v, want 50", rsi)
	}
	if _, err := CalculateRSI(up, 0); err == nil {
		t.Error("zero period should fail")
	}
}

func TestRollingMean(t *testing.T) {
	got := RollingMean([]float64{1, 2, math.NaN(), 4, 5, 6}, 2)
	want := []float64{math.NaN(), 1.5, math.NaN(), math.NaN(), 4.5, 5.5}
	for i := range want {
		if math.IsNaN(want[i]) != math.IsNaN(got[i]) || (!math.IsNaN(want[i]) && !approx(got[i], want[i])) {
			t.Errorf("RollingMean[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
