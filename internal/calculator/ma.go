package calculator

import (
	"errors"
	"math"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// RollingMean returns the trailing SMA at every index. Entries whose window
// is incomplete or contains NaN are NaN.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = math.NaN()
		if i+1 < window || anyNaN(values[i+1-window:i+1]) {
			continue
		}
		if ma, err := CalculateSMA(values[:i+1], window); err == nil {
			out[i] = ma
		}
	}
	return out
}

// RollingStd returns the trailing sample standard deviation at every index,
// with the same NaN rules as RollingMean.
func RollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = math.NaN()
		if window < 2 || i+1 < window || anyNaN(values[i+1-window:i+1]) {
			continue
		}
		out[i] = sampleStd(values[i+1-window : i+1])
	}
	return out
}

func anyNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
