package calculator

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// neutralRSI is reported when there are too few prices to measure momentum.
const neutralRSI = 50.0

// CalculateRSI returns the Wilder-smoothed relative strength index of prices
// over period. Fewer than period+1 prices yield neutralRSI; a series with no
// losses yields 100.
func CalculateRSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("rsi period must be positive")
	}
	if len(prices) < period+1 {
		return neutralRSI, nil
	}

	gains, losses := moves(prices)
	avgGain := floats.Sum(gains[:period]) / float64(period)
	avgLoss := floats.Sum(losses[:period]) / float64(period)
	k := float64(period)
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*(k-1) + gains[i]) / k
		avgLoss = (avgLoss*(k-1) + losses[i]) / k
	}

	if avgLoss == 0 {
		return 100, nil
	}
	return 100 - 100/(1+avgGain/avgLoss), nil
}

// moves splits consecutive price changes into non-negative gains and losses.
func moves(prices []float64) (gains, losses []float64) {
	gains = make([]float64, len(prices)-1)
	losses = make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if d := prices[i] - prices[i-1]; d > 0 {
			gains[i-1] = d
		} else {
			losses[i-1] = -d
		}
	}
	return gains, losses
}
