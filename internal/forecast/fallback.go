package forecast

import (
	"time"

	"github.com/guregu/null/v6"

	"CoinScope/internal/model"
)

// fallbackBand is the relative width of the fallback interval.
const fallbackBand = 0.10

// Fallback extrapolates the average daily price change of series over
// horizon days. It is used when the requested model fails and is flagged as
// such in the result.
func Fallback(series *model.TokenSeries, name string, horizon int, now time.Time) *model.ForecastResult {
	if horizon < 1 {
		horizon = 1
	}
	history := observations(series)

	var last, drift float64
	lastDate := now.UTC().Truncate(24 * time.Hour)
	if n := len(history); n > 0 {
		last = history[n-1].Price
		lastDate = history[n-1].Date
		if n > 1 {
			drift = (history[n-1].Price - history[0].Price) / float64(n-1)
		}
	}

	points := make([]model.ForecastPoint, horizon)
	for i := range points {
		p := last + drift*float64(i+1)
		if p < 0 {
			p = 0
		}
		points[i] = model.ForecastPoint{
			Date:           lastDate.AddDate(0, 0, i+1),
			PredictedPrice: p,
			UpperBound:     null.FloatFrom(p * (1 + fallbackBand)),
			LowerBound:     null.FloatFrom(p * (1 - fallbackBand)),
		}
	}
	return &model.ForecastResult{
		Token:    series.Symbol,
		Model:    name,
		Points:   points,
		Fallback: true,
	}
}
