package model

import (
	"sort"
	"time"

	"github.com/guregu/null/v6"
)

// TimeSeriesPoint is a single sample of a token's history. Numeric fields are
// optional: the provider may omit any of them for a given timestamp.
type TimeSeriesPoint struct {
	Date      time.Time  `json:"date" db:"date"`
	Price     null.Float `json:"price" db:"price"`
	MarketCap null.Float `json:"market_cap" db:"market_cap"`
	Volume    null.Float `json:"volume" db:"volume"`
}

// TokenSeries holds the history of one token. It is replaced, not merged, on
// every refresh.
type TokenSeries struct {
	Symbol    string            `json:"symbol"`
	Points    []TimeSeriesPoint `json:"points"`
	Synthetic bool              `json:"synthetic"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// MarketPoint is one sample of the aggregate market.
type MarketPoint struct {
	Date         time.Time  `json:"date" db:"date"`
	MarketCap    null.Float `json:"market_cap" db:"market_cap"`
	Volume       null.Float `json:"volume" db:"volume"`
	BTCDominance null.Float `json:"btc_dominance" db:"btc_dominance"`
}

// MarketSeries is the aggregate market history.
type MarketSeries struct {
	Points    []MarketPoint `json:"points"`
	Synthetic bool          `json:"synthetic"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// SortByDate orders the points by date ascending.
func (s *TokenSeries) SortByDate() {
	sort.SliceStable(s.Points, func(i, j int) bool { return s.Points[i].Date.Before(s.Points[j].Date) })
}

// SortByDate orders the points by date ascending.
func (s *MarketSeries) SortByDate() {
	sort.SliceStable(s.Points, func(i, j int) bool { return s.Points[i].Date.Before(s.Points[j].Date) })
}

// AsTimeSeries views the market history through the token point shape so the
// same normalizer serves both. Price is left empty.
func (s *MarketSeries) AsTimeSeries() []TimeSeriesPoint {
	out := make([]TimeSeriesPoint, len(s.Points))
	for i, p := range s.Points {
		out[i] = TimeSeriesPoint{Date: p.Date, MarketCap: p.MarketCap, Volume: p.Volume}
	}
	return out
}

// LastDate returns the most recent date in the series, or the zero time.
func (s *TokenSeries) LastDate() time.Time {
	var last time.Time
	for _, p := range s.Points {
		if p.Date.After(last) {
			last = p.Date
		}
	}
	return last
}

// Prices returns the valid prices of the series in their current order.
func (s *TokenSeries) Prices() []float64 {
	prices := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Price.Valid {
			prices = append(prices, p.Price.Float64)
		}
	}
	return prices
}
