package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// NormalizedRow is one row of a normalized series. Derived columns are
// recomputed from the base columns and an invalid value means "undefined".
type NormalizedRow struct {
	Date            time.Time  `json:"date"`
	Price           null.Float `json:"price"`
	MarketCap       null.Float `json:"market_cap"`
	Volume          null.Float `json:"volume"`
	DailyReturn     null.Float `json:"daily_return"`
	Volatility      null.Float `json:"volatility"`
	MarketCapChange null.Float `json:"market_cap_change"`
	VolumeToMcap    null.Float `json:"volume_to_mcap"`
	Price7dMA       null.Float `json:"price_7d_ma"`
	Price30dMA      null.Float `json:"price_30d_ma"`
	MarketCap7dMA   null.Float `json:"market_cap_7d_ma"`
	MarketCap30dMA  null.Float `json:"market_cap_30d_ma"`
	Volume7dMA      null.Float `json:"volume_7d_ma"`
	Volume30dMA     null.Float `json:"volume_30d_ma"`
	BTCDominance    null.Float `json:"btc_dominance,omitempty"`
}

// NormalizedSeries is a token or market series with derived columns.
type NormalizedSeries struct {
	Symbol    string          `json:"symbol"`
	Rows      []NormalizedRow `json:"rows"`
	Synthetic bool            `json:"synthetic"`
}

// Column names a numeric column of a normalized series.
type Column string

const (
	ColPrice           Column = "price"
	ColMarketCap       Column = "market_cap"
	ColVolume          Column = "volume"
	ColDailyReturn     Column = "daily_return"
	ColVolatility      Column = "volatility"
	ColMarketCapChange Column = "market_cap_change"
	ColVolumeToMcap    Column = "volume_to_mcap"
	ColPrice7dMA       Column = "price_7d_ma"
	ColPrice30dMA      Column = "price_30d_ma"
	ColMarketCap7dMA   Column = "market_cap_7d_ma"
	ColMarketCap30dMA  Column = "market_cap_30d_ma"
	ColVolume7dMA      Column = "volume_7d_ma"
	ColVolume30dMA     Column = "volume_30d_ma"
)

// Field returns a pointer to the named column of the row, or nil for an
// unknown column.
func (r *NormalizedRow) Field(c Column) *null.Float {
	switch c {
	case ColPrice:
		return &r.Price
	case ColMarketCap:
		return &r.MarketCap
	case ColVolume:
		return &r.Volume
	case ColDailyReturn:
		return &r.DailyReturn
	case ColVolatility:
		return &r.Volatility
	case ColMarketCapChange:
		return &r.MarketCapChange
	case ColVolumeToMcap:
		return &r.VolumeToMcap
	case ColPrice7dMA:
		return &r.Price7dMA
	case ColPrice30dMA:
		return &r.Price30dMA
	case ColMarketCap7dMA:
		return &r.MarketCap7dMA
	case ColMarketCap30dMA:
		return &r.MarketCap30dMA
	case ColVolume7dMA:
		return &r.Volume7dMA
	case ColVolume30dMA:
		return &r.Volume30dMA
	}
	return nil
}

// Values returns the column as a float slice with NaN for undefined entries.
func (s *NormalizedSeries) Values(c Column) []float64 {
	out := make([]float64, len(s.Rows))
	for i := range s.Rows {
		f := s.Rows[i].Field(c)
		if f == nil || !f.Valid {
			out[i] = nan
			continue
		}
		out[i] = f.Float64
	}
	return out
}

// LastDate returns the date of the final row, or the zero time.
func (s *NormalizedSeries) LastDate() time.Time {
	if len(s.Rows) == 0 {
		return time.Time{}
	}
	return s.Rows[len(s.Rows)-1].Date
}
