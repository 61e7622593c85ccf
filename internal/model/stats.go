package model

import (
	"math"

	"github.com/guregu/null/v6"
)

var nan = math.NaN()

// ColumnStats summarizes one numeric column.
type ColumnStats struct {
	Mean      float64    `json:"mean"`
	Median    float64    `json:"median"`
	Min       float64    `json:"min"`
	Max       float64    `json:"max"`
	StdDev    float64    `json:"std_dev"`
	Skewness  null.Float `json:"skewness,omitempty"`
	Kurtosis  null.Float `json:"kurtosis,omitempty"`
	Change7d  null.Float `json:"change_7d_pct"`
	Change30d null.Float `json:"change_30d_pct"`
}

// VolatilityStats summarizes the rolling volatility column.
type VolatilityStats struct {
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Current float64 `json:"current"`
}

// Stats groups the per-column statistics of a normalized series. A nil entry
// means the column had no valid values.
type Stats struct {
	Price      *ColumnStats     `json:"price,omitempty"`
	MarketCap  *ColumnStats     `json:"market_cap,omitempty"`
	Volume     *ColumnStats     `json:"volume,omitempty"`
	Volatility *VolatilityStats `json:"volatility,omitempty"`
}

// RiskMetrics are portfolio-style risk measures derived from daily returns.
type RiskMetrics struct {
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
	VaR95       float64 `json:"var_95"`
	CVaR95      float64 `json:"cvar_95"`
	RSI14       float64 `json:"rsi_14"`
}

// Outlier is a row whose value deviates from the column mean by more than
// the z-score threshold.
type Outlier struct {
	Row    NormalizedRow `json:"row"`
	ZScore float64       `json:"z_score"`
}

// CorrelationMatrix holds pairwise Pearson correlations of token prices on
// their shared dates. A pair with too little overlap is null.
type CorrelationMatrix struct {
	Tokens []string       `json:"tokens"`
	Values [][]null.Float `json:"values"`
}
