package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// Forecast model names.
const (
	ModelARIMA   = "ARIMA"
	ModelLSTM    = "LSTM"
	ModelProphet = "Prophet"
)

// ForecastPoint is one predicted day.
type ForecastPoint struct {
	Date           time.Time  `json:"date"`
	PredictedPrice float64    `json:"predicted_price"`
	UpperBound     null.Float `json:"upper_bound"`
	LowerBound     null.Float `json:"lower_bound"`
}

// ForecastResult is a price forecast over a fixed horizon. It is not persisted
// as a table of its own.
type ForecastResult struct {
	Token    string          `json:"token"`
	Model    string          `json:"model"`
	Points   []ForecastPoint `json:"points"`
	Accuracy null.Float      `json:"accuracy"`
	Fallback bool            `json:"fallback"`
}
