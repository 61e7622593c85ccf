package model

import (
	"encoding/json"
	"time"
)

// Analysis is the graded assessment of a project's whitepaper.
type Analysis struct {
	ID             string    `json:"id"`
	Project        string    `json:"project"`
	Security       string    `json:"security"`
	Growth         string    `json:"growth"`
	Risk           string    `json:"risk"`
	Technology     string    `json:"technology"`
	Summary        string    `json:"summary"`
	SecurityRating float64   `json:"security_rating"`
	GrowthRating   float64   `json:"growth_rating"`
	RiskRating     float64   `json:"risk_rating"`
	TechRating     float64   `json:"tech_rating"`
	Fallback       bool      `json:"fallback"`
	CreatedAt      time.Time `json:"created_at"`
}

// StoredResult is a previously saved analysis payload.
type StoredResult struct {
	Date   time.Time       `json:"date"`
	Result json.RawMessage `json:"result"`
}
