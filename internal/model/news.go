package model

import "time"

// Article is a news item normalized across providers.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Source      string    `json:"source"`
}

// Topic is a group of articles sharing a headline theme.
type Topic struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
	Date     string `json:"date"`
	Source   string `json:"source"`
	Articles int    `json:"articles"`
}

// TrendingToken counts how often a token is mentioned and the average
// keyword sentiment of those mentions.
type TrendingToken struct {
	Token     string  `json:"token"`
	Mentions  int     `json:"mentions"`
	Sentiment float64 `json:"sentiment"`
}

// SentimentBreakdown splits a token's sentiment into dimensions, each in [-1, 1].
type SentimentBreakdown struct {
	Community  float64 `json:"community"`
	Technology float64 `json:"technology"`
	Team       float64 `json:"team"`
	Adoption   float64 `json:"adoption"`
	Price      float64 `json:"price"`
}

// TrendingData is the trending-topics view of recent news.
type TrendingData struct {
	Topics             []Topic                       `json:"topics"`
	TrendingTokens     []TrendingToken               `json:"trending_tokens"`
	SentimentBreakdown map[string]SentimentBreakdown `json:"sentiment_breakdown"`
	Source             string                        `json:"source"`
	GeneratedAt        time.Time                     `json:"generated_at"`
}
