package model

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe is a lookback window used to bound a data query.
type Timeframe string

const (
	Timeframe24h     Timeframe = "24h"
	Timeframe7d      Timeframe = "7d"
	Timeframe30d     Timeframe = "30d"
	Timeframe90d     Timeframe = "90d"
	Timeframe1y      Timeframe = "1y"
	TimeframeAllTime Timeframe = "All Time"
)

// AllTimeStart is the first day the provider has market data for.
var AllTimeStart = time.Date(2013, 4, 28, 0, 0, 0, 0, time.UTC)

// Timeframes lists the supported windows in display order.
var Timeframes = []Timeframe{Timeframe24h, Timeframe7d, Timeframe30d, Timeframe90d, Timeframe1y, TimeframeAllTime}

// ParseTimeframe accepts the canonical names plus a few loose spellings
// ("week", "1 year", "all").
func ParseTimeframe(s string) (Timeframe, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	for _, tf := range Timeframes {
		if strings.ToLower(string(tf)) == t {
			return tf, nil
		}
	}
	switch {
	case t == "":
		return "", fmt.Errorf("empty timeframe")
	case t == "all" || t == "alltime" || t == "all_time" || t == "max":
		return TimeframeAllTime, nil
	case strings.Contains(t, "24 hour") || t == "day" || t == "1d":
		return Timeframe24h, nil
	case strings.Contains(t, "7 day") || t == "week" || t == "1w":
		return Timeframe7d, nil
	case strings.Contains(t, "30 day") || t == "month" || t == "1m":
		return Timeframe30d, nil
	case strings.Contains(t, "90 day") || strings.Contains(t, "3 month") || t == "quarter":
		return Timeframe90d, nil
	case strings.Contains(t, "365 day") || strings.Contains(t, "12 month") || t == "year" || t == "1 year":
		return Timeframe1y, nil
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// Days returns the window length in days. All Time has no fixed length and
// returns 0.
func (tf Timeframe) Days() int {
	switch tf {
	case Timeframe24h:
		return 1
	case Timeframe7d:
		return 7
	case Timeframe30d:
		return 30
	case Timeframe90d:
		return 90
	case Timeframe1y:
		return 365
	default:
		return 0
	}
}

// DateRange returns the (start, end) window ending at now. Windows are whole
// 24h days regardless of the location of now.
func (tf Timeframe) DateRange(now time.Time) (start, end time.Time) {
	if tf == TimeframeAllTime {
		return AllTimeStart, now
	}
	return now.Add(-time.Duration(tf.Days()) * 24 * time.Hour), now
}

// Interval is the sampling interval the provider returns for the window.
func (tf Timeframe) Interval() string {
	if tf == Timeframe24h || tf == Timeframe7d {
		return "hourly"
	}
	return "daily"
}
