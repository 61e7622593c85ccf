package notifier

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"CoinScope/internal/dashboard"
	"CoinScope/internal/model"
)

// HelpText lists the bot commands.
const HelpText = "Available commands:\n" +
	"• /market - market digest\n" +
	"• /trending - trending news topics\n" +
	"• /forecast SYMBOL [MODEL] - price forecast"

// usd renders large dollar amounts with an SI suffix ("$1.5 T").
func usd(v float64) string {
	return "$" + humanize.SIWithDigits(v, 2, "")
}

func price(v float64) string {
	if v >= 1 {
		return "$" + humanize.CommafWithDigits(v, 2)
	}
	return "$" + humanize.FtoaWithDigits(v, 6)
}

// lastValid returns the last valid value of column c.
func lastValid(s *model.NormalizedSeries, c model.Column) (float64, bool) {
	for i := len(s.Rows) - 1; i >= 0; i-- {
		if f := s.Rows[i].Field(c); f != nil && f.Valid {
			return f.Float64, true
		}
	}
	return 0, false
}

// windowChange is the percent change of column c from its first to its last
// valid value.
func windowChange(s *model.NormalizedSeries, c model.Column) (float64, bool) {
	var first float64
	found := false
	for i := range s.Rows {
		if f := s.Rows[i].Field(c); f != nil && f.Valid {
			first, found = f.Float64, true
			break
		}
	}
	last, ok := lastValid(s, c)
	if !found || !ok || first == 0 {
		return 0, false
	}
	return (last - first) / first * 100, true
}

// FormatDigest formats a refreshed overview into a Telegram message.
func FormatDigest(ov *dashboard.Overview) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>CoinScope</b> | %s | %s\n", ov.Timeframe, ov.GeneratedAt.Format("2006-01-02 15:04")))
	if ov.Source == "synthetic" {
		b.WriteString("<i>Live data unavailable, showing synthetic data</i>\n")
	}
	b.WriteString("\n")

	if ov.Market != nil {
		if v, ok := lastValid(ov.Market, model.ColMarketCap); ok {
			b.WriteString(fmt.Sprintf("Market cap: %s", usd(v)))
			if ch, ok := windowChange(ov.Market, model.ColMarketCap); ok {
				b.WriteString(fmt.Sprintf(" (%+.2f%%)", ch))
			}
			b.WriteString("\n")
		}
		if v, ok := lastValid(ov.Market, model.ColVolume); ok {
			b.WriteString(fmt.Sprintf("24h volume: %s\n", usd(v)))
		}
	}

	symbols := make([]string, 0, len(ov.Tokens))
	for sym := range ov.Tokens {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	if len(symbols) > 0 {
		b.WriteString("\n💰 <b>Tokens:</b>\n")
	}
	for _, sym := range symbols {
		s := ov.Tokens[sym]
		p, ok := lastValid(s, model.ColPrice)
		if !ok {
			b.WriteString(fmt.Sprintf("  %s: n/a\n", sym))
			continue
		}
		line := fmt.Sprintf("  %s: %s", sym, price(p))
		if ch, ok := windowChange(s, model.ColPrice); ok {
			arrow := "🔺"
			if ch < 0 {
				arrow = "🔻"
			}
			line += fmt.Sprintf(" %s %+.2f%%", arrow, ch)
		}
		b.WriteString(line + "\n")
	}

	if len(ov.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ Unknown tokens skipped: %s\n", strings.Join(ov.Skipped, ", ")))
	}
	return b.String()
}

// FormatTrending formats trending topics and the most mentioned tokens.
func FormatTrending(data model.TrendingData, maxTopics int) string {
	var b strings.Builder
	b.WriteString("📰 <b>Trending in crypto</b>\n\n")

	topics := data.Topics
	if maxTopics > 0 && len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	for i, t := range topics {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b>\n", i+1, html.EscapeString(t.Title)))
		b.WriteString(fmt.Sprintf("   %s · %s", html.EscapeString(t.Source), t.Date))
		if t.Articles > 1 {
			b.WriteString(fmt.Sprintf(" · %d articles", t.Articles))
		}
		b.WriteString("\n")
	}

	if len(data.TrendingTokens) > 0 {
		b.WriteString("\n🔥 <b>Most mentioned:</b>\n")
		for _, tok := range data.TrendingTokens {
			b.WriteString(fmt.Sprintf("  %s: %d mentions, sentiment %+.2f\n", tok.Token, tok.Mentions, tok.Sentiment))
		}
	}
	if data.Source == "mock" {
		b.WriteString("\n<i>No news provider configured, showing sample topics</i>\n")
	}
	return b.String()
}

// FormatForecast summarizes a forecast by its final point.
func FormatForecast(res *model.ForecastResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔮 <b>%s forecast</b> | %s, %d days\n\n", res.Token, res.Model, len(res.Points)))
	if len(res.Points) == 0 {
		b.WriteString("No prediction available\n")
		return b.String()
	}

	first, last := res.Points[0], res.Points[len(res.Points)-1]
	b.WriteString(fmt.Sprintf("%s: %s\n", first.Date.Format("2006-01-02"), price(first.PredictedPrice)))
	b.WriteString(fmt.Sprintf("%s: %s\n", last.Date.Format("2006-01-02"), price(last.PredictedPrice)))
	if last.LowerBound.Valid && last.UpperBound.Valid {
		b.WriteString(fmt.Sprintf("Range: %s - %s\n", price(last.LowerBound.Float64), price(last.UpperBound.Float64)))
	}
	if res.Accuracy.Valid && !math.IsNaN(res.Accuracy.Float64) {
		b.WriteString(fmt.Sprintf("Accuracy: %.1f%%\n", res.Accuracy.Float64))
	}
	if res.Fallback {
		b.WriteString("\n⚠️ Model unavailable, showing a trend extrapolation\n")
	}
	return b.String()
}
