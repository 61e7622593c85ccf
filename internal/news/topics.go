package news

import (
	"math/rand"
	"sort"
	"strings"

	"CoinScope/internal/model"
)

// MaxTopics caps the number of topics returned.
const MaxTopics = 7

// Tokens lists the symbols tracked in headlines with their common names.
var Tokens = []struct{ Symbol, Name string }{
	{"BTC", "Bitcoin"},
	{"ETH", "Ethereum"},
	{"BNB", "Binance Coin"},
	{"SOL", "Solana"},
	{"XRP", "XRP"},
	{"ADA", "Cardano"},
	{"DOGE", "Dogecoin"},
	{"SHIB", "Shiba Inu"},
	{"MATIC", "Polygon"},
	{"DOT", "Polkadot"},
	{"LINK", "Chainlink"},
	{"ATOM", "Cosmos"},
	{"AVAX", "Avalanche"},
	{"LTC", "Litecoin"},
	{"UNI", "Uniswap"},
}

var positiveWords = []string{
	"bullish", "surge", "soar", "gain", "rally", "climb", "rise", "positive",
	"breakthrough", "adoption", "partnership", "success", "growth", "profit",
	"innovation", "potential", "opportunity", "promising", "optimistic", "victory",
}

var negativeWords = []string{
	"bearish", "plunge", "crash", "drop", "fall", "decline", "negative",
	"setback", "concern", "problem", "issue", "risk", "loss", "trouble", "danger",
	"warning", "collapse", "downtrend", "pessimistic", "defeat",
}

// GroupTopics clusters articles whose titles share enough words with the
// first article of a group. A title with w distinct words absorbs another
// when they share at least min(3, w/2) words. Groups are ordered by size,
// ties keep feed order, and at most MaxTopics are returned.
func GroupTopics(articles []model.Article) []model.Topic {
	type group struct {
		topic model.Topic
		order int
	}
	var groups []group
	taken := make([]bool, len(articles))

	for i, a := range articles {
		if taken[i] {
			continue
		}
		taken[i] = true
		words := wordSet(a.Title)
		need := min(3, len(words)/2)

		size := 1
		for j := i + 1; j < len(articles); j++ {
			if taken[j] {
				continue
			}
			if shared(words, wordSet(articles[j].Title)) >= need {
				taken[j] = true
				size++
			}
		}

		summary := a.Description
		if summary == "" {
			summary = a.Title
		}
		source := a.Source
		if source == "" {
			source = "News Source"
		}
		groups = append(groups, group{
			order: len(groups),
			topic: model.Topic{
				Title:    a.Title,
				Summary:  summary,
				URL:      a.URL,
				Date:     displayDate(a),
				Source:   source,
				Articles: size,
			},
		})
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].topic.Articles > groups[j].topic.Articles })
	if len(groups) > MaxTopics {
		groups = groups[:MaxTopics]
	}
	out := make([]model.Topic, len(groups))
	for i, g := range groups {
		out[i] = g.topic
	}
	return out
}

func displayDate(a model.Article) string {
	if a.PublishedAt.IsZero() {
		return "Recent"
	}
	return a.PublishedAt.Format("January 02, 2006")
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}

func shared(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}

// ArticleSentiment scores text by keyword presence: +0.1 per positive and
// -0.1 per negative keyword found, clamped to [-1, 1].
func ArticleSentiment(text string) float64 {
	text = strings.ToLower(text)
	var s float64
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			s += 0.1
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			s -= 0.1
		}
	}
	return clamp(s)
}

// mentions reports whether text names the token by symbol (as a whole
// word) or by name.
func mentions(text, symbol, name string) bool {
	if strings.Contains(text, strings.ToLower(name)) {
		return true
	}
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if w == strings.ToLower(symbol) {
			return true
		}
	}
	return false
}

// TrendingTokens counts token mentions over articles and averages the
// article sentiment per token. Tokens are ordered by mentions, then symbol.
func TrendingTokens(articles []model.Article) []model.TrendingToken {
	counts := make(map[string]int)
	sums := make(map[string]float64)
	for _, a := range articles {
		text := strings.ToLower(a.Title + " " + a.Description)
		s := ArticleSentiment(text)
		for _, tok := range Tokens {
			if mentions(text, tok.Symbol, tok.Name) {
				counts[tok.Symbol]++
				sums[tok.Symbol] += s
			}
		}
	}

	out := make([]model.TrendingToken, 0, len(counts))
	for sym, n := range counts {
		out = append(out, model.TrendingToken{Token: sym, Mentions: n, Sentiment: sums[sym] / float64(n)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mentions != out[j].Mentions {
			return out[i].Mentions > out[j].Mentions
		}
		return out[i].Token < out[j].Token
	})
	return out
}

// Breakdown spreads each token's sentiment over five dimensions with a
// bounded random offset per dimension.
func Breakdown(tokens []model.TrendingToken, rnd *rand.Rand) map[string]model.SentimentBreakdown {
	jitter := func(base, lo, hi float64) float64 {
		return clamp(base + lo + rnd.Float64()*(hi-lo))
	}
	out := make(map[string]model.SentimentBreakdown, len(tokens))
	for _, t := range tokens {
		out[t.Token] = model.SentimentBreakdown{
			Community:  jitter(t.Sentiment, -0.3, 0.3),
			Technology: jitter(t.Sentiment, -0.2, 0.4),
			Team:       jitter(t.Sentiment, -0.2, 0.2),
			Adoption:   jitter(t.Sentiment, -0.4, 0.2),
			Price:      jitter(t.Sentiment, -0.5, 0.5),
		}
	}
	return out
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
