package news

import (
	"time"

	"CoinScope/internal/model"
)

func mockTrending(now time.Time) model.TrendingData {
	day := func(i int) string { return now.AddDate(0, 0, -i).Format("January 02, 2006") }
	topics := []model.Topic{
		{
			Title:   "Spot Bitcoin ETF Inflows Lift Market",
			Summary: "Fresh inflows into spot Bitcoin funds pushed prices through recent resistance as institutions added exposure.",
			URL:     "https://example.com/news/bitcoin-etf-inflows",
			Source:  "Crypto Wire",
		},
		{
			Title:   "Ethereum Network Upgrade Goes Live",
			Summary: "The latest Ethereum upgrade activated without incident and lowers fees for rollups.",
			URL:     "https://example.com/news/ethereum-upgrade",
			Source:  "Chain Report",
		},
		{
			Title:   "Global Bank Opens Digital Asset Custody Desk",
			Summary: "A large bank now offers custody of digital assets to institutional clients.",
			URL:     "https://example.com/news/bank-custody",
			Source:  "Markets Daily",
		},
		{
			Title:   "Regulators Publish Draft Stablecoin Rules",
			Summary: "Draft rules ask stablecoin issuers for audited reserves and regular disclosures.",
			URL:     "https://example.com/news/stablecoin-rules",
			Source:  "Policy Watch",
		},
		{
			Title:   "DeFi Lending Protocol Passes $10B Deposits",
			Summary: "Deposits on a leading lending protocol crossed ten billion dollars despite choppy markets.",
			URL:     "https://example.com/news/defi-deposits",
			Source:  "DeFi Digest",
		},
		{
			Title:   "Game Studio Partners With NFT Marketplace",
			Summary: "Players will be able to trade in-game items as tokens through a new marketplace partnership.",
			URL:     "https://example.com/news/nft-gaming",
			Source:  "Token Times",
		},
		{
			Title:   "Central Bank Digital Currency Pilots Expand",
			Summary: "Several central banks reported successful pilots and plan wider trials next year.",
			URL:     "https://example.com/news/cbdc-pilots",
			Source:  "Central Bank Monitor",
		},
	}
	for i := range topics {
		topics[i].Date = day(i)
		topics[i].Articles = 1
	}

	return model.TrendingData{
		Topics: topics,
		TrendingTokens: []model.TrendingToken{
			{Token: "BTC", Mentions: 142, Sentiment: 0.62},
			{Token: "ETH", Mentions: 124, Sentiment: 0.48},
			{Token: "SOL", Mentions: 83, Sentiment: 0.35},
			{Token: "XRP", Mentions: 71, Sentiment: -0.22},
			{Token: "BNB", Mentions: 69, Sentiment: 0.18},
			{Token: "ADA", Mentions: 54, Sentiment: 0.05},
			{Token: "DOGE", Mentions: 47, Sentiment: 0.75},
			{Token: "MATIC", Mentions: 38, Sentiment: 0.31},
			{Token: "DOT", Mentions: 32, Sentiment: 0.23},
			{Token: "LINK", Mentions: 28, Sentiment: 0.42},
		},
		SentimentBreakdown: map[string]model.SentimentBreakdown{
			"BTC": {Community: 0.75, Technology: 0.58, Team: 0.62, Adoption: 0.81, Price: 0.54},
			"ETH": {Community: 0.65, Technology: 0.72, Team: 0.58, Adoption: 0.63, Price: 0.41},
			"SOL": {Community: 0.48, Technology: 0.65, Team: 0.51, Adoption: 0.42, Price: 0.29},
			"XRP": {Community: 0.28, Technology: -0.15, Team: -0.32, Adoption: -0.25, Price: -0.35},
			"BNB": {Community: 0.35, Technology: 0.25, Team: 0.21, Adoption: 0.32, Price: 0.15},
		},
		Source:      "mock",
		GeneratedAt: now,
	}
}
