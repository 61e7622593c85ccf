package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrTokenNotFound = errors.New("token not found")

// staticIDs covers the common tickers without a network round trip.
var staticIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"SOL":   "solana",
	"DOT":   "polkadot",
	"DOGE":  "dogecoin",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
	"LTC":   "litecoin",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"ETC":   "ethereum-classic",
	"XLM":   "stellar",
	"ALGO":  "algorand",
	"FIL":   "filecoin",
	"VET":   "vechain",
	"THETA": "theta-token",
}

// FallbackSymbols is served when the provider's coin list is unavailable.
var FallbackSymbols = []string{
	"BTC", "ETH", "BNB", "XRP", "ADA", "SOL", "DOT", "DOGE", "AVAX", "LINK",
	"MATIC", "LTC", "UNI", "ATOM", "ETC", "XLM", "ALGO", "FIL", "VET", "THETA",
}

type coinListEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Resolver maps ticker symbols to provider coin ids.
type Resolver struct {
	client *Client
}

func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve returns the provider id for symbol. Unknown symbols and lookup
// failures both yield ErrTokenNotFound. When several coins share a symbol the
// first one in the provider's list wins.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if id, ok := staticIDs[s]; ok {
		return id, nil
	}
	if s == "" || r.client == nil {
		return "", fmt.Errorf("%w: %q", ErrTokenNotFound, symbol)
	}

	var coins []coinListEntry
	path := r.client.Provider().Endpoint("coin_list", "/coins/list")
	if err := r.client.GetJSON(ctx, path, nil, &coins); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrTokenNotFound, s, err)
	}
	for _, c := range coins {
		if strings.EqualFold(c.Symbol, s) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTokenNotFound, s)
}
