package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"CoinScope/internal/model"
)

// CoinGecko implements Source against the CoinGecko v3 REST API.
type CoinGecko struct {
	client   *Client
	resolver *Resolver
	rnd      *randSource
	now      func() time.Time
	logger   *zap.Logger
}

func NewCoinGecko(client *Client, logger *zap.Logger) *CoinGecko {
	return &CoinGecko{
		client:   client,
		resolver: NewResolver(client),
		rnd:      newRandSource(time.Now().UnixNano()),
		now:      time.Now,
		logger:   logger,
	}
}

func (c *CoinGecko) Name() string { return "coingecko" }

func (c *CoinGecko) Resolver() *Resolver { return c.resolver }

// marketChart is the /coins/{id}/market_chart/range response. Each entry is
// [unix_ms, value].
type marketChart struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

type globalHistory struct {
	MarketCapChart struct {
		MarketCapByDate [][2]float64 `json:"market_cap_by_date"`
	} `json:"market_cap_chart"`
}

type globalSnapshot struct {
	Data struct {
		TotalVolume         map[string]float64 `json:"total_volume"`
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
	} `json:"data"`
}

func rangeParams(tf model.Timeframe, now time.Time) url.Values {
	start, end := tf.DateRange(now)
	return url.Values{
		"from": {strconv.FormatInt(start.Unix(), 10)},
		"to":   {strconv.FormatInt(end.Unix(), 10)},
	}
}

func (c *CoinGecko) TokenSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.TokenSeries, error) {
	id, err := c.resolver.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	path := c.client.Provider().Endpoint("historical_coin_data", "/coins/{id}/market_chart/range")
	path = strings.ReplaceAll(path, "{id}", url.PathEscape(id))
	params := rangeParams(tf, c.now())
	params.Set("vs_currency", "usd")

	var chart marketChart
	if err := c.client.GetJSON(ctx, path, params, &chart); err != nil {
		return nil, err
	}
	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("coingecko: no price data for %s", symbol)
	}

	series := &model.TokenSeries{
		Symbol:    strings.ToUpper(symbol),
		Points:    alignChart(chart),
		FetchedAt: c.now(),
	}
	series.SortByDate()
	c.logger.Debug("Fetched token series",
		zap.String("symbol", series.Symbol),
		zap.String("id", id),
		zap.String("timeframe", string(tf)),
		zap.String("interval", tf.Interval()),
		zap.Int("points", len(series.Points)))
	return series, nil
}

// alignChart keys market caps and volumes to the price timestamps by exact
// millisecond match. Unmatched entries are 0.
func alignChart(chart marketChart) []model.TimeSeriesPoint {
	caps := make(map[int64]float64, len(chart.MarketCaps))
	for _, e := range chart.MarketCaps {
		caps[int64(e[0])] = e[1]
	}
	vols := make(map[int64]float64, len(chart.TotalVolumes))
	for _, e := range chart.TotalVolumes {
		vols[int64(e[0])] = e[1]
	}

	points := make([]model.TimeSeriesPoint, 0, len(chart.Prices))
	for _, e := range chart.Prices {
		ms := int64(e[0])
		points = append(points, model.TimeSeriesPoint{
			Date:      time.UnixMilli(ms).UTC(),
			Price:     null.FloatFrom(e[1]),
			MarketCap: null.FloatFrom(caps[ms]),
			Volume:    null.FloatFrom(vols[ms]),
		})
	}
	return points
}

func (c *CoinGecko) MarketSeries(ctx context.Context, tf model.Timeframe) (*model.MarketSeries, error) {
	var hist globalHistory
	histPath := c.client.Provider().Endpoint("historical_market_data", "/global/history")
	if err := c.client.GetJSON(ctx, histPath, rangeParams(tf, c.now()), &hist); err != nil {
		return nil, err
	}
	caps := hist.MarketCapChart.MarketCapByDate
	if len(caps) == 0 {
		return nil, fmt.Errorf("coingecko: empty market cap history")
	}

	var snap globalSnapshot
	if err := c.client.GetJSON(ctx, c.client.Provider().Endpoint("market_data", "/global"), nil, &snap); err != nil {
		return nil, err
	}
	latestVolume, ok := snap.Data.TotalVolume["usd"]
	if !ok {
		return nil, fmt.Errorf("coingecko: global snapshot has no usd volume")
	}
	latestDominance, ok := snap.Data.MarketCapPercentage["btc"]
	if !ok {
		return nil, fmt.Errorf("coingecko: global snapshot has no btc dominance")
	}

	points := make([]model.MarketPoint, len(caps))
	for i, e := range caps {
		points[i] = model.MarketPoint{
			Date:      time.UnixMilli(int64(e[0])).UTC(),
			MarketCap: null.FloatFrom(e[1]),
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	if err := backfillMarket(points, latestVolume, latestDominance, func() float64 { return c.rnd.uniform(0.8, 1.2) }); err != nil {
		return nil, err
	}
	return &model.MarketSeries{Points: points, FetchedAt: c.now()}, nil
}

// backfillMarket estimates historical volume and BTC dominance from the
// latest snapshot. Volume follows the latest volume/cap ratio scaled by
// jitter; dominance rises 0.01 per day of age, at most +30 and never past 90.
// points must be sorted by date.
func backfillMarket(points []model.MarketPoint, latestVolume, latestDominance float64, jitter func() float64) error {
	if len(points) == 0 {
		return nil
	}
	last := points[len(points)-1]
	if !last.MarketCap.Valid || last.MarketCap.Float64 == 0 {
		return fmt.Errorf("coingecko: latest market cap is zero")
	}
	ratio := latestVolume / last.MarketCap.Float64

	for i := range points {
		p := &points[i]
		if i == len(points)-1 {
			p.Volume = null.FloatFrom(latestVolume)
		} else {
			p.Volume = null.FloatFrom(p.MarketCap.Float64 * ratio * jitter())
		}

		daysAgo := int(last.Date.Sub(p.Date).Hours() / 24)
		if daysAgo == 0 {
			p.BTCDominance = null.FloatFrom(latestDominance)
			continue
		}
		extra := min(float64(daysAgo)*0.01, 30)
		p.BTCDominance = null.FloatFrom(min(latestDominance+extra, 90))
	}
	return nil
}

// TokenList returns the sorted, de-duplicated upper-case symbols the provider
// lists.
func (c *CoinGecko) TokenList(ctx context.Context) ([]string, error) {
	var coins []coinListEntry
	if err := c.client.GetJSON(ctx, c.client.Provider().Endpoint("coin_list", "/coins/list"), nil, &coins); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(coins))
	out := make([]string, 0, len(coins))
	for _, coin := range coins {
		s := strings.ToUpper(coin.Symbol)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
