package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"CoinScope/internal/config"
	"CoinScope/internal/model"
)

var day0 = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "sub", "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	return s
}

func tokenSeries(sym string, prices ...float64) *model.TokenSeries {
	s := &model.TokenSeries{Symbol: sym}
	for i, p := range prices {
		s.Points = append(s.Points, model.TimeSeriesPoint{
			Date:      day0.AddDate(0, 0, i),
			Price:     null.FloatFrom(p),
			MarketCap: null.FloatFrom(p * 100),
			Volume:    null.FloatFrom(p * 10),
		})
	}
	return s
}

func countRows(t *testing.T, s *SQLStore, q string, args ...any) int {
	t.Helper()
	var n int
	err := s.withDB(context.Background(), func(db *sqlx.DB) error {
		return db.GetContext(context.Background(), &n, db.Rebind(q), args...)
	})
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestSaveUpsertKeepsOneRowPerKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, nil, map[string]*model.TokenSeries{"BTC": tokenSeries("BTC", 100)}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.Save(ctx, nil, map[string]*model.TokenSeries{"BTC": tokenSeries("BTC", 250)}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	if n := countRows(t, s, "SELECT COUNT(*) FROM token_data WHERE token = ? AND date = ?", "BTC", formatDate(day0)); n != 1 {
		t.Fatalf("rows for key = %d, want 1", n)
	}
	_, tokens, err := s.Load(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if got := tokens["BTC"].Points[0].Price.Float64; got != 250 {
		t.Errorf("price = %v, want second value 250", got)
	}
}

func TestSaveAndLoadRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	market := &model.MarketSeries{}
	for i := 0; i < 5; i++ {
		market.Points = append(market.Points, model.MarketPoint{
			Date:         day0.AddDate(0, 0, i),
			MarketCap:    null.FloatFrom(1e12),
			Volume:       null.FloatFrom(1e11),
			BTCDominance: null.FloatFrom(50),
		})
	}
	tokens := map[string]*model.TokenSeries{
		"BTC": tokenSeries("BTC", 1, 2, 3, 4, 5),
		"ETH": tokenSeries("ETH", 10, 20),
	}
	tokens["ETH"].Points[1].Volume = null.Float{}

	if err := s.Save(ctx, market, tokens); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// second write of the same market rows must not duplicate
	if err := s.Save(ctx, market, nil); err != nil {
		t.Fatalf("Save again: %v", err)
	}

	m, got, err := s.Load(ctx, day0.AddDate(0, 0, 1), day0.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Points) != 3 {
		t.Errorf("market points = %d, want 3", len(m.Points))
	}
	if !m.Points[0].Date.Equal(day0.AddDate(0, 0, 1)) {
		t.Errorf("first market date = %v", m.Points[0].Date)
	}
	if len(got["BTC"].Points) != 3 || got["BTC"].Points[2].Price.Float64 != 4 {
		t.Errorf("BTC = %+v", got["BTC"])
	}
	eth := got["ETH"]
	if eth == nil || len(eth.Points) != 1 {
		t.Fatalf("ETH = %+v", eth)
	}
	if eth.Points[0].Volume.Valid {
		t.Error("null volume should round-trip as null")
	}

	m, got, err = s.Load(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Points) != 5 || len(got["BTC"].Points) != 5 || len(got["ETH"].Points) != 2 {
		t.Errorf("unbounded load sizes: market=%d btc=%d eth=%d", len(m.Points), len(got["BTC"].Points), len(got["ETH"].Points))
	}
}

func TestAnalysisResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clock := day0
	s.now = func() time.Time { return clock }

	for i, name := range []string{"ARIMA", "LSTM", "Prophet"} {
		clock = day0.Add(time.Duration(i) * time.Hour)
		if err := s.SaveAnalysisResult(ctx, "BTC", AnalysisPrediction, map[string]string{"model": name}); err != nil {
			t.Fatal(err)
		}
	}
	// same second, same key: replaced
	if err := s.SaveAnalysisResult(ctx, "BTC", AnalysisPrediction, map[string]string{"model": "ARIMA-2"}); err != nil {
		t.Fatal(err)
	}

	res, err := s.AnalysisResults(ctx, "BTC", AnalysisPrediction, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 {
		t.Fatalf("results = %d, want 2", len(res))
	}
	var v map[string]string
	if err := json.Unmarshal(res[0].Result, &v); err != nil {
		t.Fatal(err)
	}
	if v["model"] != "ARIMA-2" || !res[0].Date.Equal(clock) {
		t.Errorf("newest = %v at %v", v, res[0].Date)
	}

	if res, _ := s.AnalysisResults(ctx, "BTC", AnalysisWhitepaper, 5); len(res) != 0 {
		t.Errorf("whitepaper results = %d, want 0", len(res))
	}
}

func TestTrendingTopics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.now = func() time.Time { return day0 }
	if err := s.SaveTrendingTopics(ctx, []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTrendingTopics(ctx, []string{"b"}); err != nil {
		t.Fatal(err)
	}
	if n := countRows(t, s, "SELECT COUNT(*) FROM trending_topics"); n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
	res, err := s.TrendingTopics(ctx, 1)
	if err != nil || len(res) != 1 || string(res[0].Result) != `["b"]` {
		t.Fatalf("TrendingTopics = %+v, %v", res, err)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	st, err := New(config.Database{Type: "none"}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*NoopStore); !ok {
		t.Errorf("none → %T", st)
	}
	if _, err := New(config.Database{Type: "mysql"}, zap.NewNop()); err == nil {
		t.Error("unsupported type should fail")
	}
	st, err = New(config.Database{Type: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*SQLStore); !ok {
		t.Errorf("sqlite → %T", st)
	}
}

func TestNoopStore(t *testing.T) {
	var s Store = NewNoopStore()
	ctx := context.Background()
	if err := s.Save(ctx, &model.MarketSeries{}, nil); err != nil {
		t.Fatal(err)
	}
	m, tokens, err := s.Load(ctx, time.Time{}, time.Time{})
	if err != nil || m == nil || tokens == nil {
		t.Fatalf("Load = %v, %v, %v", m, tokens, err)
	}
}
