package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"CoinScope/internal/dashboard"
	"CoinScope/internal/model"
	"CoinScope/internal/retry"
)

type fakeTelegram struct {
	mu       sync.Mutex
	sent     []map[string]string
	failures int
	updates  string
	offsets  []string
}

func (f *fakeTelegram) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Path {
		case "/botTOKEN/sendMessage":
			if f.failures > 0 {
				f.failures--
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			var payload map[string]string
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			f.sent = append(f.sent, payload)
			w.Write([]byte(`{"ok":true}`))
		case "/botTOKEN/getUpdates":
			f.offsets = append(f.offsets, r.URL.Query().Get("offset"))
			w.Write([]byte(f.updates))
		default:
			http.NotFound(w, r)
		}
	})
}

func newFake(t *testing.T, f *fakeTelegram) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewTelegramNotifier(srv.URL, "TOKEN", "42", srv.Client(), retry.DefaultPolicy().NoDelay(), zap.NewNop())
}

func TestSend(t *testing.T) {
	f := &fakeTelegram{}
	n := newFake(t, f)
	if !n.Enabled() {
		t.Fatal("notifier with credentials should be enabled")
	}
	if err := n.Send(context.Background(), "<b>hi</b>"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(f.sent) != 1 || f.sent[0]["chat_id"] != "42" || f.sent[0]["parse_mode"] != "HTML" || f.sent[0]["text"] != "<b>hi</b>" {
		t.Errorf("sent = %v", f.sent)
	}
}

func TestSendWithRetry(t *testing.T) {
	f := &fakeTelegram{failures: 2}
	n := newFake(t, f)
	if err := n.SendWithRetry(context.Background(), "hello"); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if len(f.sent) != 1 {
		t.Errorf("sent %d messages, want 1", len(f.sent))
	}

	f.failures = 5
	err := n.SendWithRetry(context.Background(), "hello")
	var se *retry.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Errorf("err = %v, want 429 status error", err)
	}
}

func TestDisabledWithoutCredentials(t *testing.T) {
	n := NewTelegramNotifier("", "", "", nil, retry.DefaultPolicy(), zap.NewNop())
	if n.Enabled() {
		t.Error("notifier without credentials should be disabled")
	}
	if n.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q", n.baseURL)
	}
}

func TestPollAnswersCommands(t *testing.T) {
	f := &fakeTelegram{updates: `{"ok":true,"result":[
		{"update_id":10,"message":{"text":" /market "}},
		{"update_id":11},
		{"update_id":12,"message":{"text":"/quiet"}}
	]}`}
	n := newFake(t, f)

	var got []string
	handler := func(_ context.Context, cmd string) string {
		got = append(got, cmd)
		if cmd == "/quiet" {
			return ""
		}
		return "reply to " + cmd
	}

	next, err := n.poll(context.Background(), n.client, 5, 0, handler)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if next != 13 {
		t.Errorf("next offset = %d, want 13", next)
	}
	if len(got) != 2 || got[0] != "/market" || got[1] != "/quiet" {
		t.Errorf("commands = %v", got)
	}
	if len(f.sent) != 1 || f.sent[0]["text"] != "reply to /market" {
		t.Errorf("sent = %v", f.sent)
	}
	if len(f.offsets) != 1 || f.offsets[0] != "5" {
		t.Errorf("offsets = %v", f.offsets)
	}
}

func TestStartPollingStopsOnCancel(t *testing.T) {
	f := &fakeTelegram{updates: `{"ok":true,"result":[]}`}
	n := newFake(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(context.Context, string) string { return "" })
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}

func row(day int, p, mcap float64) model.NormalizedRow {
	return model.NormalizedRow{
		Date:      time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Price:     null.FloatFrom(p),
		MarketCap: null.FloatFrom(mcap),
		Volume:    null.FloatFrom(mcap / 20),
	}
}

func TestFormatDigest(t *testing.T) {
	ov := &dashboard.Overview{
		Timeframe: model.Timeframe30d,
		Source:    "synthetic",
		Market: &model.NormalizedSeries{Rows: []model.NormalizedRow{
			row(1, 0, 2e12), row(2, 0, 2.5e12),
		}},
		Tokens: map[string]*model.NormalizedSeries{
			"ETH": {Symbol: "ETH", Rows: []model.NormalizedRow{row(1, 4000, 1), row(2, 3000, 1)}},
			"BTC": {Symbol: "BTC", Rows: []model.NormalizedRow{row(1, 60000, 1), row(2, 66000.5, 1)}},
		},
		Skipped:     []string{"NOPE"},
		GeneratedAt: time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC),
	}
	got := FormatDigest(ov)
	for _, want := range []string{
		"30d | 2024-03-02 09:30",
		"synthetic",
		"Market cap: $2.5 T (+25.00%)",
		"BTC: $66,000.5 🔺 +10.00%",
		"ETH: $3,000 🔻 -25.00%",
		"skipped: NOPE",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("digest missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "BTC:") > strings.Index(got, "ETH:") {
		t.Error("tokens should be sorted by symbol")
	}
}

func TestFormatTrending(t *testing.T) {
	data := model.TrendingData{
		Topics: []model.Topic{
			{Title: "ETF <news>", Source: "Wire", Date: "March 01, 2024", Articles: 3},
			{Title: "Second", Source: "Desk", Date: "Recent", Articles: 1},
		},
		TrendingTokens: []model.TrendingToken{{Token: "BTC", Mentions: 4, Sentiment: 0.25}},
		Source:         "mock",
	}
	got := FormatTrending(data, 1)
	for _, want := range []string{"ETF &lt;news&gt;", "3 articles", "BTC: 4 mentions, sentiment +0.25", "sample topics"} {
		if !strings.Contains(got, want) {
			t.Errorf("trending missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Second") {
		t.Error("topics beyond the limit should be dropped")
	}
}

func TestFormatForecast(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 4, d, 0, 0, 0, 0, time.UTC) }
	res := &model.ForecastResult{
		Token: "SOL",
		Model: model.ModelARIMA,
		Points: []model.ForecastPoint{
			{Date: day(1), PredictedPrice: 100},
			{Date: day(2), PredictedPrice: 110, LowerBound: null.FloatFrom(90), UpperBound: null.FloatFrom(130)},
		},
		Accuracy: null.FloatFrom(92.34),
		Fallback: true,
	}
	got := FormatForecast(res)
	for _, want := range []string{"SOL forecast", "ARIMA, 2 days", "2024-04-02: $110", "Range: $90 - $130", "Accuracy: 92.3%", "trend extrapolation"} {
		if !strings.Contains(got, want) {
			t.Errorf("forecast missing %q:\n%s", want, got)
		}
	}

	empty := FormatForecast(&model.ForecastResult{Token: "X", Model: model.ModelLSTM})
	if !strings.Contains(empty, "No prediction") {
		t.Errorf("empty forecast = %q", empty)
	}
}
