package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"CoinScope/internal/analyzer"
	"CoinScope/internal/collector"
	"CoinScope/internal/config"
	"CoinScope/internal/dashboard"
	"CoinScope/internal/forecast"
	"CoinScope/internal/model"
	"CoinScope/internal/news"
	"CoinScope/internal/notifier"
	"CoinScope/internal/retry"
)

type fakeSender struct {
	enabled bool
	err     error
	sent    []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return f.err
}

func (f *fakeSender) Enabled() bool { return f.enabled }

// knownOnly serves synthetic data for a fixed set of symbols.
type knownOnly struct {
	*collector.Synthetic
}

func (k knownOnly) TokenSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.TokenSeries, error) {
	switch symbol {
	case "BTC", "ETH":
		return k.Synthetic.TokenSeries(ctx, symbol, tf)
	}
	return nil, collector.ErrTokenNotFound
}

func (k knownOnly) TokenList(context.Context) []string { return []string{"BTC", "ETH"} }

func (k knownOnly) SourceName() string { return "fake" }

func newScheduler(t *testing.T, sender Sender) *Scheduler {
	t.Helper()
	cfg := config.Default()
	logger := zap.NewNop()
	policy := retry.DefaultPolicy().NoDelay()
	svc := dashboard.New(
		knownOnly{collector.NewSynthetic(3)},
		nil,
		forecast.NewAdapter(cfg, nil, policy, logger),
		analyzer.New(cfg, nil, logger),
		news.New(cfg, nil, policy, logger),
		dashboard.Options{DefaultTokens: []string{"BTC", "ETH"}},
		logger,
	)
	return New(context.Background(), svc, sender, logger)
}

func TestRegisterAll(t *testing.T) {
	s := newScheduler(t, nil)
	if err := s.RegisterAll("0 0 * * * *", "0 30 */6 * * *"); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if n := len(s.cron.Entries()); n != 2 {
		t.Errorf("got %d entries, want 2", n)
	}

	s = newScheduler(t, nil)
	if err := s.RegisterAll("0 0 * * * *", ""); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("got %d entries, want 1", n)
	}

	if err := newScheduler(t, nil).RegisterAll("every hour", ""); err == nil {
		t.Error("expected error for a bad cron spec")
	}
}

func TestRefreshSendsDigest(t *testing.T) {
	sender := &fakeSender{enabled: true}
	s := newScheduler(t, sender)
	s.RefreshNow()
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0], "BTC:") || !strings.Contains(sender.sent[0], "ETH:") {
		t.Errorf("digest = %s", sender.sent[0])
	}

	// Send failures are logged, not propagated.
	sender.err = errors.New("down")
	s.RefreshNow()
	if len(sender.sent) != 2 {
		t.Errorf("sent %d messages, want 2", len(sender.sent))
	}
}

func TestRefreshWithoutSender(t *testing.T) {
	disabled := &fakeSender{}
	newScheduler(t, disabled).RefreshNow()
	if len(disabled.sent) != 0 {
		t.Errorf("disabled sender got %d messages", len(disabled.sent))
	}
	newScheduler(t, nil).RefreshNow()
	newScheduler(t, nil).TrendingNow()
}

func TestHandleCommand(t *testing.T) {
	s := newScheduler(t, nil)
	ctx := context.Background()
	tests := []struct {
		command string
		want    string
	}{
		{"", "Available commands"},
		{"/help", "Available commands"},
		{"hello", "Available commands"},
		{"/market", "BTC:"},
		{"/MARKET@CoinScopeBot", "ETH:"},
		{"/trending", "Trending in crypto"},
		{"/forecast", "Usage:"},
		{"/forecast btc", "BTC forecast"},
		{"/forecast eth LSTM", "trend extrapolation"},
		{"/forecast doge", "Unknown token DOGE"},
		{"/forecast btc GARCH", "Unknown model GARCH"},
	}
	for _, tc := range tests {
		t.Run(tc.command, func(t *testing.T) {
			got := s.HandleCommand(ctx, tc.command)
			if !strings.Contains(got, tc.want) {
				t.Errorf("HandleCommand(%q) = %q, want it to contain %q", tc.command, got, tc.want)
			}
		})
	}
	if got := s.HandleCommand(ctx, "/help"); got != notifier.HelpText {
		t.Errorf("help = %q", got)
	}
}
