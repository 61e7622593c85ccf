// Package scheduler runs the periodic refresh jobs and answers chat
// commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"CoinScope/internal/collector"
	"CoinScope/internal/dashboard"
	"CoinScope/internal/forecast"
	"CoinScope/internal/notifier"
)

// Sender delivers a formatted message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string) error
	Enabled() bool
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron      *cron.Cron
	svc       *dashboard.Service
	sender    Sender
	maxTopics int
	logger    *zap.Logger
	ctx       context.Context
}

// New creates a Scheduler. sender may be nil when no chat is configured.
func New(ctx context.Context, svc *dashboard.Service, sender Sender, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		svc:       svc,
		sender:    sender,
		maxTopics: 5,
		logger:    logger,
		ctx:       ctx,
	}
}

// RegisterAll registers the market refresh and trending topic jobs. An empty
// expression leaves that job out.
func (s *Scheduler) RegisterAll(refreshCron, trendingCron string) error {
	if refreshCron != "" {
		if _, err := s.cron.AddFunc(refreshCron, s.RefreshNow); err != nil {
			return fmt.Errorf("register refresh task: %w", err)
		}
	}
	if trendingCron != "" {
		if _, err := s.cron.AddFunc(trendingCron, s.TrendingNow); err != nil {
			return fmt.Errorf("register trending task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RefreshNow fetches and stores the default overview, then sends the digest.
func (s *Scheduler) RefreshNow() {
	s.logger.Info("Running refresh task")
	ov, err := s.svc.Refresh(s.ctx)
	if err != nil {
		s.logger.Error("Refresh failed", zap.Error(err))
		s.trySend(fmt.Sprintf("❌ Market refresh failed: %v", err))
		return
	}
	s.logger.Info("Refresh complete",
		zap.String("source", ov.Source), zap.Int("tokens", len(ov.Tokens)), zap.Strings("skipped", ov.Skipped))
	s.trySend(notifier.FormatDigest(ov))
}

// TrendingNow fetches and stores the trending topics.
func (s *Scheduler) TrendingNow() {
	s.logger.Info("Running trending task")
	data := s.svc.Trending(s.ctx)
	s.logger.Info("Trending complete", zap.String("source", data.Source), zap.Int("topics", len(data.Topics)))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	// Group chats address commands as /cmd@botname.
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch cmd {
	case "/market":
		ov, err := s.svc.Refresh(ctx)
		if err != nil {
			s.logger.Error("Market command failed", zap.Error(err))
			return "❌ Market data unavailable"
		}
		return notifier.FormatDigest(ov)
	case "/trending":
		return notifier.FormatTrending(s.svc.Trending(ctx), s.maxTopics)
	case "/forecast":
		if len(fields) < 2 {
			return "Usage: /forecast SYMBOL [MODEL]"
		}
		var name string
		if len(fields) > 2 {
			name = fields[2]
		}
		res, err := s.svc.Forecast(ctx, fields[1], "", name, 0)
		switch {
		case errors.Is(err, collector.ErrTokenNotFound):
			return fmt.Sprintf("Unknown token %s", strings.ToUpper(fields[1]))
		case errors.Is(err, forecast.ErrUnknownModel):
			return fmt.Sprintf("Unknown model %s", name)
		case err != nil:
			s.logger.Error("Forecast command failed", zap.Error(err))
			return "❌ Forecast failed"
		}
		return notifier.FormatForecast(res)
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(text string) {
	if s.sender == nil || !s.sender.Enabled() {
		return
	}
	if err := s.sender.SendWithRetry(s.ctx, text); err != nil {
		s.logger.Error("Failed to send notification", zap.Error(err))
	}
}
