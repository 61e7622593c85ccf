// Package analyzer grades a crypto project's whitepaper along four
// dimensions with a text-generation service.
package analyzer

import (
	"context"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"CoinScope/internal/config"
	"CoinScope/internal/model"
)

// Analyzer produces whitepaper assessments. It never fails: without a
// completer, or when any call fails, it returns fallback prose.
type Analyzer struct {
	completer Completer
	fetcher   *Fetcher
	maxLength int
	logger    *zap.Logger
	now       func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// New wires an OpenAI completer when cfg has an API key.
func New(cfg *config.Config, httpClient *http.Client, logger *zap.Logger) *Analyzer {
	var completer Completer
	if cfg.AI.APIKey != "" {
		completer = NewOpenAICompleter(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.Temperature, cfg.AI.MaxTokens)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.AI.DownloadTimeout}
	}
	return NewWith(completer, NewFetcher(httpClient), cfg.AI.WhitepaperMaxLength, logger)
}

// NewWith builds an analyzer from explicit parts. completer may be nil.
func NewWith(completer Completer, fetcher *Fetcher, maxLength int, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		completer: completer,
		fetcher:   fetcher,
		maxLength: maxLength,
		logger:    logger,
		now:       time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Analyze grades project, reading the whitepaper at url when given.
func (a *Analyzer) Analyze(ctx context.Context, project, url string) model.Analysis {
	project = strings.TrimSpace(project)
	if a.completer == nil {
		a.logger.Info("No text-generation key configured, using fallback analysis", zap.String("project", project))
		return a.fallback(project)
	}

	text := a.document(ctx, project, url)

	var parts [4]string
	for i, d := range dimensions {
		out, err := a.completer.Complete(ctx, dimensionPrompt(d, project, text))
		if err != nil {
			a.logger.Warn("Analysis failed, using fallback", zap.String("project", project), zap.String("dimension", d.name), zap.Error(err))
			return a.fallback(project)
		}
		parts[i] = out
	}
	summary, err := a.completer.Complete(ctx, summaryPrompt(project, parts))
	if err != nil {
		a.logger.Warn("Summary failed, using fallback", zap.String("project", project), zap.Error(err))
		return a.fallback(project)
	}

	return model.Analysis{
		ID:             uuid.NewString(),
		Project:        project,
		Security:       parts[0],
		Growth:         parts[1],
		Risk:           parts[2],
		Technology:     parts[3],
		Summary:        summary,
		SecurityRating: ExtractRating(parts[0]),
		GrowthRating:   ExtractRating(parts[1]),
		RiskRating:     ExtractRating(parts[2]),
		TechRating:     ExtractRating(parts[3]),
		CreatedAt:      a.now().UTC(),
	}
}

// document returns the truncated whitepaper text, or a name-only prompt
// body when there is no usable document.
func (a *Analyzer) document(ctx context.Context, project, url string) string {
	if url = strings.TrimSpace(url); url != "" {
		text, err := a.fetcher.Text(ctx, url)
		if err != nil {
			a.logger.Warn("Whitepaper download failed", zap.String("url", url), zap.Error(err))
		}
		if text = strings.TrimSpace(text); text != "" {
			return truncate(text, a.maxLength)
		}
	}
	return nameOnlyText(project)
}

func (a *Analyzer) fallback(project string) model.Analysis {
	a.mu.Lock()
	sec := securityRange.draw(a.rnd.Float64())
	gro := growthRange.draw(a.rnd.Float64())
	risk := riskRange.draw(a.rnd.Float64())
	tech := techRange.draw(a.rnd.Float64())
	a.mu.Unlock()

	p := fallbackProse(project, sec, gro, risk, tech)
	return model.Analysis{
		ID:             uuid.NewString(),
		Project:        project,
		Security:       p.security,
		Growth:         p.growth,
		Risk:           p.risk,
		Technology:     p.technology,
		Summary:        p.summary,
		SecurityRating: sec,
		GrowthRating:   gro,
		RiskRating:     risk,
		TechRating:     tech,
		Fallback:       true,
		CreatedAt:      a.now().UTC(),
	}
}
