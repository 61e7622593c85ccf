// Package news collects crypto headlines and derives trending topics and
// per-token sentiment from them.
package news

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"CoinScope/internal/collector"
	"CoinScope/internal/model"
)

var errNoArticles = errors.New("no articles returned")

// Provider returns recent articles normalized to model.Article.
type Provider interface {
	Name() string
	Articles(ctx context.Context) ([]model.Article, error)
}

// NewsAPI reads the newsapi.org "everything" endpoint.
type NewsAPI struct {
	client *collector.Client
}

func NewNewsAPI(client *collector.Client) *NewsAPI { return &NewsAPI{client: client} }

func (n *NewsAPI) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (n *NewsAPI) Articles(ctx context.Context) ([]model.Article, error) {
	params := url.Values{}
	params.Set("q", "cryptocurrency OR bitcoin OR ethereum OR blockchain")
	params.Set("sortBy", "popularity")
	params.Set("language", "en")
	params.Set("pageSize", "30")

	var resp newsAPIResponse
	path := n.client.Provider().Endpoint("everything", "/everything")
	if err := n.client.GetJSON(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi: status %q: %s", resp.Status, resp.Message)
	}
	if len(resp.Articles) == 0 {
		return nil, errNoArticles
	}

	out := make([]model.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		out = append(out, model.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: parseTime(a.PublishedAt),
			Source:      a.Source.Name,
		})
	}
	return out, nil
}

// CryptoPanic reads the hot news feed of cryptopanic.com.
type CryptoPanic struct {
	client *collector.Client
}

func NewCryptoPanic(client *collector.Client) *CryptoPanic { return &CryptoPanic{client: client} }

func (c *CryptoPanic) Name() string { return "cryptopanic" }

type cryptoPanicResponse struct {
	Results []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"published_at"`
		Source      struct {
			Title string `json:"title"`
		} `json:"source"`
	} `json:"results"`
}

func (c *CryptoPanic) Articles(ctx context.Context) ([]model.Article, error) {
	params := url.Values{}
	params.Set("kind", "news")
	params.Set("filter", "hot")
	params.Set("public", "true")

	var resp cryptoPanicResponse
	path := c.client.Provider().Endpoint("posts", "/posts/")
	if err := c.client.GetJSON(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, errNoArticles
	}

	out := make([]model.Article, 0, len(resp.Results))
	for _, r := range resp.Results {
		source := r.Source.Title
		if source == "" {
			source = "Crypto News"
		}
		// The feed has no description, the title doubles as one.
		out = append(out, model.Article{
			Title:       r.Title,
			Description: r.Title,
			URL:         r.URL,
			PublishedAt: parseTime(r.PublishedAt),
			Source:      source,
		})
	}
	return out, nil
}

// parseTime accepts RFC 3339 timestamps and returns the zero time otherwise.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
