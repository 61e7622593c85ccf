package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"CoinScope/internal/config"
	"CoinScope/internal/retry"
)

// NewHTTPClient returns an http.Client that routes through proxyURL when set.
func NewHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Client performs rate-limited JSON GET requests against one provider.
type Client struct {
	name     string
	provider config.Provider
	http     *http.Client
	limiter  *rate.Limiter
	policy   retry.Policy
	logger   *zap.Logger
}

// NewClient builds a client for provider. The limiter allows
// provider.RequestLimit requests per provider.RequestWindow.
func NewClient(name string, provider config.Provider, httpClient *http.Client, policy retry.Policy, logger *zap.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if provider.RequestLimit > 0 {
		window := provider.RequestWindow
		if window <= 0 {
			window = time.Minute
		}
		limiter = rate.NewLimiter(rate.Every(window/time.Duration(provider.RequestLimit)), provider.RequestLimit)
	}
	if httpClient == nil {
		httpClient = NewHTTPClient("", 10*time.Second)
	}
	c := &Client{
		name:     name,
		provider: provider,
		http:     httpClient,
		limiter:  limiter,
		policy:   policy,
		logger:   logger.With(zap.String("provider", name)),
	}
	if c.policy.Notify == nil {
		c.policy.Notify = func(err error, wait time.Duration) {
			c.logger.Warn("Request failed, retrying", zap.Error(err), zap.Duration("wait", wait))
		}
	}
	return c
}

func (c *Client) Provider() config.Provider { return c.provider }

// GetJSON requests path (relative to the provider base URL) and decodes the
// JSON body into dst.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, dst any) error {
	u := strings.TrimRight(c.provider.BaseURL, "/") + path
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	if c.provider.APIKey != "" && c.provider.APIKeyParam != "" {
		q.Set(c.provider.APIKeyParam, c.provider.APIKey)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body []byte
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		// A limiter refusal means the deadline is too close to wait out the window.
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limit: %w", err))
		}
		b, err := c.get(ctx, u)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", c.name, path, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%s %s: decode: %w", c.name, path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.provider.APIKey != "" && c.provider.APIKeyHeader != "" {
		req.Header.Set(c.provider.APIKeyHeader, c.provider.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.StatusError{StatusCode: resp.StatusCode, URL: req.URL.Path, Body: truncate(string(body), 200)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
