package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"CoinScope/internal/retry"
)

// DefaultBaseURL is the public Telegram Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	baseURL  string
	botToken string
	chatID   string
	client   *http.Client
	policy   retry.Policy
	logger   *zap.Logger
}

// NewTelegramNotifier creates a notifier. An empty baseURL uses the public
// API and a nil client gets a 30s timeout.
func NewTelegramNotifier(baseURL, botToken, chatID string, client *http.Client, policy retry.Policy, logger *zap.Logger) *TelegramNotifier {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &TelegramNotifier{
		baseURL:  strings.TrimRight(baseURL, "/"),
		botToken: botToken,
		chatID:   chatID,
		client:   client,
		policy:   policy,
		logger:   logger,
	}
}

// Enabled reports whether credentials are configured.
func (t *TelegramNotifier) Enabled() bool {
	return t.botToken != "" && t.chatID != ""
}

func (t *TelegramNotifier) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.botToken, name)
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.method("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &retry.StatusError{StatusCode: resp.StatusCode, URL: "telegram sendMessage", Body: string(respBody)}
	}
	return nil
}

// SendWithRetry sends a message under the notifier's retry policy.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string) error {
	p := t.policy
	p.Notify = func(err error, wait time.Duration) {
		t.logger.Warn("Telegram send failed, retrying", zap.Duration("wait", wait), zap.Error(err))
	}
	if err := retry.Do(ctx, p, func(ctx context.Context) error { return t.Send(ctx, text) }); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
