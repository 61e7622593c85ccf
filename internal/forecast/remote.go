package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"CoinScope/internal/config"
	"CoinScope/internal/retry"
)

// Remote talks to an external model server that hosts the neural and
// seasonal models.
type Remote struct {
	baseURL string
	http    *http.Client
	policy  retry.Policy
	logger  *zap.Logger
}

// NewRemote returns a client for the server at baseURL. An empty baseURL
// yields models that always report ErrModelUnavailable.
func NewRemote(baseURL string, httpClient *http.Client, policy retry.Policy, logger *zap.Logger) *Remote {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		policy:  policy,
		logger:  logger,
	}
}

// Model binds a model name and its hyperparameters to the server.
func (r *Remote) Model(name string, params any) Forecaster {
	return remoteModel{remote: r, name: name, params: params}
}

type remoteModel struct {
	remote *Remote
	name   string
	params any
}

type forecastRequest struct {
	Model   string        `json:"model"`
	Horizon int           `json:"horizon"`
	History []Observation `json:"history"`
	Params  any           `json:"params,omitempty"`
}

type forecastResponse struct {
	PredictedPrice []float64  `json:"predicted_price"`
	UpperBound     []float64  `json:"upper_bound"`
	LowerBound     []float64  `json:"lower_bound"`
	Accuracy       null.Float `json:"accuracy"`
}

type lstmRequestParams struct {
	Units      int     `json:"units"`
	Layers     int     `json:"layers"`
	Dropout    float64 `json:"dropout"`
	Epochs     int     `json:"epochs"`
	BatchSize  int     `json:"batch_size"`
	WindowSize int     `json:"window_size"`
}

type prophetRequestParams struct {
	ChangepointPriorScale float64 `json:"changepoint_prior_scale"`
	SeasonalityMode       string  `json:"seasonality_mode"`
	YearlySeasonality     bool    `json:"yearly_seasonality"`
	WeeklySeasonality     bool    `json:"weekly_seasonality"`
	DailySeasonality      bool    `json:"daily_seasonality"`
}

func lstmParams(c config.LSTMConfig) lstmRequestParams {
	return lstmRequestParams{
		Units:      c.Units,
		Layers:     c.Layers,
		Dropout:    c.Dropout,
		Epochs:     c.Epochs,
		BatchSize:  c.BatchSize,
		WindowSize: c.WindowSize,
	}
}

func prophetParams(c config.ProphetConfig) prophetRequestParams {
	return prophetRequestParams{
		ChangepointPriorScale: c.ChangepointPriorScale,
		SeasonalityMode:       c.SeasonalityMode,
		YearlySeasonality:     c.YearlySeasonality,
		WeeklySeasonality:     c.WeeklySeasonality,
		DailySeasonality:      c.DailySeasonality,
	}
}

func (m remoteModel) Forecast(ctx context.Context, history []Observation, horizon int) (Raw, error) {
	if m.remote.baseURL == "" {
		return Raw{}, fmt.Errorf("%s: %w: no model server configured", m.name, ErrModelUnavailable)
	}
	body, err := json.Marshal(forecastRequest{Model: m.name, Horizon: horizon, History: history, Params: m.params})
	if err != nil {
		return Raw{}, fmt.Errorf("encode %s request: %w", m.name, err)
	}

	var resp forecastResponse
	err = retry.Do(ctx, m.remote.policy, func(ctx context.Context) error {
		return m.remote.post(ctx, "/v1/forecast", body, &resp)
	})
	if err != nil {
		return Raw{}, fmt.Errorf("%s: %w: %w", m.name, ErrModelUnavailable, err)
	}
	return Raw{
		Predicted: resp.PredictedPrice,
		Upper:     resp.UpperBound,
		Lower:     resp.LowerBound,
		Accuracy:  resp.Accuracy,
	}, nil
}

func (r *Remote) post(ctx context.Context, path string, body []byte, dst any) error {
	u := r.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return &retry.StatusError{StatusCode: resp.StatusCode, URL: u, Body: string(b)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
