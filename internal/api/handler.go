package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"CoinScope/internal/calculator"
	"CoinScope/internal/collector"
	"CoinScope/internal/dashboard"
	"CoinScope/internal/forecast"
	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

const dateLayout = "2006-01-02"

// Handler serves the dashboard endpoints.
type Handler struct {
	svc    *dashboard.Service
	logger *zap.Logger
}

func NewHandler(svc *dashboard.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// writeError maps service errors to HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, collector.ErrTokenNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dashboard.ErrInvalidInput),
		errors.Is(err, forecast.ErrUnknownModel),
		errors.Is(err, calculator.ErrUnknownColumn):
		status = http.StatusBadRequest
	case errors.Is(err, calculator.ErrInsufficientData),
		errors.Is(err, forecast.ErrInsufficientData):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// timeframe reads the "timeframe" query parameter. Empty selects the
// service default.
func timeframe(c *gin.Context) (model.Timeframe, bool) {
	raw := c.Query("timeframe")
	if raw == "" {
		return "", true
	}
	tf, err := model.ParseTimeframe(raw)
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return tf, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+name+": "+raw)
		return 0, false
	}
	return v, true
}

func listQuery(c *gin.Context, name string) []string {
	var out []string
	for _, part := range strings.Split(c.Query(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

// GET /api/timeframes
func (h *Handler) Timeframes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"timeframes": h.svc.Timeframes(), "default": h.svc.DefaultTimeframe()})
}

// GET /api/tokens
func (h *Handler) Tokens(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tokens": h.svc.Tokens(c.Request.Context())})
}

// GET /api/market?timeframe=
func (h *Handler) Market(c *gin.Context) {
	tf, ok := timeframe(c)
	if !ok {
		return
	}
	view, err := h.svc.Market(c.Request.Context(), tf)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/overview?timeframe=&tokens=BTC,ETH
func (h *Handler) Overview(c *gin.Context) {
	tf, ok := timeframe(c)
	if !ok {
		return
	}
	ov, err := h.svc.Overview(c.Request.Context(), tf, listQuery(c, "tokens"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// GET /api/tokens/:symbol?timeframe=
func (h *Handler) Token(c *gin.Context) {
	tf, ok := timeframe(c)
	if !ok {
		return
	}
	view, err := h.svc.Token(c.Request.Context(), c.Param("symbol"), tf)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/tokens/:symbol/stats?timeframe=
func (h *Handler) Stats(c *gin.Context) {
	tf, ok := timeframe(c)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), c.Param("symbol"), tf)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/tokens/:symbol/risk?timeframe=
func (h *Handler) Risk(c *gin.Context) {
	tf, ok := timeframe(c)
	if !ok {
		return
	}
	risk, err := h.svc.Risk(c.Request.Context(), c.Param("symbol"), tf)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, risk)
}

// GET /api/tokens/:symbol/outliers?column=price&threshold=2.5
func (h *Handler) Outliers(c *gin.Context) {
	tf, ok := timeframe(c)
	if !ok {
		return
	}
	threshold := 3.0
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			badRequest(c, "invalid threshold: "+raw)
			return
		}
		threshold = v
	}
	column := model.Column(c.DefaultQuery("column", string(model.ColPrice)))

	outliers, err := h.svc.Outliers(c.Request.Context(), c.Param("symbol"), tf, column, threshold)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"column": column, "threshold": threshold, "outliers": outliers})
}

// GET /api/tokens/:symbol/forecast?model=ARIMA&horizon=30&timeframe=
func (h *Handler) Forecast(c *gin.Context) {
	tf, ok := timeframe(c)
	if !ok {
		return
	}
	horizon, ok := intQuery(c, "horizon", 0)
	if !ok {
		return
	}
	res, err := h.svc.Forecast(c.Request.Context(), c.Param("symbol"), tf, c.Query("model"), horizon)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/correlation?tokens=BTC,ETH&timeframe=
func (h *Handler) Correlation(c *gin.Context) {
	tf, ok := timeframe(c)
	if !ok {
		return
	}
	m, err := h.svc.Correlation(c.Request.Context(), listQuery(c, "tokens"), tf)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type analyzeRequest struct {
	Project string `json:"project" binding:"required"`
	URL     string `json:"url" binding:"omitempty,url"`
}

// POST /api/analysis
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	res, err := h.svc.Analyze(c.Request.Context(), req.Project, req.URL)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/analysis/:token?type=whitepaper&limit=10
func (h *Handler) AnalysisHistory(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 10)
	if !ok {
		return
	}
	kind := c.DefaultQuery("type", store.AnalysisWhitepaper)
	results, err := h.svc.AnalysisHistory(c.Request.Context(), c.Param("token"), kind, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": c.Param("token"), "type": kind, "results": results})
}

// GET /api/trending
func (h *Handler) Trending(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Trending(c.Request.Context()))
}

// GET /api/trending/history?limit=10
func (h *Handler) TrendingHistory(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 10)
	if !ok {
		return
	}
	results, err := h.svc.TrendingHistory(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GET /api/history?start=2024-01-01&end=2024-01-31
func (h *Handler) History(c *gin.Context) {
	var start, end time.Time
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			badRequest(c, "invalid start date: "+raw)
			return
		}
		start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			badRequest(c, "invalid end date: "+raw)
			return
		}
		// Inclusive of the whole end day.
		end = t.Add(24*time.Hour - time.Second)
	}
	hist, err := h.svc.History(c.Request.Context(), start, end)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}
