// Package api exposes the dashboard service as JSON over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"CoinScope/internal/dashboard"
)

// NewRouter builds the gin engine with every route under /api.
func NewRouter(svc *dashboard.Service, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Logger(logger))

	h := NewHandler(svc, logger)
	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/timeframes", h.Timeframes)
		api.GET("/market", h.Market)
		api.GET("/overview", h.Overview)
		api.GET("/correlation", h.Correlation)
		api.GET("/history", h.History)

		tokens := api.Group("/tokens")
		tokens.GET("", h.Tokens)
		tokens.GET("/:symbol", h.Token)
		tokens.GET("/:symbol/stats", h.Stats)
		tokens.GET("/:symbol/risk", h.Risk)
		tokens.GET("/:symbol/outliers", h.Outliers)
		tokens.GET("/:symbol/forecast", h.Forecast)

		api.POST("/analysis", h.Analyze)
		api.GET("/analysis/:token", h.AnalysisHistory)

		api.GET("/trending", h.Trending)
		api.GET("/trending/history", h.TrendingHistory)
	}
	return r
}
