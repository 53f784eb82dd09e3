package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/pricewise/offer-service/internal/compare"
	"github.com/pricewise/offer-service/internal/middleware"
)

// RouterConfig selects the optional middleware for the API router.
type RouterConfig struct {
	RequireAPIKey     bool
	RequestsPerSecond float64
	BurstSize         int
}

// NewRouter builds the HTTP router for the offer service.
func NewRouter(engine *compare.Engine, history compare.HistoricalPriceRepository, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/")
	if cfg.RequestsPerSecond > 0 {
		api.Use(middleware.RateLimitMiddleware(middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RequestsPerSecond,
			BurstSize:         cfg.BurstSize,
		}))
	}
	if cfg.RequireAPIKey {
		api.Use(middleware.APIKeyAuthMiddleware())
	}

	compareHandlers := NewCompareHandlers(engine)
	api.POST("/compare/:itemId", compareHandlers.CompareOffers)
	api.POST("/compare/batch", compareHandlers.CompareBatch)
	api.GET("/strategies", compareHandlers.ListStrategies)
	api.GET("/strategies/:id/config", compareHandlers.StrategyDefaultConfig)

	trendHandlers := NewTrendHandlers(history)
	api.GET("/trends/:itemId", trendHandlers.GetTrend)
	api.GET("/trends/:itemId/forecast", trendHandlers.GetForecast)
	api.GET("/statistics/:itemId", trendHandlers.GetStatistics)

	return router
}

func requestLogger() gin.HandlerFunc {
	logger := log.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	}
}
