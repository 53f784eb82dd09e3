package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pricewise/offer-service/internal/compare"
	"github.com/pricewise/offer-service/internal/pricing"
	"github.com/pricewise/offer-service/internal/stats"
	"github.com/pricewise/offer-service/internal/trend"
)

// TrendHandlers serves price history analysis endpoints.
type TrendHandlers struct {
	history compare.HistoricalPriceRepository
}

// NewTrendHandlers creates handlers over the history repository.
func NewTrendHandlers(history compare.HistoricalPriceRepository) *TrendHandlers {
	return &TrendHandlers{history: history}
}

// TrendResponse is the payload of the trend endpoint. Trend is null when
// the item has too few observations in the period.
type TrendResponse struct {
	ItemID    string            `json:"itemId"`
	Trend     *trend.PriceTrend `json:"trend"`
	Anomalies []trend.Anomaly   `json:"anomalies,omitempty"`
}

// GetTrend analyzes the price trend of an item over a period.
// GET /trends/:itemId?period=90d&supplierId=&minPoints=
func (h *TrendHandlers) GetTrend(c *gin.Context) {
	itemID := c.Param("itemId")
	period := pricing.TimePeriod(c.DefaultQuery("period", string(pricing.Period90D)))

	minPoints := 0
	if raw := c.Query("minPoints"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minPoints must be an integer of at least 2"})
			return
		}
		minPoints = parsed
	}

	history, ok := h.loadHistory(c, itemID, period, c.Query("supplierId"))
	if !ok {
		return
	}

	result, err := trend.Analyze(history, trend.Options{
		Period:        period,
		MinDataPoints: minPoints,
		SupplierID:    c.Query("supplierId"),
	})
	if err != nil {
		respondTrendError(c, err)
		return
	}

	response := TrendResponse{ItemID: itemID, Trend: result}
	if result != nil {
		response.Anomalies = trend.DetectAnomalies(history, trend.DefaultAnomalyThreshold)
	}
	c.JSON(http.StatusOK, response)
}

// ForecastResponse is the payload of the forecast endpoint. Prediction is
// null when no trend could be established.
type ForecastResponse struct {
	ItemID     string            `json:"itemId"`
	Trend      *trend.PriceTrend `json:"trend"`
	Prediction *trend.Prediction `json:"prediction"`
}

// GetForecast extrapolates an item's price over the coming days.
// GET /trends/:itemId/forecast?period=90d&days=7
func (h *TrendHandlers) GetForecast(c *gin.Context) {
	itemID := c.Param("itemId")
	period := pricing.TimePeriod(c.DefaultQuery("period", string(pricing.Period90D)))

	days := trend.DefaultForecastDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer between 1 and 365"})
			return
		}
		days = parsed
	}

	history, ok := h.loadHistory(c, itemID, period, c.Query("supplierId"))
	if !ok {
		return
	}

	result, err := trend.Analyze(history, trend.Options{Period: period, SupplierID: c.Query("supplierId")})
	if err != nil {
		respondTrendError(c, err)
		return
	}

	c.JSON(http.StatusOK, ForecastResponse{
		ItemID:     itemID,
		Trend:      result,
		Prediction: trend.PredictFuturePrice(result, days),
	})
}

// StatisticsResponse aggregates an item's price series.
type StatisticsResponse struct {
	ItemID     string                `json:"itemId"`
	Statistics stats.PriceStatistics `json:"statistics"`
	BestPrice  *float64              `json:"bestPrice,omitempty"`
}

// GetStatistics returns price statistics for an item over a period.
// GET /statistics/:itemId?period=90d
func (h *TrendHandlers) GetStatistics(c *gin.Context) {
	itemID := c.Param("itemId")
	period := pricing.TimePeriod(c.DefaultQuery("period", string(pricing.Period90D)))

	statistics, err := h.history.Statistics(c.Request.Context(), itemID, period)
	if err != nil {
		respondTrendError(c, err)
		return
	}

	response := StatisticsResponse{ItemID: itemID, Statistics: statistics}
	if best, ok, err := h.history.BestPrice(c.Request.Context(), itemID, period); err == nil && ok {
		response.BestPrice = &best
	}
	c.JSON(http.StatusOK, response)
}

// loadHistory fetches an item's observations, responding with an error on
// failure. The bool reports whether the caller may continue.
func (h *TrendHandlers) loadHistory(c *gin.Context, itemID string, period pricing.TimePeriod, supplierID string) ([]pricing.HistoricalPrice, bool) {
	history, err := h.history.FindWhere(c.Request.Context(), compare.HistoryFilter{
		ItemID:     itemID,
		SupplierID: supplierID,
		Period:     period,
	})
	if err != nil {
		respondTrendError(c, err)
		return nil, false
	}
	return history, true
}

// respondTrendError maps analysis errors to HTTP statuses.
func respondTrendError(c *gin.Context, err error) {
	var invalidData stats.InvalidDataError
	if errors.As(err, &invalidData) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "trend analysis failed"})
}
