// Package handlers exposes the comparison engine over HTTP.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricewise/offer-service/internal/compare"
)

// CompareHandlers serves the offer comparison endpoints.
type CompareHandlers struct {
	engine *compare.Engine
}

// NewCompareHandlers creates handlers over a comparison engine.
func NewCompareHandlers(engine *compare.Engine) *CompareHandlers {
	return &CompareHandlers{engine: engine}
}

// CompareOffers ranks the offers for one inventory item.
// POST /compare/:itemId
func (h *CompareHandlers) CompareOffers(c *gin.Context) {
	itemID := c.Param("itemId")

	var config compare.ComparisonConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.engine.CompareOffers(c.Request.Context(), itemID, config)
	if err != nil {
		respondCompareError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// BatchCompareRequest is the body of a batch comparison.
type BatchCompareRequest struct {
	ItemIDs []string                 `json:"itemIds" binding:"required,min=1,max=50"`
	Config  compare.ComparisonConfig `json:"config"`
}

// BatchCompareResponse carries per-item outcomes.
type BatchCompareResponse struct {
	Items []compare.BatchItemResult `json:"items"`
}

// CompareBatch ranks offers for several items concurrently. Items are
// isolated; a failing item reports its error without failing the request.
// POST /compare/batch
func (h *CompareHandlers) CompareBatch(c *gin.Context) {
	var req BatchCompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := h.engine.CompareMultipleItems(c.Request.Context(), req.ItemIDs, req.Config)
	c.JSON(http.StatusOK, BatchCompareResponse{Items: items})
}

// ListStrategies returns the registered comparison strategies.
// GET /strategies
func (h *CompareHandlers) ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": h.engine.AvailableStrategies()})
}

// StrategyDefaultConfig returns a ready-to-use config for one strategy.
// GET /strategies/:id/config
func (h *CompareHandlers) StrategyDefaultConfig(c *gin.Context) {
	config, err := h.engine.DefaultConfig(c.Param("id"))
	if err != nil {
		respondCompareError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// respondCompareError maps engine errors to HTTP statuses.
func respondCompareError(c *gin.Context, err error) {
	var notFound compare.NotFoundError
	var strategyNotFound compare.StrategyNotFoundError
	var invalidConfig compare.InvalidConfigError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &strategyNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &invalidConfig):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comparison failed"})
	}
}
