package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewise/offer-service/internal/compare"
	"github.com/pricewise/offer-service/internal/pricing"
	"github.com/pricewise/offer-service/internal/stats"
)

type fakeItemRepo struct {
	items map[string]*pricing.InventoryItem
}

func (f *fakeItemRepo) FindByID(ctx context.Context, id string) (*pricing.InventoryItem, error) {
	return f.items[id], nil
}

type fakeOfferRepo struct {
	offers map[string][]*pricing.Offer
}

func (f *fakeOfferRepo) FindWhere(ctx context.Context, filter compare.OfferFilter) ([]*pricing.Offer, error) {
	return f.offers[filter.InventoryItemID], nil
}

type fakeSupplierRepo struct{}

func (f *fakeSupplierRepo) FindAll(ctx context.Context) ([]*pricing.Supplier, error) {
	return []*pricing.Supplier{{ID: "sup-1", Name: "Alpha"}}, nil
}

type fakeHistoryRepo struct {
	history map[string][]pricing.HistoricalPrice
}

func (f *fakeHistoryRepo) FindWhere(ctx context.Context, filter compare.HistoryFilter) ([]pricing.HistoricalPrice, error) {
	return f.history[filter.ItemID], nil
}

func (f *fakeHistoryRepo) BestPrice(ctx context.Context, itemID string, period pricing.TimePeriod) (float64, bool, error) {
	series := f.history[itemID]
	if len(series) == 0 {
		return 0, false, nil
	}
	best := series[0].Price
	for _, h := range series[1:] {
		if h.Price < best {
			best = h.Price
		}
	}
	return best, true, nil
}

func (f *fakeHistoryRepo) Statistics(ctx context.Context, itemID string, period pricing.TimePeriod) (stats.PriceStatistics, error) {
	return stats.Calculate(f.history[itemID], period)
}

func (f *fakeHistoryRepo) CleanupOldData(ctx context.Context, olderThanDays int) (int, error) {
	return 0, nil
}

func setupRouter(t *testing.T, history *fakeHistoryRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	item := &pricing.InventoryItem{ID: "item-1", Name: "Milk", CanonicalUnit: "ml"}
	offers := map[string][]*pricing.Offer{
		"item-1": {
			{
				ID: "offer-a", InventoryItemID: "item-1", SupplierID: "sup-1",
				TotalPrice: 12.0, Amount: 1000, AmountUnit: "ml", AmountCanonical: 1000,
				Currency: "EUR", ShippingIncluded: true, IsTaxIncluded: true,
				ObservedAt: time.Now(),
			},
			{
				ID: "offer-b", InventoryItemID: "item-1", SupplierID: "sup-1",
				TotalPrice: 8.0, Amount: 1000, AmountUnit: "ml", AmountCanonical: 1000,
				Currency: "EUR", ShippingIncluded: true, IsTaxIncluded: true,
				ObservedAt: time.Now(),
			},
		},
	}

	repos := compare.Repositories{
		Items:     &fakeItemRepo{items: map[string]*pricing.InventoryItem{"item-1": item}},
		Offers:    &fakeOfferRepo{offers: offers},
		Suppliers: &fakeSupplierRepo{},
		History:   history,
	}
	engine := compare.NewEngine(repos, nil, nil)

	return NewRouter(engine, history, RouterConfig{})
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getPath(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCompareOffersEndpoint(t *testing.T) {
	router := setupRouter(t, &fakeHistoryRepo{})

	w := postJSON(t, router, "/compare/item-1", compare.ComparisonConfig{
		PrimaryStrategy: "totalPrice",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var response compare.ItemComparisonResults
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "item-1", response.ItemID)
	require.Len(t, response.Results, 2)
	require.NotNil(t, response.BestOffer)
	assert.Equal(t, "offer-b", response.BestOffer.Offer.ID)
	assert.Equal(t, 8.0, response.BestOffer.Score)
}

func TestCompareOffersEndpointUnknownItem(t *testing.T) {
	router := setupRouter(t, &fakeHistoryRepo{})

	w := postJSON(t, router, "/compare/missing", compare.ComparisonConfig{
		PrimaryStrategy: "totalPrice",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "missing")
}

func TestCompareOffersEndpointBadStrategy(t *testing.T) {
	router := setupRouter(t, &fakeHistoryRepo{})

	w := postJSON(t, router, "/compare/item-1", compare.ComparisonConfig{
		PrimaryStrategy: "astrology",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "astrology")
}

func TestCompareBatchEndpoint(t *testing.T) {
	router := setupRouter(t, &fakeHistoryRepo{})

	w := postJSON(t, router, "/compare/batch", BatchCompareRequest{
		ItemIDs: []string{"item-1", "missing"},
		Config:  compare.ComparisonConfig{PrimaryStrategy: "totalPrice"},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var response BatchCompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Items, 2)

	assert.Empty(t, response.Items[0].Error)
	require.NotNil(t, response.Items[0].Results)
	assert.Contains(t, response.Items[1].Error, "not found")
}

func TestCompareBatchEndpointRejectsEmptyList(t *testing.T) {
	router := setupRouter(t, &fakeHistoryRepo{})

	w := postJSON(t, router, "/compare/batch", BatchCompareRequest{
		ItemIDs: []string{},
		Config:  compare.ComparisonConfig{PrimaryStrategy: "totalPrice"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListStrategiesEndpoint(t *testing.T) {
	router := setupRouter(t, &fakeHistoryRepo{})

	w := getPath(t, router, "/strategies")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Strategies []compare.StrategyInfo `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Strategies, 5)
}

func TestStrategyDefaultConfigEndpoint(t *testing.T) {
	router := setupRouter(t, &fakeHistoryRepo{})

	w := getPath(t, router, "/strategies/totalPrice/config")
	assert.Equal(t, http.StatusOK, w.Code)

	var config compare.ComparisonConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &config))
	assert.Equal(t, "totalPrice", config.PrimaryStrategy)
	assert.Equal(t, 50, config.GlobalOptions.MaxResults)

	w = getPath(t, router, "/strategies/astrology/config")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTrendEndpoint(t *testing.T) {
	history := &fakeHistoryRepo{history: map[string][]pricing.HistoricalPrice{
		"item-1": {
			{ItemID: "item-1", Price: 10, Quantity: 1, ObservedAt: time.Now().AddDate(0, 0, -20)},
			{ItemID: "item-1", Price: 12, Quantity: 1, ObservedAt: time.Now().AddDate(0, 0, -10)},
			{ItemID: "item-1", Price: 14, Quantity: 1, ObservedAt: time.Now().AddDate(0, 0, -2)},
		},
	}}
	router := setupRouter(t, history)

	w := getPath(t, router, "/trends/item-1?period=90d")
	assert.Equal(t, http.StatusOK, w.Code)

	var response TrendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "item-1", response.ItemID)
	require.NotNil(t, response.Trend)
	assert.Equal(t, "up", string(response.Trend.Direction))
}

func TestGetTrendEndpointSparseHistory(t *testing.T) {
	router := setupRouter(t, &fakeHistoryRepo{})

	w := getPath(t, router, "/trends/item-1")
	assert.Equal(t, http.StatusOK, w.Code)

	var response TrendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Nil(t, response.Trend)
}

func TestGetTrendEndpointBadPeriod(t *testing.T) {
	router := setupRouter(t, &fakeHistoryRepo{})

	w := getPath(t, router, "/trends/item-1?period=2w")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetForecastEndpoint(t *testing.T) {
	history := &fakeHistoryRepo{history: map[string][]pricing.HistoricalPrice{
		"item-1": {
			{ItemID: "item-1", Price: 10, Quantity: 1, ObservedAt: time.Now().AddDate(0, 0, -30)},
			{ItemID: "item-1", Price: 11, Quantity: 1, ObservedAt: time.Now().AddDate(0, 0, -20)},
			{ItemID: "item-1", Price: 12, Quantity: 1, ObservedAt: time.Now().AddDate(0, 0, -10)},
			{ItemID: "item-1", Price: 13, Quantity: 1, ObservedAt: time.Now().AddDate(0, 0, -1)},
		},
	}}
	router := setupRouter(t, history)

	w := getPath(t, router, "/trends/item-1/forecast?days=14")
	assert.Equal(t, http.StatusOK, w.Code)

	var response ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Prediction)
	assert.Equal(t, 14, response.Prediction.DaysAhead)
	assert.Greater(t, response.Prediction.PredictedPrice, 0.0)
}

func TestGetForecastEndpointBadDays(t *testing.T) {
	router := setupRouter(t, &fakeHistoryRepo{})

	w := getPath(t, router, "/trends/item-1/forecast?days=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStatisticsEndpoint(t *testing.T) {
	history := &fakeHistoryRepo{history: map[string][]pricing.HistoricalPrice{
		"item-1": {
			{ItemID: "item-1", Price: 10, Quantity: 1, ObservedAt: time.Now().AddDate(0, 0, -5)},
			{ItemID: "item-1", Price: 14, Quantity: 1, ObservedAt: time.Now().AddDate(0, 0, -3)},
		},
	}}
	router := setupRouter(t, history)

	w := getPath(t, router, "/statistics/item-1")
	assert.Equal(t, http.StatusOK, w.Code)

	var response StatisticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Statistics.Count)
	assert.Equal(t, 10.0, response.Statistics.Min)
	require.NotNil(t, response.BestPrice)
	assert.Equal(t, 10.0, *response.BestPrice)
}

func TestGetStatisticsEndpointEmptyHistory(t *testing.T) {
	router := setupRouter(t, &fakeHistoryRepo{})

	w := getPath(t, router, "/statistics/item-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
