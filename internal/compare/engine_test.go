package compare

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewise/offer-service/internal/pricing"
	"github.com/pricewise/offer-service/internal/stats"
)

// mockItemRepo serves inventory items from a map and counts calls so tests
// can assert cache behavior.
type mockItemRepo struct {
	items map[string]*pricing.InventoryItem
	calls int
}

func (m *mockItemRepo) FindByID(ctx context.Context, id string) (*pricing.InventoryItem, error) {
	m.calls++
	return m.items[id], nil
}

type mockOfferRepo struct {
	offers map[string][]*pricing.Offer
	calls  int
}

func (m *mockOfferRepo) FindWhere(ctx context.Context, filter OfferFilter) ([]*pricing.Offer, error) {
	m.calls++
	return m.offers[filter.InventoryItemID], nil
}

type mockSupplierRepo struct {
	suppliers []*pricing.Supplier
	calls     int
}

func (m *mockSupplierRepo) FindAll(ctx context.Context) ([]*pricing.Supplier, error) {
	m.calls++
	return m.suppliers, nil
}

type mockHistoryRepo struct {
	history map[string][]pricing.HistoricalPrice
	calls   int
}

func (m *mockHistoryRepo) FindWhere(ctx context.Context, filter HistoryFilter) ([]pricing.HistoricalPrice, error) {
	m.calls++
	var out []pricing.HistoricalPrice
	for _, h := range m.history[filter.ItemID] {
		if filter.SupplierID != "" && h.SupplierID != filter.SupplierID {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (m *mockHistoryRepo) BestPrice(ctx context.Context, itemID string, period pricing.TimePeriod) (float64, bool, error) {
	series := m.history[itemID]
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

func (m *mockHistoryRepo) Statistics(ctx context.Context, itemID string, period pricing.TimePeriod) (stats.PriceStatistics, error) {
	return stats.Calculate(m.history[itemID], period)
}

func (m *mockHistoryRepo) CleanupOldData(ctx context.Context, olderThanDays int) (int, error) {
	return 0, nil
}

func testItem(id string) *pricing.InventoryItem {
	return &pricing.InventoryItem{
		ID:                 id,
		Name:               "Test item",
		CanonicalDimension: pricing.DimensionMass,
		CanonicalUnit:      "g",
		EquivalenceFactor:  1,
	}
}

func testOffer(id, itemID, supplierID string, totalPrice, amountCanonical float64) *pricing.Offer {
	return &pricing.Offer{
		ID:               id,
		InventoryItemID:  itemID,
		SupplierID:       supplierID,
		TotalPrice:       totalPrice,
		Amount:           amountCanonical,
		AmountUnit:       "g",
		AmountCanonical:  amountCanonical,
		Currency:         "EUR",
		ShippingIncluded: true,
		IsTaxIncluded:    true,
		Source:           pricing.OfferSourceManual,
		ObservedAt:       time.Now(),
	}
}

func newTestEngine(offers map[string][]*pricing.Offer) (*Engine, *mockItemRepo, *mockOfferRepo) {
	items := &mockItemRepo{items: map[string]*pricing.InventoryItem{}}
	for itemID := range offers {
		items.items[itemID] = testItem(itemID)
	}
	offerRepo := &mockOfferRepo{offers: offers}
	repos := Repositories{
		Items:     items,
		Offers:    offerRepo,
		Suppliers: &mockSupplierRepo{suppliers: []*pricing.Supplier{{ID: "sup-1", Name: "Alpha"}, {ID: "sup-2", Name: "Beta"}}},
		History:   &mockHistoryRepo{history: map[string][]pricing.HistoricalPrice{}},
	}
	return NewEngine(repos, nil, nil), items, offerRepo
}

func totalPriceConfig() ComparisonConfig {
	return ComparisonConfig{
		PrimaryStrategy: StrategyTotalPrice,
		GlobalOptions:   GlobalOptions{MaxResults: 50, SortDirection: SortAscending},
	}
}

func TestCompareOffersNoOffers(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{"item-1": nil})

	results, err := engine.CompareOffers(context.Background(), "item-1", totalPriceConfig())
	require.NoError(t, err)

	assert.Empty(t, results.Results)
	assert.Nil(t, results.BestOffer)
	assert.Equal(t, 0, results.Metadata.TotalOffers)
	assert.Equal(t, 0, results.Metadata.ReturnedOffers)
}

func TestCompareOffersUnknownStrategy(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{"item-1": nil})

	config := totalPriceConfig()
	config.PrimaryStrategy = "bogusStrategy"

	_, err := engine.CompareOffers(context.Background(), "item-1", config)
	require.Error(t, err)

	var notFound StrategyNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "bogusStrategy", notFound.StrategyID)
	assert.Contains(t, err.Error(), "bogusStrategy")
}

func TestCompareOffersItemNotFound(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{})

	_, err := engine.CompareOffers(context.Background(), "missing", totalPriceConfig())
	require.Error(t, err)

	var notFound NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ID)
}

func TestCompareOffersSortAscending(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{
		"item-1": {
			testOffer("offer-a", "item-1", "sup-1", 12.0, 1),
			testOffer("offer-b", "item-1", "sup-2", 8.0, 1),
		},
	})

	results, err := engine.CompareOffers(context.Background(), "item-1", totalPriceConfig())
	require.NoError(t, err)
	require.Len(t, results.Results, 2)

	assert.Equal(t, 8.0, results.Results[0].Score)
	assert.Equal(t, 12.0, results.Results[1].Score)
	require.NotNil(t, results.BestOffer)
	assert.Equal(t, "offer-b", results.BestOffer.Offer.ID)
}

func TestCompareOffersSortDescending(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{
		"item-1": {
			testOffer("offer-a", "item-1", "sup-1", 12.0, 1),
			testOffer("offer-b", "item-1", "sup-2", 8.0, 1),
		},
	})

	config := totalPriceConfig()
	config.GlobalOptions.SortDirection = SortDescending

	results, err := engine.CompareOffers(context.Background(), "item-1", config)
	require.NoError(t, err)
	require.NotNil(t, results.BestOffer)
	assert.Equal(t, 12.0, results.BestOffer.Score)
	assert.Equal(t, "offer-a", results.BestOffer.Offer.ID)
}

func TestCompareOffersCacheHit(t *testing.T) {
	engine, items, offers := newTestEngine(map[string][]*pricing.Offer{
		"item-1": {testOffer("offer-a", "item-1", "sup-1", 10.0, 2)},
	})
	config := totalPriceConfig()

	first, err := engine.CompareOffers(context.Background(), "item-1", config)
	require.NoError(t, err)
	second, err := engine.CompareOffers(context.Background(), "item-1", config)
	require.NoError(t, err)

	assert.Equal(t, 1, items.calls, "item repo should be hit exactly once")
	assert.Equal(t, 1, offers.calls, "offer repo should be hit exactly once")
	assert.Same(t, first, second)
}

func TestCompareOffersDifferentConfigsBypassCache(t *testing.T) {
	engine, items, _ := newTestEngine(map[string][]*pricing.Offer{
		"item-1": {testOffer("offer-a", "item-1", "sup-1", 10.0, 2)},
	})

	_, err := engine.CompareOffers(context.Background(), "item-1", totalPriceConfig())
	require.NoError(t, err)

	config := totalPriceConfig()
	config.StrategyOptions = Options{"includeShipping": true}
	_, err = engine.CompareOffers(context.Background(), "item-1", config)
	require.NoError(t, err)

	assert.Equal(t, 2, items.calls)
}

func TestCompareOffersInvalidateItem(t *testing.T) {
	engine, items, _ := newTestEngine(map[string][]*pricing.Offer{
		"item-1": {testOffer("offer-a", "item-1", "sup-1", 10.0, 2)},
	})
	config := totalPriceConfig()

	_, err := engine.CompareOffers(context.Background(), "item-1", config)
	require.NoError(t, err)

	engine.InvalidateItem("item-1")

	_, err = engine.CompareOffers(context.Background(), "item-1", config)
	require.NoError(t, err)
	assert.Equal(t, 2, items.calls)
}

func TestCompareOffersMinConfidenceFilter(t *testing.T) {
	withCanonical := testOffer("offer-a", "item-1", "sup-1", 10.0, 2)
	missingCanonical := testOffer("offer-b", "item-1", "sup-2", 8.0, 0)

	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{
		"item-1": {withCanonical, missingCanonical},
	})

	config := ComparisonConfig{
		PrimaryStrategy: StrategyPricePerCanonical,
		GlobalOptions:   GlobalOptions{MaxResults: 50, MinConfidence: 0.5},
	}

	results, err := engine.CompareOffers(context.Background(), "item-1", config)
	require.NoError(t, err)

	require.Len(t, results.Results, 1)
	assert.Equal(t, "offer-a", results.Results[0].Offer.ID)
	assert.Equal(t, 2, results.Metadata.TotalOffers)
	assert.Equal(t, 1, results.Metadata.FilteredOffers)
}

func TestCompareOffersMaxResultsTruncation(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{
		"item-1": {
			testOffer("offer-a", "item-1", "sup-1", 10.0, 1),
			testOffer("offer-b", "item-1", "sup-2", 8.0, 1),
			testOffer("offer-c", "item-1", "sup-1", 9.0, 1),
		},
	})

	config := totalPriceConfig()
	config.GlobalOptions.MaxResults = 2

	results, err := engine.CompareOffers(context.Background(), "item-1", config)
	require.NoError(t, err)

	assert.Len(t, results.Results, 2)
	assert.Equal(t, 3, results.Metadata.TotalOffers)
	assert.Equal(t, 2, results.Metadata.ReturnedOffers)
	assert.Equal(t, 8.0, results.Results[0].Score)
	assert.Equal(t, 9.0, results.Results[1].Score)
}

func TestCompareOffersSecondaryStrategyWeighting(t *testing.T) {
	// Primary scores the sticker price of 10; the secondary unit price is
	// 10 / 5 = 2, contributing 0.5 * 2 = 1 on top.
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{
		"item-1": {testOffer("offer-a", "item-1", "sup-1", 10.0, 5)},
	})

	config := totalPriceConfig()
	config.SecondaryStrategies = []SecondaryStrategy{
		{StrategyID: StrategyPricePerCanonical, Weight: 0.5},
	}

	results, err := engine.CompareOffers(context.Background(), "item-1", config)
	require.NoError(t, err)
	require.Len(t, results.Results, 1)

	assert.InDelta(t, 11.0, results.Results[0].Score, 1e-9)
	assert.Contains(t, results.Results[0].Metadata.Explanation, StrategyPricePerCanonical)
}

func TestCompareOffersTieBreakByOfferID(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{
		"item-1": {
			testOffer("offer-z", "item-1", "sup-1", 10.0, 1),
			testOffer("offer-a", "item-1", "sup-2", 10.0, 1),
		},
	})

	results, err := engine.CompareOffers(context.Background(), "item-1", totalPriceConfig())
	require.NoError(t, err)
	require.Len(t, results.Results, 2)

	assert.Equal(t, "offer-a", results.Results[0].Offer.ID)
	assert.Equal(t, "offer-z", results.Results[1].Offer.ID)
}

func TestCompareOffersCancelledContext(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{
		"item-1": {testOffer("offer-a", "item-1", "sup-1", 10.0, 1)},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.CompareOffers(ctx, "item-1", totalPriceConfig())
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompareMultipleItemsIsolation(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{
		"item-1": {testOffer("offer-a", "item-1", "sup-1", 10.0, 1)},
		"item-2": {testOffer("offer-b", "item-2", "sup-2", 5.0, 1)},
	})

	out := engine.CompareMultipleItems(context.Background(),
		[]string{"item-1", "missing", "item-2"}, totalPriceConfig())
	require.Len(t, out, 3)

	assert.Equal(t, "item-1", out[0].ItemID)
	assert.Empty(t, out[0].Error)
	require.NotNil(t, out[0].Results)
	assert.Equal(t, 10.0, out[0].Results.BestOffer.Score)

	assert.Equal(t, "missing", out[1].ItemID)
	assert.Nil(t, out[1].Results)
	assert.Contains(t, out[1].Error, "not found")

	assert.Equal(t, "item-2", out[2].ItemID)
	assert.Empty(t, out[2].Error)
	require.NotNil(t, out[2].Results)
	assert.Equal(t, 5.0, out[2].Results.BestOffer.Score)
}

func TestAvailableStrategies(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{})

	infos := engine.AvailableStrategies()
	require.Len(t, infos, 5)

	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Description)
		assert.NotEmpty(t, info.Version)
	}
	assert.Equal(t, []string{
		StrategyPricePerCanonical,
		StrategyTotalPrice,
		StrategyPricePerUnit,
		StrategyQualityAdjusted,
		StrategyHistoricalPrice,
	}, ids)
}

func TestDefaultConfig(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{})

	config, err := engine.DefaultConfig(StrategyPricePerCanonical)
	require.NoError(t, err)
	assert.Equal(t, StrategyPricePerCanonical, config.PrimaryStrategy)
	assert.Equal(t, true, config.StrategyOptions["includeShipping"])
	assert.Equal(t, 50, config.GlobalOptions.MaxResults)
	assert.Equal(t, 0.5, config.GlobalOptions.MinConfidence)
	assert.Equal(t, SortAscending, config.GlobalOptions.SortDirection)

	_, err = engine.DefaultConfig("nope")
	var notFound StrategyNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestValidateConfig(t *testing.T) {
	engine, _, _ := newTestEngine(map[string][]*pricing.Offer{})

	base := func() ComparisonConfig {
		return ComparisonConfig{
			PrimaryStrategy: StrategyTotalPrice,
			GlobalOptions:   GlobalOptions{MaxResults: 10, MinConfidence: 0.5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ComparisonConfig)
		wantErr string
	}{
		{
			name:   "valid config passes",
			mutate: func(c *ComparisonConfig) {},
		},
		{
			name:    "empty primary strategy",
			mutate:  func(c *ComparisonConfig) { c.PrimaryStrategy = "" },
			wantErr: "primaryStrategy",
		},
		{
			name:    "unknown secondary strategy",
			mutate:  func(c *ComparisonConfig) { c.SecondaryStrategies = []SecondaryStrategy{{StrategyID: "nope", Weight: 0.5}} },
			wantErr: "nope",
		},
		{
			name: "secondary weight above 1",
			mutate: func(c *ComparisonConfig) {
				c.SecondaryStrategies = []SecondaryStrategy{{StrategyID: StrategyPricePerUnit, Weight: 1.5}}
			},
			wantErr: "weight",
		},
		{
			name:    "zero max results",
			mutate:  func(c *ComparisonConfig) { c.GlobalOptions.MaxResults = 0 },
			wantErr: "maxResults",
		},
		{
			name:    "min confidence above 1",
			mutate:  func(c *ComparisonConfig) { c.GlobalOptions.MinConfidence = 1.5 },
			wantErr: "minConfidence",
		},
		{
			name:    "bad sort direction",
			mutate:  func(c *ComparisonConfig) { c.GlobalOptions.SortDirection = "sideways" },
			wantErr: "sortDirection",
		},
		{
			name:    "non-boolean strategy option",
			mutate:  func(c *ComparisonConfig) { c.StrategyOptions = Options{"includeShipping": "yes"} },
			wantErr: "includeShipping must be a boolean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := base()
			tt.mutate(&config)

			err := engine.ValidateConfig(config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
