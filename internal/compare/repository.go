package compare

import (
	"context"
	"time"

	"github.com/pricewise/offer-service/internal/pricing"
	"github.com/pricewise/offer-service/internal/stats"
)

// OfferFilter narrows an offer query. Zero-valued fields are ignored.
type OfferFilter struct {
	InventoryItemID string
	SupplierID      string
	ObservedAfter   time.Time
}

// HistoryFilter narrows a historical-price query.
type HistoryFilter struct {
	ItemID     string
	SupplierID string // empty = all suppliers
	Period     pricing.TimePeriod
	Source     pricing.HistoricalPriceSource // empty = all sources
}

// InventoryItemRepository loads inventory items.
// FindByID returns (nil, nil) when the item does not exist.
type InventoryItemRepository interface {
	FindByID(ctx context.Context, id string) (*pricing.InventoryItem, error)
}

// OfferRepository loads price offers.
type OfferRepository interface {
	FindWhere(ctx context.Context, filter OfferFilter) ([]*pricing.Offer, error)
}

// SupplierRepository loads suppliers for grouping and display.
type SupplierRepository interface {
	FindAll(ctx context.Context) ([]*pricing.Supplier, error)
}

// HistoricalPriceRepository provides time-series access for the historical
// strategy and the trend endpoints. CleanupOldData is the only mutating call
// the trend subsystem participates in.
type HistoricalPriceRepository interface {
	FindWhere(ctx context.Context, filter HistoryFilter) ([]pricing.HistoricalPrice, error)
	BestPrice(ctx context.Context, itemID string, period pricing.TimePeriod) (float64, bool, error)
	Statistics(ctx context.Context, itemID string, period pricing.TimePeriod) (stats.PriceStatistics, error)
	CleanupOldData(ctx context.Context, olderThanDays int) (int, error)
}

// Repositories bundles the injected collaborators the engine depends on.
type Repositories struct {
	Items     InventoryItemRepository
	Offers    OfferRepository
	Suppliers SupplierRepository
	History   HistoricalPriceRepository
}
