// Package pricing defines the domain entities shared by the comparison
// engine, the trend analyzer and the persistence layer.
package pricing

import "time"

// CanonicalDimension is the physical dimension an inventory item is priced in.
type CanonicalDimension string

const (
	DimensionMass   CanonicalDimension = "mass"
	DimensionVolume CanonicalDimension = "volume"
	DimensionCount  CanonicalDimension = "count"
	DimensionLength CanonicalDimension = "length"
	DimensionArea   CanonicalDimension = "area"
)

// InventoryItem is the product being shopped for. All offers for an item are
// compared in its canonical unit.
type InventoryItem struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	CanonicalDimension CanonicalDimension `json:"canonicalDimension"`
	CanonicalUnit      string             `json:"canonicalUnit"`     // e.g. "g", "ml", "piece"
	EquivalenceFactor  float64            `json:"equivalenceFactor"` // multiplier from offer amount to canonical unit
	ShelfLifeSensitive bool               `json:"shelfLifeSensitive"`
	UsageRatePerDay    float64            `json:"usageRatePerDay"` // canonical units consumed per day, 0 if unknown
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// Supplier is a named price source referenced by offers.
type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// OfferSource records how a price quote was captured.
type OfferSource string

const (
	OfferSourceManual OfferSource = "manual"
	OfferSourceURL    OfferSource = "url"
	OfferSourceOCR    OfferSource = "ocr"
	OfferSourceAPI    OfferSource = "api"
)

// Offer is a supplier's price quote for an inventory item at a point in time.
// Offers are immutable once compared; comparators never mutate them.
type Offer struct {
	ID               string      `json:"id"`
	InventoryItemID  string      `json:"inventoryItemId"`
	SupplierID       string      `json:"supplierId"`
	TotalPrice       float64     `json:"totalPrice"`
	Amount           float64     `json:"amount"`
	AmountUnit       string      `json:"amountUnit"`
	AmountCanonical  float64     `json:"amountCanonical"` // Amount converted to the item's canonical unit
	Currency         string      `json:"currency"`
	ShippingCost     float64     `json:"shippingCost"`
	ShippingIncluded bool        `json:"shippingIncluded"`
	IsTaxIncluded    bool        `json:"isTaxIncluded"`
	TaxRate          float64     `json:"taxRate"`       // fraction, e.g. 0.25
	QualityRating    int         `json:"qualityRating"` // 1..5, 0 when unrated
	Source           OfferSource `json:"source"`
	ObservedAt       time.Time   `json:"observedAt"`

	// Precomputed unit prices. PricePerCanonicalExclShipping and the
	// shipping-inclusive variant are derived at capture time.
	PricePerCanonicalExclShipping float64 `json:"pricePerCanonicalExclShipping"`
	PricePerCanonicalInclShipping float64 `json:"pricePerCanonicalInclShipping"`
}

// EffectivePricePerCanonical returns the price per canonical unit with
// shipping and tax applied according to the flags.
func (o *Offer) EffectivePricePerCanonical(includeShipping, includeTax bool) float64 {
	if o.AmountCanonical <= 0 {
		return 0
	}
	total := o.TotalPrice
	if includeShipping && !o.ShippingIncluded {
		total += o.ShippingCost
	}
	if includeTax && !o.IsTaxIncluded && o.TaxRate > 0 {
		total *= 1 + o.TaxRate
	}
	return total / o.AmountCanonical
}

// PricePerDisplayUnit returns the price per the offer's own packaging unit,
// without canonical conversion.
func (o *Offer) PricePerDisplayUnit() float64 {
	if o.Amount <= 0 {
		return 0
	}
	return o.TotalPrice / o.Amount
}

// TimePeriod selects how far back a price series query reaches.
type TimePeriod string

const (
	Period1D  TimePeriod = "1d"
	Period7D  TimePeriod = "7d"
	Period30D TimePeriod = "30d"
	Period90D TimePeriod = "90d"
	Period1Y  TimePeriod = "1y"
	PeriodAll TimePeriod = "all"
)

// HistoricalPriceSource records where a history observation came from.
type HistoricalPriceSource string

const (
	HistorySourceOffer      HistoricalPriceSource = "offer"
	HistorySourceManual     HistoricalPriceSource = "manual"
	HistorySourceAggregated HistoricalPriceSource = "aggregated"
)

// HistoricalPrice is one observed price point in an item's time series,
// optionally scoped to a supplier. Immutable once recorded; the only mutation
// is deletion during retention cleanup.
type HistoricalPrice struct {
	ID         string                  `json:"id"`
	ItemID     string                  `json:"itemId"`
	SupplierID string                  `json:"supplierId,omitempty"` // empty when not supplier-scoped
	Price      float64                 `json:"price"`
	Currency   string                  `json:"currency"`
	Unit       string                  `json:"unit"`
	Quantity   float64                 `json:"quantity"`
	Source     HistoricalPriceSource   `json:"source"`
	ObservedAt time.Time               `json:"observedAt"`
	Metadata   HistoricalPriceMetadata `json:"metadata"`
}

// HistoricalPriceMetadata carries optional observation quality hints.
type HistoricalPriceMetadata struct {
	Confidence float64 `json:"confidence,omitempty"` // 0..1, 0 means unset
	Note       string  `json:"note,omitempty"`
}
