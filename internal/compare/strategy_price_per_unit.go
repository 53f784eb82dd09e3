package compare

import (
	"context"
	"fmt"

	"github.com/pricewise/offer-service/internal/pricing"
)

// PricePerUnitComparator scores offers by price per display unit, without
// canonical conversion. Only meaningful when all offers share a unit.
type PricePerUnitComparator struct{}

// NewPricePerUnitComparator returns the display unit price strategy.
func NewPricePerUnitComparator() *PricePerUnitComparator {
	return &PricePerUnitComparator{}
}

func (c *PricePerUnitComparator) ID() string   { return StrategyPricePerUnit }
func (c *PricePerUnitComparator) Name() string { return "Price per display unit" }
func (c *PricePerUnitComparator) Description() string {
	return "Ranks offers by price per packaging unit as displayed, without canonical conversion"
}
func (c *PricePerUnitComparator) Version() string { return "1.0.0" }

func (c *PricePerUnitComparator) DefaultOptions() Options {
	return Options{}
}

func (c *PricePerUnitComparator) ValidateOptions(opts Options) ValidationResult {
	return valid()
}

func (c *PricePerUnitComparator) Compare(ctx context.Context, offer *pricing.Offer, allOffers []*pricing.Offer, item *pricing.InventoryItem, suppliers map[string]*pricing.Supplier, opts Options) (*ComparisonResult, error) {
	result := &ComparisonResult{
		Offer: offer,
		Metadata: ResultMetadata{
			StrategyID: c.ID(),
			Confidence: 1,
		},
	}

	if offer.Amount <= 0 {
		result.Metadata.Flags = append(result.Metadata.Flags, FlagMissingDisplayAmount)
		result.Metadata.Confidence = 0.3
		result.Metadata.Explanation = "offer has no display amount; score defaults to 0"
		return result, nil
	}

	result.Score = offer.PricePerDisplayUnit()
	result.Metadata.Explanation = fmt.Sprintf("%.4f %s per %s", result.Score, offer.Currency, offer.AmountUnit)

	// Mixed display units across the offer set make this score misleading.
	for _, other := range allOffers {
		if other.ID != offer.ID && other.AmountUnit != offer.AmountUnit {
			result.Metadata.Confidence = 0.5
			result.Metadata.Explanation += " (offer set mixes display units)"
			break
		}
	}

	return result, nil
}
