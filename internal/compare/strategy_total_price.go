package compare

import (
	"context"
	"fmt"

	"github.com/pricewise/offer-service/internal/pricing"
)

// TotalPriceComparator scores offers by their sticker price, ignoring unit
// economics. Useful when all offers are the same package size.
type TotalPriceComparator struct{}

// NewTotalPriceComparator returns the total price strategy.
func NewTotalPriceComparator() *TotalPriceComparator {
	return &TotalPriceComparator{}
}

func (c *TotalPriceComparator) ID() string   { return StrategyTotalPrice }
func (c *TotalPriceComparator) Name() string { return "Total price" }
func (c *TotalPriceComparator) Description() string {
	return "Ranks offers by total price without unit normalization; intended for same-size offers"
}
func (c *TotalPriceComparator) Version() string { return "1.0.0" }

func (c *TotalPriceComparator) DefaultOptions() Options {
	return Options{"includeShipping": false}
}

func (c *TotalPriceComparator) ValidateOptions(opts Options) ValidationResult {
	if res, ok := checkBool(opts, "includeShipping"); !ok {
		return res
	}
	return valid()
}

func (c *TotalPriceComparator) Compare(ctx context.Context, offer *pricing.Offer, allOffers []*pricing.Offer, item *pricing.InventoryItem, suppliers map[string]*pricing.Supplier, opts Options) (*ComparisonResult, error) {
	score := offer.TotalPrice
	if optBool(opts, "includeShipping", false) && !offer.ShippingIncluded {
		score += offer.ShippingCost
	}

	return &ComparisonResult{
		Offer: offer,
		Score: score,
		Metadata: ResultMetadata{
			StrategyID:  c.ID(),
			Confidence:  1,
			Explanation: fmt.Sprintf("total price %.2f %s", score, offer.Currency),
		},
	}, nil
}
