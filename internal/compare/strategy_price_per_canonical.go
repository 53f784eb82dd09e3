package compare

import (
	"context"
	"fmt"

	"github.com/pricewise/offer-service/internal/pricing"
)

// Strategy ids. Kept as constants so configs and tests reference one spelling.
const (
	StrategyPricePerCanonical = "pricePerCanonical"
	StrategyTotalPrice        = "totalPrice"
	StrategyPricePerUnit      = "pricePerUnit"
	StrategyQualityAdjusted   = "qualityAdjustedPrice"
	StrategyHistoricalPrice   = "historicalPrice"
)

// Result flags set by the built-in strategies.
const (
	FlagLowestUnitPrice        = "lowestUnitPrice"
	FlagMissingCanonicalAmount = "missingCanonicalAmount"
	FlagMissingDisplayAmount   = "missingDisplayAmount"
	FlagUnrated                = "unrated"
	FlagNoHistory              = "noHistory"
	FlagBelowHistoricalAverage = "belowHistoricalAverage"
	FlagAboveHistoricalAverage = "aboveHistoricalAverage"
)

// PricePerCanonicalComparator scores offers by effective price per canonical
// unit, the default way to compare differently packaged offers.
type PricePerCanonicalComparator struct{}

// NewPricePerCanonicalComparator returns the canonical unit price strategy.
func NewPricePerCanonicalComparator() *PricePerCanonicalComparator {
	return &PricePerCanonicalComparator{}
}

func (c *PricePerCanonicalComparator) ID() string   { return StrategyPricePerCanonical }
func (c *PricePerCanonicalComparator) Name() string { return "Price per canonical unit" }
func (c *PricePerCanonicalComparator) Description() string {
	return "Ranks offers by effective price per canonical unit, with optional shipping and tax adjustment"
}
func (c *PricePerCanonicalComparator) Version() string { return "1.0.0" }

func (c *PricePerCanonicalComparator) DefaultOptions() Options {
	return Options{
		"includeShipping":   true,
		"includeTax":        true,
		"useEffectivePrice": true,
	}
}

func (c *PricePerCanonicalComparator) ValidateOptions(opts Options) ValidationResult {
	for _, key := range []string{"includeShipping", "includeTax", "useEffectivePrice"} {
		if res, ok := checkBool(opts, key); !ok {
			return res
		}
	}
	return valid()
}

func (c *PricePerCanonicalComparator) Compare(ctx context.Context, offer *pricing.Offer, allOffers []*pricing.Offer, item *pricing.InventoryItem, suppliers map[string]*pricing.Supplier, opts Options) (*ComparisonResult, error) {
	includeShipping := optBool(opts, "includeShipping", true)
	includeTax := optBool(opts, "includeTax", true)
	useEffective := optBool(opts, "useEffectivePrice", true)

	result := &ComparisonResult{
		Offer: offer,
		Metadata: ResultMetadata{
			StrategyID: c.ID(),
			Confidence: 1,
		},
	}

	if offer.AmountCanonical <= 0 {
		result.Metadata.Flags = append(result.Metadata.Flags, FlagMissingCanonicalAmount)
		result.Metadata.Confidence = 0.3
		result.Metadata.Explanation = "offer has no canonical amount; score defaults to 0"
		return result, nil
	}

	var score float64
	switch {
	case useEffective:
		score = offer.EffectivePricePerCanonical(includeShipping, includeTax)
	case includeShipping:
		score = offer.PricePerCanonicalInclShipping
	default:
		score = offer.PricePerCanonicalExclShipping
	}
	result.Score = score

	if isLowestUnitPrice(offer, allOffers, includeShipping, includeTax, useEffective) {
		result.Metadata.Flags = append(result.Metadata.Flags, FlagLowestUnitPrice)
	}

	result.Metadata.Explanation = fmt.Sprintf(
		"%.4f %s per %s (shipping=%t, tax=%t)",
		score, offer.Currency, item.CanonicalUnit, includeShipping, includeTax,
	)
	return result, nil
}

func isLowestUnitPrice(offer *pricing.Offer, all []*pricing.Offer, includeShipping, includeTax, useEffective bool) bool {
	unitPrice := func(o *pricing.Offer) float64 {
		if o.AmountCanonical <= 0 {
			return 0
		}
		if useEffective {
			return o.EffectivePricePerCanonical(includeShipping, includeTax)
		}
		if includeShipping {
			return o.PricePerCanonicalInclShipping
		}
		return o.PricePerCanonicalExclShipping
	}

	own := unitPrice(offer)
	for _, other := range all {
		if other.ID == offer.ID || other.AmountCanonical <= 0 {
			continue
		}
		if unitPrice(other) < own {
			return false
		}
	}
	return true
}
