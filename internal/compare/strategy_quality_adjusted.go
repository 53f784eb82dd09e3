package compare

import (
	"context"
	"fmt"

	"github.com/pricewise/offer-service/internal/pricing"
)

// QualityAdjustedComparator blends unit price with the offer's quality
// rating. Higher quality lowers the effective score, so a slightly more
// expensive but better-rated offer can win.
type QualityAdjustedComparator struct{}

// NewQualityAdjustedComparator returns the quality-weighted strategy.
func NewQualityAdjustedComparator() *QualityAdjustedComparator {
	return &QualityAdjustedComparator{}
}

func (c *QualityAdjustedComparator) ID() string   { return StrategyQualityAdjusted }
func (c *QualityAdjustedComparator) Name() string { return "Quality-adjusted price" }
func (c *QualityAdjustedComparator) Description() string {
	return "Ranks offers by unit price discounted by the 1-5 quality rating under configurable weights"
}
func (c *QualityAdjustedComparator) Version() string { return "1.0.0" }

func (c *QualityAdjustedComparator) DefaultOptions() Options {
	return Options{
		"qualityWeight":           0.3,
		"priceWeight":             0.7,
		"qualityAdjustmentFactor": 1.0,
	}
}

func (c *QualityAdjustedComparator) ValidateOptions(opts Options) ValidationResult {
	for _, key := range []string{"qualityWeight", "priceWeight", "qualityAdjustmentFactor"} {
		if res, ok := checkNumber(opts, key, 0, 1); !ok {
			return res
		}
	}
	return valid()
}

func (c *QualityAdjustedComparator) Compare(ctx context.Context, offer *pricing.Offer, allOffers []*pricing.Offer, item *pricing.InventoryItem, suppliers map[string]*pricing.Supplier, opts Options) (*ComparisonResult, error) {
	qualityWeight := optFloat(opts, "qualityWeight", 0.3)
	priceWeight := optFloat(opts, "priceWeight", 0.7)
	factor := optFloat(opts, "qualityAdjustmentFactor", 1.0)

	result := &ComparisonResult{
		Offer: offer,
		Metadata: ResultMetadata{
			StrategyID: c.ID(),
			Confidence: 1,
		},
	}

	unitPrice := offer.EffectivePricePerCanonical(true, true)
	if offer.AmountCanonical <= 0 {
		result.Metadata.Flags = append(result.Metadata.Flags, FlagMissingCanonicalAmount)
		result.Metadata.Confidence = 0.3
		result.Metadata.Explanation = "offer has no canonical amount; score defaults to 0"
		return result, nil
	}

	rating := offer.QualityRating
	if rating < 1 || rating > 5 {
		// Unrated offers compare at the neutral midpoint.
		rating = 3
		result.Metadata.Flags = append(result.Metadata.Flags, FlagUnrated)
		result.Metadata.Confidence = 0.7
	}

	// Normalized quality in [0, 1], scaled by the adjustment factor. The
	// quality-weighted share of the price shrinks with quality; a perfect
	// rating at factor 1 removes that share entirely.
	q := float64(rating-1) / 4 * factor
	totalWeight := priceWeight + qualityWeight
	if totalWeight == 0 {
		totalWeight = 1
	}
	result.Score = unitPrice * (priceWeight + qualityWeight*(1-q)) / totalWeight

	result.Metadata.Explanation = fmt.Sprintf(
		"unit price %.4f adjusted to %.4f for quality rating %d/5",
		unitPrice, result.Score, rating,
	)
	return result, nil
}
