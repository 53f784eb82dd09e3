package compare

import (
	"context"
	"fmt"

	"github.com/pricewise/offer-service/internal/pricing"
	"github.com/pricewise/offer-service/internal/stats"
	"github.com/pricewise/offer-service/internal/trend"
)

// HistoricalPriceComparator scores an offer against the item's price
// history: a score below 1 means cheaper than the historical average. It is
// the only strategy that loads data during Compare.
type HistoricalPriceComparator struct {
	history HistoricalPriceRepository
}

// NewHistoricalPriceComparator returns the history-relative strategy.
func NewHistoricalPriceComparator(history HistoricalPriceRepository) *HistoricalPriceComparator {
	return &HistoricalPriceComparator{history: history}
}

func (c *HistoricalPriceComparator) ID() string   { return StrategyHistoricalPrice }
func (c *HistoricalPriceComparator) Name() string { return "Historical price" }
func (c *HistoricalPriceComparator) Description() string {
	return "Ranks offers relative to the item's historical price distribution and trend"
}
func (c *HistoricalPriceComparator) Version() string { return "1.0.0" }

func (c *HistoricalPriceComparator) DefaultOptions() Options {
	return Options{
		"period":         string(pricing.Period90D),
		"supplierScoped": false,
	}
}

func (c *HistoricalPriceComparator) ValidateOptions(opts Options) ValidationResult {
	if res, ok := checkString(opts, "period"); !ok {
		return res
	}
	if period := optString(opts, "period", string(pricing.Period90D)); period != "" {
		if _, _, err := trend.PeriodBoundaries(pricing.TimePeriod(period)); err != nil {
			return invalid("period must be one of 1d, 7d, 30d, 90d, 1y, all")
		}
	}
	if res, ok := checkBool(opts, "supplierScoped"); !ok {
		return res
	}
	return valid()
}

func (c *HistoricalPriceComparator) Compare(ctx context.Context, offer *pricing.Offer, allOffers []*pricing.Offer, item *pricing.InventoryItem, suppliers map[string]*pricing.Supplier, opts Options) (*ComparisonResult, error) {
	period := pricing.TimePeriod(optString(opts, "period", string(pricing.Period90D)))
	supplierScoped := optBool(opts, "supplierScoped", false)

	filter := HistoryFilter{ItemID: offer.InventoryItemID, Period: period}
	if supplierScoped {
		filter.SupplierID = offer.SupplierID
	}

	history, err := c.history.FindWhere(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("loading price history for item %s: %w", offer.InventoryItemID, err)
	}

	result := &ComparisonResult{
		Offer: offer,
		Metadata: ResultMetadata{
			StrategyID: c.ID(),
		},
	}

	offerUnit := offer.EffectivePricePerCanonical(true, true)

	if len(history) == 0 {
		// No history is a valid outcome; the offer compares at par with
		// low confidence so fresher strategies can outrank it.
		result.Score = 1
		result.Metadata.Confidence = 0.2
		result.Metadata.Flags = append(result.Metadata.Flags, FlagNoHistory)
		result.Metadata.Explanation = "no historical observations in period " + string(period)
		return result, nil
	}

	normalized := normalizeHistory(history)

	st, err := stats.Calculate(normalized, period)
	if err != nil {
		return nil, err
	}
	result.Metadata.Statistics = &st
	result.Metadata.BestHistoricalPrice = st.Min

	if st.Average > 0 {
		result.Score = offerUnit / st.Average
	} else {
		result.Score = 1
	}

	tr, err := trend.Analyze(normalized, trend.Options{Period: period})
	if err != nil {
		return nil, err
	}
	result.Metadata.Trend = tr

	if tr != nil {
		result.Metadata.Confidence = tr.Confidence
	} else {
		// A single observation gives a usable baseline but weak evidence.
		result.Metadata.Confidence = 0.3
	}

	switch {
	case result.Score < 1:
		result.Metadata.Flags = append(result.Metadata.Flags, FlagBelowHistoricalAverage)
	case result.Score > 1:
		result.Metadata.Flags = append(result.Metadata.Flags, FlagAboveHistoricalAverage)
	}

	result.Metadata.Explanation = fmt.Sprintf(
		"offer at %.4f vs historical average %.4f over %s (%d observations)",
		offerUnit, st.Average, period, st.Count,
	)
	return result, nil
}

// normalizeHistory converts observations to unit prices so offers with
// different pack sizes compare against the same baseline.
func normalizeHistory(history []pricing.HistoricalPrice) []pricing.HistoricalPrice {
	normalized := make([]pricing.HistoricalPrice, len(history))
	for i, h := range history {
		normalized[i] = h
		if h.Quantity > 0 {
			normalized[i].Price = h.Price / h.Quantity
		}
	}
	return normalized
}
