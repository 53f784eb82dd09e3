package compare

import (
	"fmt"
	"math"

	"github.com/pricewise/offer-service/internal/pricing"
	"github.com/pricewise/offer-service/internal/stats"
)

// PriceDifference describes the gap between two comparison results.
// Percentage is relative to the cheaper score and becomes +Inf when the
// cheaper score is 0; callers render that case, it is not special-cased here.
type PriceDifference struct {
	Absolute      float64           `json:"absolute"`
	Percentage    float64           `json:"percentage"`
	Cheaper       *ComparisonResult `json:"cheaper"`
	MoreExpensive *ComparisonResult `json:"moreExpensive"`
}

// CalculatePriceDifference compares two results' scores.
func CalculatePriceDifference(a, b *ComparisonResult) PriceDifference {
	diff := PriceDifference{
		Absolute:      math.Abs(a.Score - b.Score),
		Cheaper:       a,
		MoreExpensive: b,
	}
	if b.Score < a.Score {
		diff.Cheaper, diff.MoreExpensive = b, a
	}

	if diff.Cheaper.Score == 0 {
		if diff.Absolute == 0 {
			diff.Percentage = 0
		} else {
			diff.Percentage = math.Inf(1)
		}
	} else {
		diff.Percentage = diff.Absolute / diff.Cheaper.Score * 100
	}
	return diff
}

// ResultFilter narrows a result set for display. Zero-valued fields impose
// no constraint; all set predicates are ANDed.
type ResultFilter struct {
	MinConfidence    float64
	MaxPrice         float64 // against the offer's total price
	MinQualityRating int
	IncludeFlags     []string // result must carry all of these
	ExcludeFlags     []string // result must carry none of these
	Suppliers        []string // offer's supplier must be one of these
}

// FilterComparisonResults returns the results passing every set predicate,
// preserving order.
func FilterComparisonResults(results []*ComparisonResult, filter ResultFilter) []*ComparisonResult {
	out := make([]*ComparisonResult, 0, len(results))
	for _, r := range results {
		if filter.MinConfidence > 0 && r.Metadata.Confidence < filter.MinConfidence {
			continue
		}
		if filter.MaxPrice > 0 && r.Offer.TotalPrice > filter.MaxPrice {
			continue
		}
		if filter.MinQualityRating > 0 && r.Offer.QualityRating < filter.MinQualityRating {
			continue
		}
		if !hasAllFlags(r.Metadata.Flags, filter.IncludeFlags) {
			continue
		}
		if hasAnyFlag(r.Metadata.Flags, filter.ExcludeFlags) {
			continue
		}
		if len(filter.Suppliers) > 0 && !containsString(filter.Suppliers, r.Offer.SupplierID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// GroupResultsBySupplier buckets results by supplier id, preserving the
// original relative order within each group.
func GroupResultsBySupplier(results []*ComparisonResult) map[string][]*ComparisonResult {
	groups := make(map[string][]*ComparisonResult)
	for _, r := range results {
		groups[r.Offer.SupplierID] = append(groups[r.Offer.SupplierID], r)
	}
	return groups
}

// ComparisonStatistics aggregates the scores of a result set.
type ComparisonStatistics struct {
	stats.PriceStatistics
	AverageConfidence float64 `json:"averageConfidence"`
	PriceRange        float64 `json:"priceRange"`
}

// CalculateComparisonStatistics computes score statistics plus confidence
// and spread. Empty result sets are an error, matching the stats package.
func CalculateComparisonStatistics(results []*ComparisonResult) (ComparisonStatistics, error) {
	scores := make([]float64, len(results))
	var confidenceSum float64
	for i, r := range results {
		scores[i] = r.Score
		confidenceSum += r.Metadata.Confidence
	}

	base, err := stats.FromValues(scores, pricing.PeriodAll)
	if err != nil {
		return ComparisonStatistics{}, err
	}

	return ComparisonStatistics{
		PriceStatistics:   base,
		AverageConfidence: confidenceSum / float64(len(results)),
		PriceRange:        base.Max - base.Min,
	}, nil
}

// ValidateConfigWith checks a config against a registry: primary first,
// then secondaries, then global options, then strategy-specific options.
func ValidateConfigWith(registry *Registry, config ComparisonConfig) error {
	if config.PrimaryStrategy == "" {
		return InvalidConfigError{Field: "primaryStrategy", Reason: "cannot be empty"}
	}
	primary, ok := registry.Get(config.PrimaryStrategy)
	if !ok {
		return StrategyNotFoundError{StrategyID: config.PrimaryStrategy}
	}

	secondaries := make([]Comparator, len(config.SecondaryStrategies))
	for i, sec := range config.SecondaryStrategies {
		comp, ok := registry.Get(sec.StrategyID)
		if !ok {
			return StrategyNotFoundError{StrategyID: sec.StrategyID}
		}
		if sec.Weight < 0 || sec.Weight > 1 {
			return InvalidConfigError{
				Field:  fmt.Sprintf("secondaryStrategies[%d].weight", i),
				Reason: "must be between 0 and 1",
			}
		}
		secondaries[i] = comp
	}

	if config.GlobalOptions.MaxResults < 1 {
		return InvalidConfigError{Field: "globalOptions.maxResults", Reason: "must be at least 1"}
	}
	if config.GlobalOptions.MinConfidence < 0 || config.GlobalOptions.MinConfidence > 1 {
		return InvalidConfigError{Field: "globalOptions.minConfidence", Reason: "must be between 0 and 1"}
	}
	if dir := config.GlobalOptions.SortDirection; dir != "" && dir != SortAscending && dir != SortDescending {
		return InvalidConfigError{Field: "globalOptions.sortDirection", Reason: `must be "asc" or "desc"`}
	}

	if res := primary.ValidateOptions(config.StrategyOptions); !res.IsValid {
		return InvalidConfigError{Field: "Primary strategy options", Reason: res.Error}
	}
	for i, sec := range config.SecondaryStrategies {
		if res := secondaries[i].ValidateOptions(sec.Options); !res.IsValid {
			return InvalidConfigError{
				Field:  fmt.Sprintf("Secondary strategy %s options", sec.StrategyID),
				Reason: res.Error,
			}
		}
	}

	return nil
}

// CreateSimpleConfig builds a single-strategy config with sensible globals.
func CreateSimpleConfig(strategyID string, opts Options) ComparisonConfig {
	return ComparisonConfig{
		PrimaryStrategy: strategyID,
		StrategyOptions: opts,
		GlobalOptions: GlobalOptions{
			MaxResults:    50,
			MinConfidence: 0.5,
			SortDirection: SortAscending,
		},
	}
}

// MergeComparisonConfigs overlays override onto base: top-level keys are
// replaced when set, option maps are merged per key.
func MergeComparisonConfigs(base, override ComparisonConfig) ComparisonConfig {
	merged := base

	if override.PrimaryStrategy != "" {
		merged.PrimaryStrategy = override.PrimaryStrategy
	}
	merged.StrategyOptions = mergeOptions(base.StrategyOptions, override.StrategyOptions)
	if override.SecondaryStrategies != nil {
		merged.SecondaryStrategies = override.SecondaryStrategies
	}

	if override.GlobalOptions.MaxResults != 0 {
		merged.GlobalOptions.MaxResults = override.GlobalOptions.MaxResults
	}
	if override.GlobalOptions.MinConfidence != 0 {
		merged.GlobalOptions.MinConfidence = override.GlobalOptions.MinConfidence
	}
	if override.GlobalOptions.SortDirection != "" {
		merged.GlobalOptions.SortDirection = override.GlobalOptions.SortDirection
	}

	return merged
}

func mergeOptions(base, override Options) Options {
	if base == nil && override == nil {
		return nil
	}
	merged := make(Options, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// GetStrategyDescription returns the description of a registered strategy,
// empty for unknown ids.
func GetStrategyDescription(registry *Registry, strategyID string) string {
	comp, ok := registry.Get(strategyID)
	if !ok {
		return ""
	}
	return comp.Description()
}

// UseCase names a shopping scenario for strategy suitability checks.
type UseCase string

const (
	UseCasePrice   UseCase = "price"   // pure cheapest-unit shopping
	UseCaseQuality UseCase = "quality" // quality matters more than price
	UseCaseBulk    UseCase = "bulk"    // stocking up on large quantities
	UseCaseRecent  UseCase = "recent"  // is the current price a good moment to buy
)

// strategySuitability is a fixed table; it encodes judgment, not data.
var strategySuitability = map[UseCase]map[string]bool{
	UseCasePrice: {
		StrategyPricePerCanonical: true,
		StrategyTotalPrice:        true,
		StrategyPricePerUnit:      true,
	},
	UseCaseQuality: {
		StrategyQualityAdjusted: true,
	},
	UseCaseBulk: {
		StrategyPricePerCanonical: true,
		StrategyPricePerUnit:      true,
	},
	UseCaseRecent: {
		StrategyHistoricalPrice: true,
	},
}

// IsStrategySuitable reports whether a strategy fits a use case.
func IsStrategySuitable(strategyID string, useCase UseCase) bool {
	table, ok := strategySuitability[useCase]
	if !ok {
		return false
	}
	return table[strategyID]
}

func hasAllFlags(flags, required []string) bool {
	for _, want := range required {
		if !containsString(flags, want) {
			return false
		}
	}
	return true
}

func hasAnyFlag(flags, banned []string) bool {
	for _, b := range banned {
		if containsString(flags, b) {
			return true
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
