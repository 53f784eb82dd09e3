package compare

import (
	"context"
	"time"

	"github.com/pricewise/offer-service/internal/pricing"
	"github.com/pricewise/offer-service/internal/stats"
	"github.com/pricewise/offer-service/internal/trend"
)

// Options holds strategy-specific options as decoded JSON. Each strategy
// validates the types of the options it understands; unknown keys are
// ignored so configs stay forward-compatible.
type Options map[string]any

// SortDirection controls result ordering. Lower scores are better for price
// strategies, so ascending is the default.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// GlobalOptions apply to a whole comparison run regardless of strategy.
type GlobalOptions struct {
	MaxResults    int           `json:"maxResults"`
	MinConfidence float64       `json:"minConfidence"`
	SortDirection SortDirection `json:"sortDirection,omitempty"`
}

// SecondaryStrategy contributes a weighted score on top of the primary.
type SecondaryStrategy struct {
	StrategyID string  `json:"strategyId"`
	Weight     float64 `json:"weight"` // 0..1
	Options    Options `json:"options,omitempty"`
}

// ComparisonConfig selects and parameterizes the strategies for a run.
type ComparisonConfig struct {
	PrimaryStrategy     string              `json:"primaryStrategy"`
	StrategyOptions     Options             `json:"strategyOptions,omitempty"`
	SecondaryStrategies []SecondaryStrategy `json:"secondaryStrategies,omitempty"`
	GlobalOptions       GlobalOptions       `json:"globalOptions"`
}

// ResultMetadata explains how a score came to be.
type ResultMetadata struct {
	StrategyID          string                 `json:"strategyId"`
	Explanation         string                 `json:"explanation"`
	Flags               []string               `json:"flags,omitempty"`
	Confidence          float64                `json:"confidence"`
	Trend               *trend.PriceTrend      `json:"trend,omitempty"`
	Statistics          *stats.PriceStatistics `json:"statistics,omitempty"`
	BestHistoricalPrice float64                `json:"bestHistoricalPrice,omitempty"`
}

// ComparisonResult is the per-offer output of a strategy run. Lower scores
// are better under the price strategies.
type ComparisonResult struct {
	Offer    *pricing.Offer `json:"offer"`
	Score    float64        `json:"score"`
	Metadata ResultMetadata `json:"metadata"`
}

// ResultsMetadata summarizes a whole comparison run.
type ResultsMetadata struct {
	TotalOffers     int           `json:"totalOffers"`
	ReturnedOffers  int           `json:"returnedOffers"`
	FilteredOffers  int           `json:"filteredOffers"`
	StrategyID      string        `json:"strategyId"`
	ExecutionTime   time.Duration `json:"executionTime"`
	ComputedAt      time.Time     `json:"computedAt"`
	SuppliersLoaded int           `json:"suppliersLoaded"`
}

// ItemComparisonResults is the aggregate output for one inventory item.
// BestOffer is always the first result after sorting, nil when no offers.
type ItemComparisonResults struct {
	ItemID    string              `json:"itemId"`
	Results   []*ComparisonResult `json:"results"`
	BestOffer *ComparisonResult   `json:"bestOffer"`
	Config    ComparisonConfig    `json:"config"`
	Metadata  ResultsMetadata     `json:"metadata"`
}

// StrategyInfo is the public metadata of a registered strategy.
type StrategyInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// Comparator is a pluggable scoring strategy. Compare receives the full
// offer set so a strategy can score an offer relative to its peers; it must
// never mutate the offers.
type Comparator interface {
	ID() string
	Name() string
	Description() string
	Version() string

	ValidateOptions(opts Options) ValidationResult
	DefaultOptions() Options

	Compare(ctx context.Context, offer *pricing.Offer, allOffers []*pricing.Offer, item *pricing.InventoryItem, suppliers map[string]*pricing.Supplier, opts Options) (*ComparisonResult, error)
}
