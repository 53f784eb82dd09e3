package compare

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pricewise/offer-service/internal/pricing"
)

// EngineConfig contains the tuning knobs for the comparison engine.
type EngineConfig struct {
	CacheTTL         time.Duration // how long cached results remain valid
	CacheMaxEntries  int           // bound on cached (item, config) pairs
	BatchConcurrency int           // concurrent item comparisons in a batch

	DefaultMaxResults    int
	DefaultMinConfidence float64
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		CacheTTL:             5 * time.Minute,
		CacheMaxEntries:      256,
		BatchConcurrency:     4,
		DefaultMaxResults:    50,
		DefaultMinConfidence: 0.5,
	}
}

// Engine orchestrates offer comparisons: it validates configs, loads data
// through the injected repositories, runs the selected strategies and caches
// the sorted results.
type Engine struct {
	repos    Repositories
	registry *Registry
	config   *EngineConfig
	cache    *resultCache
	metrics  *MetricsRecorder
	logger   zerolog.Logger
}

// NewEngine creates a comparison engine. A nil registry gets the five
// built-in strategies.
func NewEngine(repos Repositories, registry *Registry, config *EngineConfig) *Engine {
	if config == nil {
		config = DefaultEngineConfig()
	}
	if registry == nil {
		registry = DefaultRegistry(repos.History)
	}
	metrics := NewMetricsRecorder()
	return &Engine{
		repos:    repos,
		registry: registry,
		config:   config,
		cache:    newResultCache(config.CacheMaxEntries, config.CacheTTL, metrics),
		metrics:  metrics,
		logger:   log.With().Str("component", "comparison_engine").Logger(),
	}
}

// CompareOffers ranks all offers for an inventory item under the given
// config. An item with zero offers yields an empty result, not an error.
func (e *Engine) CompareOffers(ctx context.Context, inventoryItemID string, config ComparisonConfig) (*ItemComparisonResults, error) {
	startTime := time.Now()
	success := false
	defer func() {
		e.metrics.RecordComparison(config.PrimaryStrategy, time.Since(startTime), success)
	}()

	e.normalizeConfig(&config)
	if err := e.ValidateConfig(config); err != nil {
		return nil, err
	}

	key, err := cacheKey(inventoryItemID, config)
	if err != nil {
		return nil, err
	}
	if cached := e.cache.Get(key); cached != nil {
		success = true
		return cached, nil
	}

	item, err := e.repos.Items.FindByID(ctx, inventoryItemID)
	if err != nil {
		return nil, fmt.Errorf("loading inventory item %s: %w", inventoryItemID, err)
	}
	if item == nil {
		return nil, NotFoundError{Kind: "inventory item", ID: inventoryItemID}
	}

	offers, err := e.repos.Offers.FindWhere(ctx, OfferFilter{InventoryItemID: inventoryItemID})
	if err != nil {
		return nil, fmt.Errorf("loading offers for item %s: %w", inventoryItemID, err)
	}

	supplierList, err := e.repos.Suppliers.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading suppliers: %w", err)
	}
	suppliers := make(map[string]*pricing.Supplier, len(supplierList))
	for _, s := range supplierList {
		suppliers[s.ID] = s
	}

	e.metrics.RecordOfferCount(len(offers))
	e.metrics.RecordStrategyUsage(config.PrimaryStrategy, "primary")
	for _, sec := range config.SecondaryStrategies {
		e.metrics.RecordStrategyUsage(sec.StrategyID, "secondary")
	}

	results := make([]*ComparisonResult, 0, len(offers))
	for _, offer := range offers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result, err := e.scoreOffer(ctx, offer, offers, item, suppliers, config)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	filtered := 0
	if config.GlobalOptions.MinConfidence > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.Metadata.Confidence >= config.GlobalOptions.MinConfidence {
				kept = append(kept, r)
			} else {
				filtered++
			}
		}
		results = kept
	}

	sortComparisonResults(results, config.GlobalOptions.SortDirection)

	if max := config.GlobalOptions.MaxResults; max > 0 && len(results) > max {
		results = results[:max]
	}

	out := &ItemComparisonResults{
		ItemID:  inventoryItemID,
		Results: results,
		Config:  config,
		Metadata: ResultsMetadata{
			TotalOffers:     len(offers),
			ReturnedOffers:  len(results),
			FilteredOffers:  filtered,
			StrategyID:      config.PrimaryStrategy,
			ExecutionTime:   time.Since(startTime),
			ComputedAt:      time.Now(),
			SuppliersLoaded: len(suppliers),
		},
	}
	if len(results) > 0 {
		out.BestOffer = results[0]
	}

	e.cache.Put(key, out)
	success = true

	e.logger.Debug().
		Str("item", inventoryItemID).
		Str("strategy", config.PrimaryStrategy).
		Int("offers", len(offers)).
		Int("returned", len(results)).
		Dur("duration", time.Since(startTime)).
		Msg("Compared offers")

	return out, nil
}

// scoreOffer runs the primary strategy and folds in weighted secondary
// scores. Comparators never mutate offers, so the loaded set is shared.
func (e *Engine) scoreOffer(ctx context.Context, offer *pricing.Offer, offers []*pricing.Offer, item *pricing.InventoryItem, suppliers map[string]*pricing.Supplier, config ComparisonConfig) (*ComparisonResult, error) {
	primary, _ := e.registry.Get(config.PrimaryStrategy)

	result, err := primary.Compare(ctx, offer, offers, item, suppliers, config.StrategyOptions)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", config.PrimaryStrategy, err)
	}

	for _, sec := range config.SecondaryStrategies {
		comp, _ := e.registry.Get(sec.StrategyID)
		secondary, err := comp.Compare(ctx, offer, offers, item, suppliers, sec.Options)
		if err != nil {
			return nil, fmt.Errorf("secondary strategy %s: %w", sec.StrategyID, err)
		}
		result.Score += sec.Weight * secondary.Score
		result.Metadata.Flags = mergeFlags(result.Metadata.Flags, secondary.Metadata.Flags)
		result.Metadata.Explanation += fmt.Sprintf("; %s contributed %.4f at weight %.2f",
			sec.StrategyID, secondary.Score, sec.Weight)
	}

	return result, nil
}

// BatchItemResult is the per-item outcome of a batch comparison. A failed
// item carries an error message instead of results.
type BatchItemResult struct {
	ItemID  string                 `json:"itemId"`
	Results *ItemComparisonResults `json:"results,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// CompareMultipleItems compares each item concurrently. Items are isolated:
// one failing item never aborts the batch, and the returned slice keeps the
// order of the input ids.
func (e *Engine) CompareMultipleItems(ctx context.Context, inventoryItemIDs []string, config ComparisonConfig) []BatchItemResult {
	e.metrics.RecordBatchSize(len(inventoryItemIDs))

	out := make([]BatchItemResult, len(inventoryItemIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.BatchConcurrency)

	for i, id := range inventoryItemIDs {
		i, id := i, id
		g.Go(func() error {
			results, err := e.CompareOffers(gctx, id, config)
			if err != nil {
				e.metrics.RecordBatchItemError()
				e.logger.Warn().Err(err).Str("item", id).Msg("Batch item comparison failed")
				out[i] = BatchItemResult{ItemID: id, Error: err.Error()}
				return nil
			}
			out[i] = BatchItemResult{ItemID: id, Results: results}
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	return out
}

// AvailableStrategies returns the metadata of the registered strategies.
func (e *Engine) AvailableStrategies() []StrategyInfo {
	return e.registry.Infos()
}

// DefaultConfig returns a ready-to-use config for a strategy: the
// strategy's own defaults plus the engine's global defaults.
func (e *Engine) DefaultConfig(strategyID string) (ComparisonConfig, error) {
	comp, ok := e.registry.Get(strategyID)
	if !ok {
		return ComparisonConfig{}, StrategyNotFoundError{StrategyID: strategyID}
	}
	return ComparisonConfig{
		PrimaryStrategy: strategyID,
		StrategyOptions: comp.DefaultOptions(),
		GlobalOptions: GlobalOptions{
			MaxResults:    e.config.DefaultMaxResults,
			MinConfidence: e.config.DefaultMinConfidence,
			SortDirection: SortAscending,
		},
	}, nil
}

// ValidateConfig checks a comparison config against the registry. An
// invalid config rejects the whole comparison; strategies are never
// silently skipped.
func (e *Engine) ValidateConfig(config ComparisonConfig) error {
	return ValidateConfigWith(e.registry, config)
}

// InvalidateItem drops cached results for an item, e.g. after a new offer
// was captured.
func (e *Engine) InvalidateItem(inventoryItemID string) {
	e.cache.Invalidate(inventoryItemID)
}

// normalizeConfig fills engine defaults for unset global options so the
// zero value of GlobalOptions is usable.
func (e *Engine) normalizeConfig(config *ComparisonConfig) {
	if config.GlobalOptions.MaxResults == 0 {
		config.GlobalOptions.MaxResults = e.config.DefaultMaxResults
	}
	if config.GlobalOptions.SortDirection == "" {
		config.GlobalOptions.SortDirection = SortAscending
	}
}

// sortComparisonResults orders by score (ascending unless reversed), with
// offer id as a deterministic tie-breaker.
func sortComparisonResults(results []*ComparisonResult, direction SortDirection) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			if direction == SortDescending {
				return a.Score > b.Score
			}
			return a.Score < b.Score
		}
		return a.Offer.ID < b.Offer.ID
	})
}

func mergeFlags(dst, src []string) []string {
	for _, f := range src {
		seen := false
		for _, existing := range dst {
			if existing == f {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, f)
		}
	}
	return dst
}
