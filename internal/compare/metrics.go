package compare

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// comparisonDuration tracks the time taken per comparison by strategy.
	comparisonDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "compare_duration_seconds",
		Help:    "Time taken for offer comparison by primary strategy",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	}, []string{"strategy"})

	// comparisonErrors tracks failed comparisons by strategy.
	comparisonErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compare_errors_total",
		Help: "Total number of comparison errors by primary strategy",
	}, []string{"strategy"})

	// resultCacheHits tracks result cache hits.
	resultCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compare_cache_hits_total",
		Help: "Total number of comparison result cache hits",
	})

	// resultCacheMisses tracks result cache misses.
	resultCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compare_cache_misses_total",
		Help: "Total number of comparison result cache misses",
	})

	// resultCacheEvictions tracks evictions from the result cache.
	resultCacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compare_cache_evictions_total",
		Help: "Total number of result cache evictions by cause",
	}, []string{"cause"}) // cause: ttl, capacity

	// offersCompared tracks the distribution of offer set sizes.
	offersCompared = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "compare_offers_count",
		Help:    "Number of offers scored per comparison",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})

	// batchSize tracks the distribution of batch comparison sizes.
	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "compare_batch_items_count",
		Help:    "Number of items per batch comparison request",
		Buckets: []float64{1, 2, 5, 10, 20, 50},
	})

	// batchItemErrors tracks per-item failures inside batch comparisons.
	batchItemErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compare_batch_item_errors_total",
		Help: "Total number of failed items inside batch comparisons",
	})

	// strategyUsage tracks which strategies are requested.
	strategyUsage = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compare_strategy_usage_total",
		Help: "Total comparisons by primary strategy and role",
	}, []string{"strategy", "role"}) // role: primary, secondary
)

// MetricsRecorder provides methods to record comparison engine metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordComparison records a single-item comparison run.
func (m *MetricsRecorder) RecordComparison(strategy string, duration time.Duration, success bool) {
	comparisonDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if !success {
		comparisonErrors.WithLabelValues(strategy).Inc()
	}
}

// RecordCacheHit records a result cache hit.
func (m *MetricsRecorder) RecordCacheHit() { resultCacheHits.Inc() }

// RecordCacheMiss records a result cache miss.
func (m *MetricsRecorder) RecordCacheMiss() { resultCacheMisses.Inc() }

// RecordCacheEviction records a cache eviction with its cause.
func (m *MetricsRecorder) RecordCacheEviction(cause string) {
	resultCacheEvictions.WithLabelValues(cause).Inc()
}

// RecordOfferCount records the number of offers scored in one run.
func (m *MetricsRecorder) RecordOfferCount(count int) {
	offersCompared.Observe(float64(count))
}

// RecordBatchSize records the number of items in a batch request.
func (m *MetricsRecorder) RecordBatchSize(size int) {
	batchSize.Observe(float64(size))
}

// RecordBatchItemError records one failed item inside a batch.
func (m *MetricsRecorder) RecordBatchItemError() { batchItemErrors.Inc() }

// RecordStrategyUsage records a strategy being exercised in a role.
func (m *MetricsRecorder) RecordStrategyUsage(strategy, role string) {
	strategyUsage.WithLabelValues(strategy, role).Inc()
}
