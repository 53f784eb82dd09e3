// Package trend analyzes historical price series: directionality, strength,
// confidence, smoothing, anomaly detection and short-horizon forecasts.
package trend

import (
	"sort"
	"time"

	"github.com/pricewise/offer-service/internal/pricing"
	"github.com/pricewise/offer-service/internal/stats"
)

// Direction classifies the movement of a price series.
type Direction string

const (
	DirectionUp       Direction = "up"
	DirectionDown     Direction = "down"
	DirectionStable   Direction = "stable"
	DirectionVolatile Direction = "volatile"
)

// Thresholds for trend classification. These are load-bearing constants:
// downstream scoring and the prediction fallback both key off them.
const (
	stableSlopeEpsilon  = 0.001
	volatileCoVCutoff   = 0.2
	volatileStrengthMax = 0.3
	strengthMultiplier  = 10.0
)

// PriceTrend is the derived directional summary of a price series.
type PriceTrend struct {
	Direction        Direction          `json:"direction"`
	Strength         float64            `json:"strength"`   // 0..1
	Confidence       float64            `json:"confidence"` // 0..1
	ChangeAmount     float64            `json:"changeAmount"`
	ChangePercentage float64            `json:"changePercentage"`
	StartPrice       float64            `json:"startPrice"`
	EndPrice         float64            `json:"endPrice"`
	Period           pricing.TimePeriod `json:"period"`
	DataPointCount   int                `json:"dataPointCount"`
}

// Options configures a trend analysis run.
type Options struct {
	Period        pricing.TimePeriod
	MinDataPoints int    // minimum observations required, default 2
	SupplierID    string // restrict to one supplier when set
}

// Analyze computes the price trend for a series of observations.
// Fewer points than the minimum returns (nil, nil): insufficient data is a
// valid outcome, not an error. Input ordering is irrelevant; observations are
// sorted by time before analysis.
func Analyze(prices []pricing.HistoricalPrice, opts Options) (*PriceTrend, error) {
	if opts.Period == "" {
		opts.Period = pricing.PeriodAll
	}
	if _, _, err := PeriodBoundaries(opts.Period); err != nil {
		return nil, err
	}

	minPoints := opts.MinDataPoints
	if minPoints < 2 {
		minPoints = 2
	}

	filtered := prices
	if opts.SupplierID != "" {
		filtered = make([]pricing.HistoricalPrice, 0, len(prices))
		for _, p := range prices {
			if p.SupplierID == opts.SupplierID {
				filtered = append(filtered, p)
			}
		}
	}

	if len(filtered) < minPoints {
		return nil, nil
	}

	sorted := sortByTime(filtered)
	values := make([]float64, len(sorted))
	for i, p := range sorted {
		values[i] = p.Price
	}

	startPrice := values[0]
	endPrice := values[len(values)-1]

	slope, rSquared := linearRegression(values)

	trend := &PriceTrend{
		StartPrice:     startPrice,
		EndPrice:       endPrice,
		ChangeAmount:   endPrice - startPrice,
		Period:         opts.Period,
		DataPointCount: len(sorted),
	}
	if startPrice != 0 {
		trend.ChangePercentage = trend.ChangeAmount / startPrice * 100
	}

	switch {
	case slope > -stableSlopeEpsilon && slope < stableSlopeEpsilon:
		trend.Direction = DirectionStable
	case slope > 0:
		trend.Direction = DirectionUp
	default:
		trend.Direction = DirectionDown
	}

	if startPrice != 0 {
		relChange := trend.ChangeAmount / startPrice
		if relChange < 0 {
			relChange = -relChange
		}
		trend.Strength = rSquared * relChange * strengthMultiplier
		if trend.Strength > 1 {
			trend.Strength = 1
		}
	}

	// High variance with a weak fit overrides the regression direction.
	// This can reclassify an up/down trend; the thresholds interact and are
	// replicated exactly rather than tuned.
	if cov := coefficientOfVariation(values); cov > volatileCoVCutoff && trend.Strength < volatileStrengthMax {
		trend.Direction = DirectionVolatile
	}

	trend.Confidence = confidenceScore(sorted)

	return trend, nil
}

// linearRegression fits price against sequence index by least squares and
// returns the slope and coefficient of determination.
func linearRegression(values []float64) (slope, rSquared float64) {
	n := float64(len(values))
	if n < 2 {
		return 0, 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for i, y := range values {
		fitted := intercept + slope*float64(i)
		ssTot += (y - meanY) * (y - meanY)
		ssRes += (y - fitted) * (y - fitted)
	}
	if ssTot == 0 {
		// Constant series: the fit is exact but carries no directional signal.
		return slope, 0
	}
	return slope, 1 - ssRes/ssTot
}

// confidenceScore derives a 0..1 trust score from sample size, recency,
// observation metadata and data density.
func confidenceScore(sorted []pricing.HistoricalPrice) float64 {
	confidence := 0.5
	n := len(sorted)

	// Sample size bonus, capped at +0.3.
	sizeBonus := float64(n) / 20
	if sizeBonus > 0.3 {
		sizeBonus = 0.3
	}
	confidence += sizeBonus

	// Recency bonus from the newest observation.
	age := time.Since(sorted[n-1].ObservedAt)
	switch {
	case age < 7*24*time.Hour:
		confidence += 0.2
	case age < 30*24*time.Hour:
		confidence += 0.1
	}

	// Observation quality: average of recorded metadata confidences,
	// neutral (0.5) when none were recorded.
	var metaSum float64
	metaCount := 0
	for _, p := range sorted {
		if p.Metadata.Confidence > 0 {
			metaSum += p.Metadata.Confidence
			metaCount++
		}
	}
	avgMeta := 0.5
	if metaCount > 0 {
		avgMeta = metaSum / float64(metaCount)
	}
	confidence += (avgMeta - 0.5) * 0.3

	// Sparse series penalty: fewer than 0.1 points per day over the span.
	daySpan := sorted[n-1].ObservedAt.Sub(sorted[0].ObservedAt).Hours() / 24
	if daySpan > 0 && float64(n)/daySpan < 0.1 {
		confidence -= 0.2
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func coefficientOfVariation(values []float64) float64 {
	mean := stats.Mean(values)
	if mean == 0 {
		return 0
	}
	return stats.StdDev(values) / mean
}

// PeriodBoundaries returns the inclusive [start, end] range for a period,
// with the current time as end. PeriodAll starts at year 2000.
func PeriodBoundaries(period pricing.TimePeriod) (start, end time.Time, err error) {
	end = time.Now()
	switch period {
	case pricing.Period1D:
		start = end.AddDate(0, 0, -1)
	case pricing.Period7D:
		start = end.AddDate(0, 0, -7)
	case pricing.Period30D:
		start = end.AddDate(0, 0, -30)
	case pricing.Period90D:
		start = end.AddDate(0, 0, -90)
	case pricing.Period1Y:
		start = end.AddDate(-1, 0, 0)
	case pricing.PeriodAll:
		start = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}, time.Time{}, stats.InvalidDataError{Reason: "unknown time period: " + string(period)}
	}
	return start, end, nil
}

// PeriodDays returns the nominal day span of a period, used to derive daily
// change rates for forecasting.
func PeriodDays(period pricing.TimePeriod) float64 {
	switch period {
	case pricing.Period1D:
		return 1
	case pricing.Period7D:
		return 7
	case pricing.Period30D:
		return 30
	case pricing.Period90D:
		return 90
	case pricing.Period1Y:
		return 365
	default:
		return time.Since(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)).Hours() / 24
	}
}

// FilterByPeriod keeps observations within the period's inclusive boundaries.
func FilterByPeriod(prices []pricing.HistoricalPrice, period pricing.TimePeriod) ([]pricing.HistoricalPrice, error) {
	start, end, err := PeriodBoundaries(period)
	if err != nil {
		return nil, err
	}

	filtered := make([]pricing.HistoricalPrice, 0, len(prices))
	for _, p := range prices {
		if !p.ObservedAt.Before(start) && !p.ObservedAt.After(end) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// Smooth applies a centered moving average after sorting by time.
// Series shorter than the window are returned unchanged.
func Smooth(prices []pricing.HistoricalPrice, windowSize int) []pricing.HistoricalPrice {
	if windowSize <= 0 {
		windowSize = 3
	}
	if len(prices) < windowSize {
		return prices
	}

	sorted := sortByTime(prices)
	half := windowSize / 2
	smoothed := make([]pricing.HistoricalPrice, len(sorted))

	for i := range sorted {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(sorted)-1 {
			hi = len(sorted) - 1
		}

		var sum float64
		for j := lo; j <= hi; j++ {
			sum += sorted[j].Price
		}

		smoothed[i] = sorted[i]
		smoothed[i].Price = sum / float64(hi-lo+1)
	}

	return smoothed
}

// sortByTime returns a copy sorted ascending by observation time.
func sortByTime(prices []pricing.HistoricalPrice) []pricing.HistoricalPrice {
	sorted := make([]pricing.HistoricalPrice, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ObservedAt.Before(sorted[j].ObservedAt)
	})
	return sorted
}
