// Package stats provides pure numeric aggregates over price series.
// All prices in a series are assumed to share one currency; conversion is
// the caller's responsibility.
package stats

import (
	"math"
	"sort"

	"github.com/pricewise/offer-service/internal/pricing"
)

// InvalidDataError is returned when an input series cannot be analyzed,
// e.g. an empty price list or an unknown time period.
type InvalidDataError struct {
	Reason string
}

func (e InvalidDataError) Error() string {
	return "invalid data: " + e.Reason
}

// PriceStatistics is the aggregate over a price series for a time period.
type PriceStatistics struct {
	Period     pricing.TimePeriod `json:"period"`
	Min        float64            `json:"min"`
	Max        float64            `json:"max"`
	Average    float64            `json:"average"`
	Median     float64            `json:"median"`
	StdDev     float64            `json:"stdDev"`
	Volatility float64            `json:"volatility"`
	Count      int                `json:"count"`
}

// Calculate computes price statistics over the given observations.
// An empty series is an error, never a zeroed result.
func Calculate(prices []pricing.HistoricalPrice, period pricing.TimePeriod) (PriceStatistics, error) {
	if len(prices) == 0 {
		return PriceStatistics{}, InvalidDataError{Reason: "cannot calculate statistics over an empty price series"}
	}

	values := make([]float64, len(prices))
	for i, p := range prices {
		values[i] = p.Price
	}
	return FromValues(values, period)
}

// FromValues computes the same aggregate over raw float values. Used by the
// comparison result statistics, which aggregate scores rather than prices.
func FromValues(values []float64, period pricing.TimePeriod) (PriceStatistics, error) {
	if len(values) == 0 {
		return PriceStatistics{}, InvalidDataError{Reason: "cannot calculate statistics over an empty series"}
	}

	st := PriceStatistics{
		Period: period,
		Count:  len(values),
		Min:    values[0],
		Max:    values[0],
	}

	var sum float64
	for _, v := range values {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		sum += v
	}
	st.Average = sum / float64(len(values))
	st.Median = Median(values)
	st.StdDev = StdDev(values)

	// Coefficient of variation; defined as 0 for a zero average.
	if st.Average != 0 {
		st.Volatility = st.StdDev / st.Average
	}

	return st, nil
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle value, averaging the two central values for
// even-length input. Returns 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
