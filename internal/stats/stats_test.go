package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewise/offer-service/internal/pricing"
)

func series(values ...float64) []pricing.HistoricalPrice {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := make([]pricing.HistoricalPrice, len(values))
	for i, v := range values {
		prices[i] = pricing.HistoricalPrice{
			ItemID:     "item-1",
			Price:      v,
			Currency:   "EUR",
			ObservedAt: base.AddDate(0, 0, i),
		}
	}
	return prices
}

// TestCalculateEmptySeriesFails verifies that an empty series is an error,
// not a zeroed result.
func TestCalculateEmptySeriesFails(t *testing.T) {
	_, err := Calculate(nil, pricing.Period30D)
	require.Error(t, err)
	assert.IsType(t, InvalidDataError{}, err)

	_, err = Calculate([]pricing.HistoricalPrice{}, pricing.Period30D)
	require.Error(t, err)
}

func TestCalculateBasicAggregates(t *testing.T) {
	st, err := Calculate(series(10, 12, 11, 13), pricing.Period30D)
	require.NoError(t, err)

	assert.Equal(t, 4, st.Count)
	assert.Equal(t, 10.0, st.Min)
	assert.Equal(t, 13.0, st.Max)
	assert.Equal(t, 11.5, st.Average)
	assert.Equal(t, 11.5, st.Median) // (11 + 12) / 2
	assert.Equal(t, pricing.Period30D, st.Period)
}

func TestMedianOddCount(t *testing.T) {
	st, err := Calculate(series(30, 10, 20), pricing.Period7D)
	require.NoError(t, err)
	assert.Equal(t, 20.0, st.Median)
}

// TestStatisticsOrderingInvariants checks min <= median <= max and
// min <= average <= max over several series.
func TestStatisticsOrderingInvariants(t *testing.T) {
	cases := [][]float64{
		{5},
		{1, 1, 1, 1},
		{3.5, 9.99, 0.01, 4.2, 7},
		{100, 1, 50, 2, 99, 3},
	}

	for _, values := range cases {
		st, err := Calculate(series(values...), pricing.PeriodAll)
		require.NoError(t, err)
		assert.LessOrEqual(t, st.Min, st.Median)
		assert.LessOrEqual(t, st.Median, st.Max)
		assert.LessOrEqual(t, st.Min, st.Average)
		assert.LessOrEqual(t, st.Average, st.Max)
	}
}

func TestVolatilityZeroAverage(t *testing.T) {
	st, err := Calculate(series(0, 0, 0), pricing.Period7D)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.Volatility)
	assert.Equal(t, 0.0, st.StdDev)
}

func TestVolatilityIsCoefficientOfVariation(t *testing.T) {
	st, err := Calculate(series(10, 10, 10, 10), pricing.Period7D)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.Volatility)

	st, err = Calculate(series(10, 20), pricing.Period7D)
	require.NoError(t, err)
	// mean 15, population stddev 5, volatility 1/3
	assert.InDelta(t, 5.0/15.0, st.Volatility, 1e-9)
}

func TestStdDevPopulation(t *testing.T) {
	// Population stddev of {2, 4, 4, 4, 5, 5, 7, 9} is exactly 2.
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_ = Median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}
