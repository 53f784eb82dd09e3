package trend

import (
	"time"

	"github.com/pricewise/offer-service/internal/pricing"
	"github.com/pricewise/offer-service/internal/stats"
)

// AnomalyType marks whether an outlier sits above or below the series mean.
type AnomalyType string

const (
	AnomalyHigh AnomalyType = "high"
	AnomalyLow  AnomalyType = "low"
)

// Anomaly is a single outlier observation in a price series.
type Anomaly struct {
	Price      float64     `json:"price"`
	ObservedAt time.Time   `json:"observedAt"`
	Type       AnomalyType `json:"type"`
	Deviation  float64     `json:"deviation"` // distance from mean in standard deviations
}

// DefaultAnomalyThreshold is the z-score cutoff for flagging outliers.
const DefaultAnomalyThreshold = 2.0

// DetectAnomalies flags observations whose z-score against the population
// mean exceeds the threshold. Series with fewer than 3 points yield no
// anomalies; there is not enough signal to call anything an outlier.
func DetectAnomalies(prices []pricing.HistoricalPrice, thresholdStdDevs float64) []Anomaly {
	if len(prices) < 3 {
		return nil
	}
	if thresholdStdDevs <= 0 {
		thresholdStdDevs = DefaultAnomalyThreshold
	}

	values := make([]float64, len(prices))
	for i, p := range prices {
		values[i] = p.Price
	}

	mean := stats.Mean(values)
	stdDev := stats.StdDev(values)
	if stdDev == 0 {
		return nil
	}

	var anomalies []Anomaly
	for _, p := range prices {
		z := (p.Price - mean) / stdDev
		if z < 0 {
			z = -z
		}
		if z <= thresholdStdDevs {
			continue
		}

		kind := AnomalyLow
		if p.Price > mean {
			kind = AnomalyHigh
		}
		anomalies = append(anomalies, Anomaly{
			Price:      p.Price,
			ObservedAt: p.ObservedAt,
			Type:       kind,
			Deviation:  z,
		})
	}

	return anomalies
}
