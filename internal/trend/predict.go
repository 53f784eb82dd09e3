package trend

// Prediction is a short-horizon price forecast derived from a trend.
type Prediction struct {
	PredictedPrice float64         `json:"predictedPrice"`
	Confidence     float64         `json:"confidence"`
	Range          PredictionRange `json:"range"`
	DaysAhead      int             `json:"daysAhead"`
}

// PredictionRange brackets the forecast.
type PredictionRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// DefaultForecastDays is the horizon used when the caller does not pick one.
const DefaultForecastDays = 7

// PredictFuturePrice extrapolates the trend's daily change rate daysAhead
// days forward. Volatile or weak trends are not extrapolated: the forecast
// falls back to the last observed price with low confidence and a ±20% range.
func PredictFuturePrice(t *PriceTrend, daysAhead int) *Prediction {
	if t == nil {
		return nil
	}
	if daysAhead <= 0 {
		daysAhead = DefaultForecastDays
	}

	if t.Direction == DirectionVolatile || t.Strength < volatileStrengthMax {
		return &Prediction{
			PredictedPrice: t.EndPrice,
			Confidence:     0.2,
			Range: PredictionRange{
				Low:  t.EndPrice * 0.8,
				High: t.EndPrice * 1.2,
			},
			DaysAhead: daysAhead,
		}
	}

	dailyChangeRate := t.ChangePercentage / PeriodDays(t.Period)
	predicted := t.EndPrice * (1 + dailyChangeRate/100*float64(daysAhead))

	confidence := t.Confidence * t.Strength
	if confidence > 0.8 {
		confidence = 0.8
	}

	volatility := dailyChangeRate * 0.5
	if volatility < 0 {
		volatility = -volatility
	}

	return &Prediction{
		PredictedPrice: predicted,
		Confidence:     confidence,
		Range: PredictionRange{
			Low:  predicted * (1 - volatility),
			High: predicted * (1 + volatility),
		},
		DaysAhead: daysAhead,
	}
}
