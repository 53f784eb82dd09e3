package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pricewise/offer-service/internal/compare"
	"github.com/pricewise/offer-service/internal/database"
	"github.com/pricewise/offer-service/internal/pricing"
	"github.com/pricewise/offer-service/internal/trend"
)

var (
	trendPeriod       string
	trendSupplier     string
	trendForecastDays int
	trendOutput       string
)

// trendCmd represents the trend command
var trendCmd = &cobra.Command{
	Use:   "trend <itemId>",
	Short: "Analyze the price trend of an inventory item",
	Long: `Analyze the historical price trend of an inventory item over a period:
direction, strength, confidence, anomalies and a short-horizon forecast.

Supported periods: 1d, 7d, 30d, 90d, 1y, all.`,
	Example: `  offer-service trend itm_abc123
  offer-service trend itm_abc123 --period 30d --forecast-days 14
  offer-service trend itm_abc123 --supplier sup_xyz --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runTrend,
}

func init() {
	rootCmd.AddCommand(trendCmd)

	trendCmd.Flags().StringVar(&trendPeriod, "period", string(pricing.Period90D), "Analysis period")
	trendCmd.Flags().StringVar(&trendSupplier, "supplier", "", "Restrict analysis to one supplier")
	trendCmd.Flags().IntVar(&trendForecastDays, "forecast-days", trend.DefaultForecastDays, "Forecast horizon in days")
	trendCmd.Flags().StringVar(&trendOutput, "output", "table", "Output format: table or json")
}

func runTrend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	itemID := args[0]
	period := pricing.TimePeriod(trendPeriod)

	history := database.NewHistoryRepository(database.Pool())

	observations, err := history.FindWhere(ctx, compare.HistoryFilter{
		ItemID:     itemID,
		SupplierID: trendSupplier,
		Period:     period,
	})
	if err != nil {
		return fmt.Errorf("loading price history: %w", err)
	}

	result, err := trend.Analyze(observations, trend.Options{
		Period:     period,
		SupplierID: trendSupplier,
	})
	if err != nil {
		return fmt.Errorf("trend analysis failed: %w", err)
	}

	if result == nil {
		fmt.Printf("Not enough observations for %s in period %s (%d found, need at least 2)\n",
			itemID, period, len(observations))
		return nil
	}

	anomalies := trend.DetectAnomalies(observations, trend.DefaultAnomalyThreshold)
	prediction := trend.PredictFuturePrice(result, trendForecastDays)

	if trendOutput == "json" {
		return printJSON(map[string]any{
			"itemId":     itemID,
			"trend":      result,
			"anomalies":  anomalies,
			"prediction": prediction,
		})
	}

	displayTrend(itemID, result, anomalies, prediction)
	return nil
}

func displayTrend(itemID string, t *trend.PriceTrend, anomalies []trend.Anomaly, p *trend.Prediction) {
	fmt.Printf("\nItem: %s  (period: %s, observations: %d)\n\n", itemID, t.Period, t.DataPointCount)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Direction:\t%s\n", t.Direction)
	fmt.Fprintf(w, "Strength:\t%.2f\n", t.Strength)
	fmt.Fprintf(w, "Confidence:\t%.2f\n", t.Confidence)
	fmt.Fprintf(w, "Start price:\t%.2f\n", t.StartPrice)
	fmt.Fprintf(w, "End price:\t%.2f\n", t.EndPrice)
	fmt.Fprintf(w, "Change:\t%.2f (%.1f%%)\n", t.ChangeAmount, t.ChangePercentage)
	w.Flush()

	if len(anomalies) > 0 {
		fmt.Printf("\nAnomalies (%d):\n", len(anomalies))
		aw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(aw, "DATE\tPRICE\tTYPE\tDEVIATION")
		for _, a := range anomalies {
			fmt.Fprintf(aw, "%s\t%.2f\t%s\t%.1f\n",
				a.ObservedAt.Format("2006-01-02"), a.Price, a.Type, a.Deviation)
		}
		aw.Flush()
	}

	if p != nil {
		fmt.Printf("\nForecast (+%d days): %.2f  [%.2f – %.2f]  confidence %.2f\n",
			p.DaysAhead, p.PredictedPrice, p.Range.Low, p.Range.High, p.Confidence)
	}
}
