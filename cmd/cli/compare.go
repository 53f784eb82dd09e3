package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pricewise/offer-service/internal/compare"
	"github.com/pricewise/offer-service/internal/database"
)

var (
	compareStrategy      string
	compareSecondary     []string
	compareMaxResults    int
	compareMinConfidence float64
	compareSort          string
	compareOutput        string
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <itemId>",
	Short: "Rank the offers for an inventory item",
	Long: `Rank all stored offers for an inventory item using a comparison strategy.
Secondary strategies can be blended in with a weight, written as id:weight.

Available strategies: pricePerCanonical, totalPrice, pricePerUnit,
qualityAdjustedPrice, historicalPrice.`,
	Example: `  offer-service compare itm_abc123
  offer-service compare itm_abc123 --strategy totalPrice --sort desc
  offer-service compare itm_abc123 --secondary qualityAdjustedPrice:0.3 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&compareStrategy, "strategy", compare.StrategyPricePerCanonical, "Primary comparison strategy")
	compareCmd.Flags().StringSliceVar(&compareSecondary, "secondary", nil, "Secondary strategies as id:weight")
	compareCmd.Flags().IntVar(&compareMaxResults, "max-results", 0, "Maximum results to return (0 = engine default)")
	compareCmd.Flags().Float64Var(&compareMinConfidence, "min-confidence", 0, "Drop results below this confidence")
	compareCmd.Flags().StringVar(&compareSort, "sort", "asc", "Sort direction: asc or desc")
	compareCmd.Flags().StringVar(&compareOutput, "output", "table", "Output format: table or json")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	engine := buildEngine()

	config := compare.ComparisonConfig{
		PrimaryStrategy: compareStrategy,
		GlobalOptions: compare.GlobalOptions{
			MaxResults:    compareMaxResults,
			MinConfidence: compareMinConfidence,
			SortDirection: compare.SortDirection(compareSort),
		},
	}

	for _, spec := range compareSecondary {
		secondary, err := parseSecondary(spec)
		if err != nil {
			return err
		}
		config.SecondaryStrategies = append(config.SecondaryStrategies, secondary)
	}

	results, err := engine.CompareOffers(ctx, args[0], config)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	if compareOutput == "json" {
		return printJSON(results)
	}

	displayComparisonResults(results)
	return nil
}

// buildEngine wires a comparison engine against the connected database.
func buildEngine() *compare.Engine {
	repos := database.NewRepositories(database.Pool())
	return compare.NewEngine(repos, nil, &compare.EngineConfig{
		CacheTTL:             cfg.Engine.CacheTTL,
		CacheMaxEntries:      cfg.Engine.CacheMaxEntries,
		BatchConcurrency:     cfg.Engine.BatchConcurrency,
		DefaultMaxResults:    cfg.Engine.MaxResults,
		DefaultMinConfidence: cfg.Engine.MinConfidence,
	})
}

func parseSecondary(spec string) (compare.SecondaryStrategy, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return compare.SecondaryStrategy{}, fmt.Errorf("invalid secondary strategy %q, expected id:weight", spec)
	}
	var weight float64
	if _, err := fmt.Sscanf(parts[1], "%g", &weight); err != nil {
		return compare.SecondaryStrategy{}, fmt.Errorf("invalid weight in %q: %w", spec, err)
	}
	return compare.SecondaryStrategy{StrategyID: parts[0], Weight: weight}, nil
}

func displayComparisonResults(results *compare.ItemComparisonResults) {
	fmt.Printf("\nItem: %s  (strategy: %s, offers: %d, returned: %d)\n\n",
		results.ItemID,
		results.Metadata.StrategyID,
		results.Metadata.TotalOffers,
		results.Metadata.ReturnedOffers,
	)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tOFFER\tSUPPLIER\tSCORE\tCONFIDENCE\tFLAGS")
	for i, r := range results.Results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%.2f\t%s\n",
			i+1, r.Offer.ID, r.Offer.SupplierID, r.Score,
			r.Metadata.Confidence, strings.Join(r.Metadata.Flags, ","))
	}
	w.Flush()

	if results.BestOffer != nil {
		fmt.Printf("\nBest offer: %s (%s)\n", results.BestOffer.Offer.ID, results.BestOffer.Metadata.Explanation)
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
