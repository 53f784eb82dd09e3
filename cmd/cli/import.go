package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pricewise/offer-service/internal/database"
	"github.com/pricewise/offer-service/internal/importer"
)

var (
	importSheet  string
	importOutput string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import historical prices from an xlsx export",
	Long: `Import historical price observations from an xlsx spreadsheet. The sheet
needs itemId, price and observedAt columns; quantity, unit, currency, supplierId,
source, confidence and note are optional. Rows with unusable required fields are
skipped and reported; recoverable problems fall back to defaults and are reported
as warnings.`,
	Example: `  offer-service import ./history.xlsx
  offer-service import ./history.xlsx --sheet "Prices 2026"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importSheet, "sheet", "", "Worksheet name (default: first sheet)")
	importCmd.Flags().StringVar(&importOutput, "output", "table", "Output format: table or json")
}

func runImport(cmd *cobra.Command, args []string) error {
	history := database.NewHistoryRepository(database.Pool())

	imp := importer.New(history)
	if importSheet != "" {
		imp = imp.WithSheet(importSheet)
	}

	result, err := imp.ImportFile(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if importOutput == "json" {
		return printJSON(result)
	}

	displayImportResult(result)
	return nil
}

func displayImportResult(result *importer.Result) {
	fmt.Printf("\nRows: %d total, %d valid, %d inserted\n", result.TotalRows, result.ValidRows, result.Inserted)

	if len(result.Errors) > 0 {
		fmt.Printf("\nSkipped rows (%d):\n", len(result.Errors))
		displayIssues(result.Errors)
	}
	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		displayIssues(result.Warnings)
	}
}

func displayIssues(issues []importer.RowIssue) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROW\tFIELD\tPROBLEM\tVALUE")
	for _, issue := range issues {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", issue.Row, issue.Field, issue.Message, issue.Value)
	}
	w.Flush()
}
