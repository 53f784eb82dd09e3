package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pricewise/offer-service/internal/database"
	"github.com/pricewise/offer-service/internal/jobs"
)

var cleanupDays int

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete historical price observations past the retention window",
	Long: `Run one retention sweep: delete historical price observations older than
the retention window. The server runs the same sweep periodically; this command
exists for manual maintenance and migrations.`,
	Example: `  offer-service cleanup
  offer-service cleanup --days 365`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "Retention window in days (default from config)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	days := cleanupDays
	if days <= 0 {
		days = cfg.Retention.RetentionDays
	}
	if days <= 0 {
		return fmt.Errorf("retention window must be positive, got %d", days)
	}

	history := database.NewHistoryRepository(database.Pool())
	sweeper := jobs.NewRetentionSweeper(history, jobs.RetentionConfig{RetentionDays: days})

	deleted, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		return fmt.Errorf("retention sweep failed: %w", err)
	}

	fmt.Printf("Deleted %d observations older than %d days\n", deleted, days)
	return nil
}
