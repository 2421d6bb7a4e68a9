package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Prune old score history",
	Long: `Deletes score history older than the retention window. The
window is anchored at the newest calculation date in the table, so the
command is safe to run after downtime.

Example:
  go run ./cmd/funddash cleanup
  go run ./cmd/funddash cleanup --days 180`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "days of history to keep (0 = config default)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Score History Cleanup ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	days := a.cfg.Scoring.RetentionDays
	if cleanupDays > 0 {
		days = cleanupDays
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	deleted, err := a.scores.Prune(ctx, days)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}

	fmt.Printf("Deleted %d rows older than %d days\n", deleted, days)
	return nil
}
