package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/funddash/internal/fetch"
)

var collectWorkers int

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect raw data from the providers",
	Long: `Fetches quotes, fundamentals and analyst data for every active
ticker through the quota-aware provider router and persists it.

Example:
  go run ./cmd/funddash collect
  go run ./cmd/funddash collect --workers 8`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().IntVar(&collectWorkers, "workers", 0, "concurrent workers (0 = config default)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Data Collection ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	workers := a.cfg.Scoring.Workers
	if collectWorkers > 0 {
		workers = collectWorkers
	}

	results, err := a.collector.CollectAll(context.Background(), fetch.Config{
		Workers:   workers,
		BatchSize: 100,
	})
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	fmt.Printf("\nTickers:  %d\n", len(results))
	fmt.Printf("Failed:   %d\n", failed)

	for _, usage := range a.tracker.Usage(context.Background()) {
		fmt.Printf("Quota %s: %d/%d\n", usage.Provider, usage.CallsUsed, usage.DailyLimit)
	}
	return nil
}
