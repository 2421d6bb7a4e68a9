package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show quota usage and today's scoring health",
	Long: `Prints per-provider quota usage and the fraction of tickers
whose domain calculations succeeded today.

Example:
  go run ./cmd/funddash status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("=== Provider Quota ===")
	for _, usage := range a.tracker.Usage(ctx) {
		pct := 0.0
		if usage.DailyLimit > 0 {
			pct = float64(usage.CallsUsed) / float64(usage.DailyLimit) * 100
		}
		fmt.Printf("  %-14s %5d / %-5d (%.0f%%)\n", usage.Provider, usage.CallsUsed, usage.DailyLimit, pct)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	rates, err := a.scores.DomainSuccessRates(ctx, today)
	if err != nil {
		return fmt.Errorf("load success rates: %w", err)
	}

	fmt.Printf("\n=== Domain Success (%s) ===\n", today.Format("2006-01-02"))
	if len(rates) == 0 {
		fmt.Println("  no scores recorded today")
		return nil
	}
	for _, domain := range []string{"technical", "fundamental", "analyst"} {
		if rate, ok := rates[domain]; ok {
			fmt.Printf("  %-12s %.1f%%\n", domain, rate*100)
		}
	}
	return nil
}
