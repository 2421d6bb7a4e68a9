package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/funddash/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Scoring operations",
}

var (
	scoreForce      bool
	scoreMaxTickers int
	scoreWorkers    int
)

var scoreRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full daily scoring pass",
	Long: `Computes technical, fundamental and analyst scores for every
active ticker, then upserts the results.

Tickers whose record is already complete for today are skipped unless
--force is set.

Example:
  go run ./cmd/funddash score run
  go run ./cmd/funddash score run --force --max-tickers 50`,
	RunE: runScoreRun,
}

var scoreTickerCmd = &cobra.Command{
	Use:   "ticker SYMBOL",
	Short: "Score a single ticker",
	Long: `Computes and upserts scores for one ticker, regardless of any
existing record.

Example:
  go run ./cmd/funddash score ticker AAPL`,
	Args: cobra.ExactArgs(1),
	RunE: runScoreTicker,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.AddCommand(scoreRunCmd)
	scoreCmd.AddCommand(scoreTickerCmd)

	scoreRunCmd.Flags().BoolVar(&scoreForce, "force", false, "recompute even when today's record is complete")
	scoreRunCmd.Flags().IntVar(&scoreMaxTickers, "max-tickers", 0, "cap the number of tickers (0 = all)")
	scoreRunCmd.Flags().IntVar(&scoreWorkers, "workers", 0, "concurrent workers (0 = config default)")
}

func runScoreRun(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Daily Scoring Run ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts := scoring.RunOptions{
		Workers:    a.cfg.Scoring.Workers,
		MaxTickers: a.cfg.Scoring.MaxTickers,
		TimeBudget: a.cfg.Scoring.TimeBudget,
		Force:      scoreForce,
	}
	if scoreMaxTickers > 0 {
		opts.MaxTickers = scoreMaxTickers
	}
	if scoreWorkers > 0 {
		opts.Workers = scoreWorkers
	}

	summary, err := a.orchestrator.Run(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("scoring run: %w", err)
	}

	fmt.Printf("\nState:     %s\n", summary.State)
	fmt.Printf("Succeeded: %d\n", summary.Succeeded)
	fmt.Printf("Partial:   %d\n", summary.Partial)
	fmt.Printf("Failed:    %d\n", summary.Failed)
	fmt.Printf("Skipped:   %d\n", summary.Skipped)
	fmt.Printf("Elapsed:   %s\n", summary.Elapsed.Round(time.Second))
	return nil
}

func runScoreTicker(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(args[0])
	fmt.Printf("=== Scoring %s ===\n", ticker)

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	record, err := a.orchestrator.ProcessTicker(context.Background(), ticker, time.Time{})
	if err != nil {
		return fmt.Errorf("score %s: %w", ticker, err)
	}

	fmt.Printf("\nComposite:   %.2f\n", record.CompositeScore)
	fmt.Printf("Technical:   %.2f (%s, quality %d%%)\n",
		record.Technical.Overall, record.TechnicalResult.Status, record.TechnicalResult.DataQuality)
	fmt.Printf("Fundamental: %.2f (%s, quality %d%%)\n",
		record.Fundamental.Overall, record.FundamentalResult.Status, record.FundamentalResult.DataQuality)
	fmt.Printf("Analyst:     %.2f (%s, quality %d%%)\n",
		record.Analyst.Overall, record.AnalystResult.Status, record.AnalystResult.DataQuality)
	return nil
}
