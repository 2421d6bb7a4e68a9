package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "funddash",
	Short: "funddash - multi-provider stock scoring backend",
	Long: `funddash collects market, fundamental and analyst data from
free-tier provider APIs and computes daily per-ticker scores.

Usage:
  go run ./cmd/funddash [command]

Examples:
  go run ./cmd/funddash collect
  go run ./cmd/funddash score run
  go run ./cmd/funddash score ticker AAPL
  go run ./cmd/funddash api
  go run ./cmd/funddash scheduler`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
