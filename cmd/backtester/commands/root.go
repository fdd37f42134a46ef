package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "BackTester - historical investment backtest service",
	Long: `BackTester CLI

Simulates lump-sum and dollar-cost-averaging investment strategies over
historical stock prices and reports return and risk metrics.

Usage:
  go run ./cmd/backtester [command]

Examples:
  go run ./cmd/backtester api
  go run ./cmd/backtester run --symbols AAPL,MSFT --from 2020-01-01 --to 2023-12-31 --strategy dca --amount 1000
  go run ./cmd/backtester history --limit 20`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
