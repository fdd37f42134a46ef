package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WENLIN-CHANG/BackTester/internal/history"
	"github.com/WENLIN-CHANG/BackTester/pkg/config"
	"github.com/WENLIN-CHANG/BackTester/pkg/database"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded backtest runs",
	Long: `Lists the most recent backtest runs recorded in the database.

Requires DATABASE_URL to be configured.

Example:
  go run ./cmd/backtester history
  go run ./cmd/backtester history --limit 50`,
	RunE: runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !cfg.Database.Enabled {
		return fmt.Errorf("run history requires DATABASE_URL")
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := history.NewRepository(db.Pool)
	records, err := repo.ListRecent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	fmt.Printf("%-19s  %-10s  %-9s  %-10s  %10s  %8s\n",
		"RECORDED", "SYMBOL", "STRATEGY", "WINDOW", "RETURN", "SHARPE")
	for _, rec := range records {
		window := fmt.Sprintf("%s~%s",
			rec.StartDate.Format("2006-01"), rec.EndDate.Format("2006-01"))
		fmt.Printf("%-19s  %-10s  %-9s  %-10s  %9.2f%%  %8.2f\n",
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.Symbol, rec.Strategy, window, rec.TotalReturnPct, rec.SharpeRatio)
	}

	return nil
}
