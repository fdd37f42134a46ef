package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/WENLIN-CHANG/BackTester/internal/domain"
	"github.com/WENLIN-CHANG/BackTester/internal/marketdata"
	"github.com/WENLIN-CHANG/BackTester/internal/service"
	"github.com/WENLIN-CHANG/BackTester/pkg/config"
	"github.com/WENLIN-CHANG/BackTester/pkg/httputil"
	"github.com/WENLIN-CHANG/BackTester/pkg/logger"
	"github.com/WENLIN-CHANG/BackTester/pkg/redis"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from the command line",
	Long: `Runs a backtest for one or more symbols and prints a summary.

Flags:
  --symbols   Comma-separated ticker symbols (required)
  --from      Start date (YYYY-MM-DD, required)
  --to        End date (YYYY-MM-DD, default: today)
  --strategy  lump_sum or dca (default: lump_sum)
  --amount    Investment amount (required)

Example:
  go run ./cmd/backtester run --symbols AAPL --from 2020-01-01 --amount 10000
  go run ./cmd/backtester run --symbols AAPL,MSFT,VOO --from 2020-01-01 --to 2023-12-31 --strategy dca --amount 1000`,
	RunE: runBacktest,
}

var (
	runSymbols  string
	runFrom     string
	runTo       string
	runStrategy string
	runAmount   float64
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runSymbols, "symbols", "", "comma-separated ticker symbols")
	runCmd.Flags().StringVar(&runFrom, "from", "", "start date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	runCmd.Flags().StringVar(&runStrategy, "strategy", "lump_sum", "investment strategy (lump_sum|dca)")
	runCmd.Flags().Float64Var(&runAmount, "amount", 0, "investment amount")

	runCmd.MarkFlagRequired("symbols")
	runCmd.MarkFlagRequired("from")
	runCmd.MarkFlagRequired("amount")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	startDate, err := time.Parse("2006-01-02", runFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	endDate := time.Now()
	if runTo != "" {
		endDate, err = time.Parse("2006-01-02", runTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	strategy, err := domain.ParseStrategy(runStrategy)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	httpClient := httputil.New(log, cfg.Yahoo.Timeout)
	yahooClient := marketdata.NewYahooClient(cfg.Yahoo, httpClient, log)
	priceCache := redis.NewCache(redisClient, "backtester")
	provider := marketdata.NewCachedProvider(yahooClient, priceCache, cfg.Cache.TTL, log)

	svc := service.NewBacktestService(provider, nil, log)

	resp, err := svc.Run(cmd.Context(), service.RunRequest{
		Symbols:  strings.Split(runSymbols, ","),
		From:     startDate,
		To:       endDate,
		Strategy: strategy,
		Amount:   runAmount,
	})
	if err != nil {
		return err
	}

	printRunSummary(resp)
	return nil
}

func printRunSummary(resp *service.RunResponse) {
	fmt.Println("=== Backtest Results ===")
	fmt.Println()

	for _, r := range resp.Results {
		fmt.Printf("%s (%s)\n", r.Symbol, r.DisplayName)
		fmt.Printf("  Total Return:  %.2f%%\n", r.TotalReturnPct)
		fmt.Printf("  CAGR:          %.2f%%\n", r.CAGR*100)
		fmt.Printf("  Max Drawdown:  %.2f%%\n", r.MaxDrawdown*100)
		fmt.Printf("  Volatility:    %.2f%%\n", r.Volatility*100)
		fmt.Printf("  Sharpe Ratio:  %.2f\n", r.SharpeRatio)
		fmt.Printf("  Final Value:   %.2f (invested %.2f)\n", r.FinalValue, r.TotalContributed)
		fmt.Println()
	}

	for _, f := range resp.Failures {
		fmt.Printf("%s: FAILED (%s)\n", f.Symbol, f.Reason)
	}

	if c := resp.Comparison; c != nil && len(resp.Results) > 1 {
		fmt.Println("=== Comparison ===")
		fmt.Printf("  Best Return:   %s\n", c.BestReturn)
		fmt.Printf("  Best Sharpe:   %s\n", c.BestSharpe)
		fmt.Printf("  Lowest Risk:   %s\n", c.LowestRisk)
		fmt.Printf("  Best CAGR:     %s\n", c.BestCAGR)
		fmt.Printf("  Worst Return:  %s (%.2f%%)\n", c.WorstPerformer.Symbol, c.WorstPerformer.TotalReturnPct)
		fmt.Printf("  Avg Return:    %.2f%%\n", c.AverageReturnPct)
	}
}
