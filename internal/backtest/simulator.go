// Package backtest turns a daily close-price series into a simulated
// portfolio history and summary statistics. The package is pure: no
// I/O, no shared state, safe to call concurrently for different inputs.
package backtest

import (
	"time"

	"github.com/WENLIN-CHANG/BackTester/internal/domain"
	"github.com/WENLIN-CHANG/BackTester/internal/domain/calc"
)

// minYears floors the backtest horizon at one trading day so a same-day
// series still produces a defined CAGR instead of failing on years == 0.
const minYears = 1.0 / calc.TradingDaysPerYear

// Run simulates the given strategy over a chronologically ordered price
// series with the given contribution amount. For lump-sum the amount is
// invested once on the first observation; for DCA it is invested once
// per calendar month present in the series.
func Run(strategy domain.Strategy, prices []domain.PricePoint, amount float64, info domain.StockInfo) (*domain.BacktestResult, error) {
	switch strategy {
	case domain.StrategyLumpSum:
		return LumpSum(prices, amount, info)
	case domain.StrategyDCA:
		return DCA(prices, amount, info)
	}
	return nil, domain.ErrInvalidData("unknown strategy %q", strategy)
}

// LumpSum buys amount/firstClose shares on the first observation and
// holds them for the remainder of the series.
func LumpSum(prices []domain.PricePoint, amount float64, info domain.StockInfo) (*domain.BacktestResult, error) {
	if err := validateInput(prices, amount); err != nil {
		return nil, err
	}

	shares := amount / prices[0].Close

	history := make([]domain.PortfolioSnapshot, 0, len(prices))
	for _, p := range prices {
		history = append(history, domain.PortfolioSnapshot{
			Date:                  p.Date,
			Value:                 shares * p.Close,
			Shares:                shares,
			CumulativeContributed: amount,
		})
	}

	return summarize(domain.StrategyLumpSum, info, prices, history, amount)
}

// DCA invests the amount once per distinct calendar month, on whatever
// price point the series presents first for that month. Snapshots are
// emitted after the purchase, so the first snapshot already holds the
// first month's shares.
func DCA(prices []domain.PricePoint, amount float64, info domain.StockInfo) (*domain.BacktestResult, error) {
	if err := validateInput(prices, amount); err != nil {
		return nil, err
	}

	var (
		totalShares      float64
		totalContributed float64
		lastYear         int
		lastMonth        time.Month
		invested         bool
	)

	history := make([]domain.PortfolioSnapshot, 0, len(prices))
	for _, p := range prices {
		year, month := p.Date.Year(), p.Date.Month()
		if !invested || year != lastYear || month != lastMonth {
			totalShares += amount / p.Close
			totalContributed += amount
			lastYear, lastMonth = year, month
			invested = true
		}

		history = append(history, domain.PortfolioSnapshot{
			Date:                  p.Date,
			Value:                 totalShares * p.Close,
			Shares:                totalShares,
			CumulativeContributed: totalContributed,
		})
	}

	return summarize(domain.StrategyDCA, info, prices, history, totalContributed)
}

func validateInput(prices []domain.PricePoint, amount float64) error {
	if len(prices) == 0 {
		return domain.ErrInvalidData("price series cannot be empty")
	}
	if amount <= 0 {
		return domain.ErrInvalidData("contribution amount must be positive, got %v", amount)
	}
	return nil
}

// summarize computes the metric fields from the produced history. The
// total-return and CAGR baseline is the accumulated contribution, which
// for DCA differs from the first snapshot's value.
func summarize(strategy domain.Strategy, info domain.StockInfo, prices []domain.PricePoint, history []domain.PortfolioSnapshot, contributed float64) (*domain.BacktestResult, error) {
	finalValue := history[len(history)-1].Value

	totalReturn, err := calc.TotalReturnPct(contributed, finalValue)
	if err != nil {
		return nil, err
	}

	years := prices[len(prices)-1].Date.Sub(prices[0].Date).Hours() / 24 / 365.25
	if years <= 0 {
		years = minYears
	}
	cagr, err := calc.CAGR(contributed, finalValue, years)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(history))
	for i, s := range history {
		values[i] = s.Value
	}

	returns, err := calc.DailyReturns(values)
	if err != nil {
		return nil, err
	}

	return &domain.BacktestResult{
		Symbol:           info.Symbol,
		DisplayName:      info.Name,
		Strategy:         strategy,
		TotalReturnPct:   totalReturn,
		CAGR:             cagr,
		MaxDrawdown:      calc.MaxDrawdownPct(values),
		Volatility:       calc.AnnualizedVolatility(returns),
		SharpeRatio:      calc.SharpeRatio(returns, calc.DefaultRiskFreeRate),
		FinalValue:       finalValue,
		TotalContributed: contributed,
		History:          history,
	}, nil
}
