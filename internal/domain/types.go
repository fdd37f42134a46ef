// Package domain holds the value types shared by the backtest engine,
// the market data layer and the API. All types are created once per
// request and never mutated afterwards.
package domain

import "time"

// Strategy selects how the contribution amount is deployed.
type Strategy string

const (
	// StrategyLumpSum invests the whole amount on the first observation.
	StrategyLumpSum Strategy = "lump_sum"
	// StrategyDCA invests the amount once per calendar month, on the
	// first price point the series presents for that month.
	StrategyDCA Strategy = "dca"
)

// ParseStrategy validates a wire-level strategy string. An unknown value
// is a caller error, distinct from the data errors the engine produces.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyLumpSum, StrategyDCA:
		return Strategy(s), nil
	}
	return "", ErrInvalidData("invalid strategy %q (expected %q or %q)", s, StrategyLumpSum, StrategyDCA)
}

// PricePoint is one daily close observation.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// NewPricePoint validates the close price at construction.
func NewPricePoint(date time.Time, close float64) (PricePoint, error) {
	if close <= 0 {
		return PricePoint{}, ErrInvalidData("price must be positive, got %v", close)
	}
	return PricePoint{Date: date, Close: close}, nil
}

// StockInfo is the closed metadata record for a security. Currency and
// Exchange are optional; empty means the provider did not report them.
type StockInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
	Exchange string `json:"exchange,omitempty"`
}

// PortfolioSnapshot is the simulated portfolio state as of one observed
// price date.
type PortfolioSnapshot struct {
	Date                  time.Time `json:"date"`
	Value                 float64   `json:"value"`
	Shares                float64   `json:"shares"`
	CumulativeContributed float64   `json:"cumulative_invested"`
}

// BacktestResult is one security's complete simulated outcome.
//
// Unit convention, fixed by the existing wire contract: TotalReturnPct
// is a percentage (15.0 means +15%), while CAGR, MaxDrawdown and
// Volatility are fractions (0.15 means 15%).
type BacktestResult struct {
	Symbol      string   `json:"symbol"`
	DisplayName string   `json:"name"`
	Strategy    Strategy `json:"strategy"`

	// Return metrics
	TotalReturnPct float64 `json:"total_return"`
	CAGR           float64 `json:"cagr"`

	// Risk metrics
	MaxDrawdown float64 `json:"max_drawdown"`
	Volatility  float64 `json:"volatility"`
	SharpeRatio float64 `json:"sharpe_ratio"`

	// Summary
	FinalValue       float64 `json:"final_value"`
	TotalContributed float64 `json:"total_invested"`

	// Chronological history, one snapshot per input price point.
	History []PortfolioSnapshot `json:"history"`
}

// PerformerInfo names one security together with its total return.
type PerformerInfo struct {
	Symbol         string  `json:"symbol"`
	TotalReturnPct float64 `json:"total_return"`
}

// ComparisonSummary holds the extremal picks across a batch of results.
// Every referenced symbol appears in the input batch.
type ComparisonSummary struct {
	BestReturn string `json:"best_return"`
	BestSharpe string `json:"best_sharpe"`
	LowestRisk string `json:"lowest_risk"`
	BestCAGR   string `json:"best_cagr"`

	BestPerformer  PerformerInfo `json:"best_performer"`
	WorstPerformer PerformerInfo `json:"worst_performer"`

	AverageReturnPct float64 `json:"average_return"`
	TotalContributed float64 `json:"total_invested"`
}
