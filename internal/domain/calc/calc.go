// Package calc implements the pure return and risk metrics used by the
// backtest engine. Every function is deterministic and side-effect free:
// identical input yields identical output, and violated preconditions
// surface as *domain.CalculationError instead of being clamped.
//
// Inputs must be in chronological order; the functions do not sort.
package calc

import (
	"math"

	"github.com/WENLIN-CHANG/BackTester/internal/domain"
)

// TradingDaysPerYear is the fixed annualization constant.
const TradingDaysPerYear = 252

// DefaultRiskFreeRate is the annual risk-free rate assumed by SharpeRatio.
const DefaultRiskFreeRate = 0.02

// DailyReturns computes the period-over-period return for each adjacent
// pair of values. The result has length len(values)-1, or zero when
// fewer than two values are supplied.
func DailyReturns(values []float64) ([]float64, error) {
	if len(values) < 2 {
		return nil, nil
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			return nil, domain.ErrCalculation("cannot compute return from zero value at index %d", i-1)
		}
		returns = append(returns, (values[i]-prev)/prev)
	}

	return returns, nil
}

// TotalReturnPct computes (final-initial)/initial as a percentage.
func TotalReturnPct(initial, final float64) (float64, error) {
	if initial <= 0 {
		return 0, domain.ErrCalculation("initial value must be positive, got %v", initial)
	}
	return (final - initial) / initial * 100, nil
}

// CAGR computes the compound annual growth rate as a fraction.
// A final value of exactly zero returns -1.0 (total loss) without
// exponentiation.
func CAGR(initial, final, years float64) (float64, error) {
	if initial <= 0 {
		return 0, domain.ErrCalculation("initial value must be positive, got %v", initial)
	}
	if final < 0 {
		return 0, domain.ErrCalculation("final value cannot be negative, got %v", final)
	}
	if years <= 0 {
		return 0, domain.ErrCalculation("years must be positive, got %v", years)
	}

	if final == 0 {
		return -1.0, nil
	}

	return math.Pow(final/initial, 1/years) - 1, nil
}

// MaxDrawdownPct computes the largest peak-to-trough decline as a
// non-positive fraction. The running peak starts at values[0]; an empty
// sequence yields 0.
func MaxDrawdownPct(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	maxDD := 0.0

	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// AnnualizedVolatility computes the sample standard deviation of the
// returns scaled by sqrt(252). Fewer than two returns yield 0.
func AnnualizedVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear)
}

// SharpeRatio computes the excess annualized return over the risk-free
// rate, divided by the annualized volatility. Fewer than two returns or
// zero volatility yield 0.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	annualReturn := mean * TradingDaysPerYear

	volatility := AnnualizedVolatility(returns)
	if volatility == 0 {
		return 0
	}

	return (annualReturn - riskFreeRate) / volatility
}
