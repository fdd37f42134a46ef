package backtest

import "github.com/WENLIN-CHANG/BackTester/internal/domain"

// Compare selects the extremal performer along each criterion from a
// non-empty batch of results. Ties are broken by input order: the first
// result reaching the extremal value wins (strict comparisons in a
// stable linear scan). Inputs are not mutated.
func Compare(results []*domain.BacktestResult) (*domain.ComparisonSummary, error) {
	if len(results) == 0 {
		return nil, domain.ErrInvalidData("result batch cannot be empty")
	}

	bestReturn := results[0]
	bestSharpe := results[0]
	lowestRisk := results[0]
	bestCAGR := results[0]
	worstReturn := results[0]

	sumReturn := 0.0
	sumContributed := 0.0

	for _, r := range results {
		if r.TotalReturnPct > bestReturn.TotalReturnPct {
			bestReturn = r
		}
		if r.TotalReturnPct < worstReturn.TotalReturnPct {
			worstReturn = r
		}
		if r.SharpeRatio > bestSharpe.SharpeRatio {
			bestSharpe = r
		}
		if r.Volatility < lowestRisk.Volatility {
			lowestRisk = r
		}
		if r.CAGR > bestCAGR.CAGR {
			bestCAGR = r
		}

		sumReturn += r.TotalReturnPct
		sumContributed += r.TotalContributed
	}

	return &domain.ComparisonSummary{
		BestReturn: bestReturn.Symbol,
		BestSharpe: bestSharpe.Symbol,
		LowestRisk: lowestRisk.Symbol,
		BestCAGR:   bestCAGR.Symbol,
		BestPerformer: domain.PerformerInfo{
			Symbol:         bestReturn.Symbol,
			TotalReturnPct: bestReturn.TotalReturnPct,
		},
		WorstPerformer: domain.PerformerInfo{
			Symbol:         worstReturn.Symbol,
			TotalReturnPct: worstReturn.TotalReturnPct,
		},
		AverageReturnPct: sumReturn / float64(len(results)),
		TotalContributed: sumContributed,
	}, nil
}
