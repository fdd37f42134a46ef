// Package service orchestrates the backtest pipeline: fan-out price
// fetching per symbol, per-symbol simulation, fan-in aggregation with
// partial-failure collection, and the cross-symbol comparison.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/WENLIN-CHANG/BackTester/internal/backtest"
	"github.com/WENLIN-CHANG/BackTester/internal/domain"
	"github.com/WENLIN-CHANG/BackTester/internal/history"
	"github.com/WENLIN-CHANG/BackTester/internal/marketdata"
	"github.com/WENLIN-CHANG/BackTester/pkg/logger"
)

// MaxSymbols caps one request's batch size.
const MaxSymbols = 10

// Recorder persists completed batches. Satisfied by *history.Repository.
type Recorder interface {
	RecordBatch(ctx context.Context, records []history.RunRecord) error
}

// BacktestService coordinates the market data layer and the backtest
// engine. The engine itself stays pure; every side effect lives here.
type BacktestService struct {
	provider marketdata.Provider
	recorder Recorder // nil disables run history
	logger   *logger.Logger
}

// NewBacktestService creates a new service. recorder may be nil.
func NewBacktestService(provider marketdata.Provider, recorder Recorder, log *logger.Logger) *BacktestService {
	return &BacktestService{
		provider: provider,
		recorder: recorder,
		logger:   log,
	}
}

// RunRequest is one validated backtest batch request.
type RunRequest struct {
	Symbols  []string
	From     time.Time
	To       time.Time
	Strategy domain.Strategy
	Amount   float64
}

// SymbolFailure reports why one symbol of a batch produced no result.
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// RunResponse aggregates a batch's outcomes. Results keep the request's
// symbol order with failed symbols removed.
type RunResponse struct {
	Results    []*domain.BacktestResult  `json:"results"`
	Comparison *domain.ComparisonSummary `json:"comparison"`
	Failures   []SymbolFailure           `json:"failures,omitempty"`
}

// Run executes the batch. Symbols are fetched and simulated
// concurrently; a symbol's failure is collected, not fatal. The run
// fails only when the request is invalid or every symbol fails.
func (s *BacktestService) Run(ctx context.Context, req RunRequest) (*RunResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	results := make([]*domain.BacktestResult, len(req.Symbols))
	errs := make([]error, len(req.Symbols))

	var wg sync.WaitGroup
	for i, symbol := range req.Symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			results[i], errs[i] = s.runOne(ctx, symbol, req)
		}(i, symbol)
	}
	wg.Wait()

	resp := &RunResponse{}
	for i, err := range errs {
		if err != nil {
			s.logger.WithError(err).WithField("symbol", req.Symbols[i]).Warn("Backtest failed for symbol")
			resp.Failures = append(resp.Failures, SymbolFailure{
				Symbol: req.Symbols[i],
				Reason: err.Error(),
			})
			continue
		}
		resp.Results = append(resp.Results, results[i])
	}

	if len(resp.Results) == 0 {
		reasons := make([]string, len(resp.Failures))
		for i, f := range resp.Failures {
			reasons[i] = f.Symbol + ": " + f.Reason
		}
		if allUnavailable(errs) {
			return nil, &marketdata.DataUnavailableError{
				Symbol: strings.Join(req.Symbols, ","),
				Msg:    "all symbols failed: " + strings.Join(reasons, "; "),
			}
		}
		return nil, domain.ErrInvalidData("all symbols failed: %s", strings.Join(reasons, "; "))
	}

	comparison, err := backtest.Compare(resp.Results)
	if err != nil {
		return nil, err
	}
	resp.Comparison = comparison

	s.record(ctx, req, resp.Results)

	return resp, nil
}

// runOne fetches one symbol's series and simulates the strategy over it.
func (s *BacktestService) runOne(ctx context.Context, symbol string, req RunRequest) (*domain.BacktestResult, error) {
	series, err := s.provider.FetchDailySeries(ctx, symbol, req.From, req.To)
	if err != nil {
		return nil, err
	}

	return backtest.Run(req.Strategy, series.Prices, req.Amount, series.Info)
}

// record persists the batch when a recorder is configured. Failures are
// logged and swallowed; the response does not depend on the audit trail.
func (s *BacktestService) record(ctx context.Context, req RunRequest, results []*domain.BacktestResult) {
	if s.recorder == nil {
		return
	}

	batchID := newBatchID()
	records := make([]history.RunRecord, len(results))
	for i, r := range results {
		records[i] = history.RunRecord{
			BatchID:        batchID,
			Symbol:         r.Symbol,
			Strategy:       r.Strategy,
			StartDate:      req.From,
			EndDate:        req.To,
			Amount:         req.Amount,
			TotalReturnPct: r.TotalReturnPct,
			CAGR:           r.CAGR,
			MaxDrawdown:    r.MaxDrawdown,
			Volatility:     r.Volatility,
			SharpeRatio:    r.SharpeRatio,
			FinalValue:     r.FinalValue,
		}
	}

	if err := s.recorder.RecordBatch(ctx, records); err != nil {
		s.logger.WithError(err).WithField("batch_id", batchID).Warn("Failed to record backtest batch")
	}
}

func validateRequest(req RunRequest) error {
	if len(req.Symbols) == 0 {
		return domain.ErrInvalidData("at least one symbol is required")
	}
	if len(req.Symbols) > MaxSymbols {
		return domain.ErrInvalidData("too many symbols: %d (maximum %d)", len(req.Symbols), MaxSymbols)
	}
	for _, symbol := range req.Symbols {
		if strings.TrimSpace(symbol) == "" {
			return domain.ErrInvalidData("symbols cannot be empty")
		}
	}
	if !req.To.After(req.From) {
		return domain.ErrInvalidData("end date must be after start date")
	}
	if req.Amount <= 0 {
		return domain.ErrInvalidData("investment amount must be positive, got %v", req.Amount)
	}
	if _, err := domain.ParseStrategy(string(req.Strategy)); err != nil {
		return err
	}
	return nil
}

// allUnavailable reports whether every symbol failed for lack of data,
// which maps to a 404 rather than a caller error.
func allUnavailable(errs []error) bool {
	for _, err := range errs {
		var unavailable *marketdata.DataUnavailableError
		if !errors.As(err, &unavailable) {
			return false
		}
	}
	return true
}

// newBatchID returns a short random identifier linking one batch's rows.
func newBatchID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return time.Now().Format("20060102150405")
	}
	return hex.EncodeToString(buf)
}
