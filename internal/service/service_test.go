package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WENLIN-CHANG/BackTester/internal/domain"
	"github.com/WENLIN-CHANG/BackTester/internal/history"
	"github.com/WENLIN-CHANG/BackTester/internal/marketdata"
	"github.com/WENLIN-CHANG/BackTester/pkg/config"
	"github.com/WENLIN-CHANG/BackTester/pkg/logger"
)

// stubProvider serves a fixed series per symbol and an error for the rest.
type stubProvider struct {
	mu     sync.Mutex
	series map[string]*marketdata.Series
	errs   map[string]error
	calls  []string
}

func (p *stubProvider) FetchDailySeries(_ context.Context, symbol string, _, _ time.Time) (*marketdata.Series, error) {
	p.mu.Lock()
	p.calls = append(p.calls, symbol)
	p.mu.Unlock()

	if err, ok := p.errs[symbol]; ok {
		return nil, err
	}
	if s, ok := p.series[symbol]; ok {
		return s, nil
	}
	return nil, &marketdata.DataUnavailableError{Symbol: symbol, Msg: "not stubbed"}
}

type stubRecorder struct {
	mu      sync.Mutex
	batches [][]history.RunRecord
	err     error
}

func (r *stubRecorder) RecordBatch(_ context.Context, records []history.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, records)
	return r.err
}

func priceSeries(symbol string, closes ...float64) *marketdata.Series {
	start := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	prices := make([]domain.PricePoint, len(closes))
	for i, c := range closes {
		prices[i] = domain.PricePoint{Date: start.AddDate(0, 0, i), Close: c}
	}
	return &marketdata.Series{
		Info:   domain.StockInfo{Symbol: symbol, Name: symbol + " Corp", Currency: "USD"},
		Prices: prices,
	}
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

func validRequest(symbols ...string) RunRequest {
	return RunRequest{
		Symbols:  symbols,
		From:     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		Strategy: domain.StrategyLumpSum,
		Amount:   10000,
	}
}

func TestRunBatch(t *testing.T) {
	provider := &stubProvider{series: map[string]*marketdata.Series{
		"AAPL": priceSeries("AAPL", 100, 110, 120),
		"MSFT": priceSeries("MSFT", 200, 210, 190),
	}}
	recorder := &stubRecorder{}
	svc := NewBacktestService(provider, recorder, testLogger())

	resp, err := svc.Run(context.Background(), validRequest("AAPL", "MSFT"))
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "AAPL", resp.Results[0].Symbol, "results keep request order")
	assert.Equal(t, "MSFT", resp.Results[1].Symbol)
	assert.Empty(t, resp.Failures)

	require.NotNil(t, resp.Comparison)
	assert.Equal(t, "AAPL", resp.Comparison.BestReturn, "AAPL gained 20%, MSFT lost 5%")
	assert.Equal(t, "AAPL", resp.Comparison.BestPerformer.Symbol)
	assert.Equal(t, "MSFT", resp.Comparison.WorstPerformer.Symbol)
	assert.Equal(t, 20000.0, resp.Comparison.TotalContributed)

	require.Len(t, recorder.batches, 1)
	batch := recorder.batches[0]
	require.Len(t, batch, 2)
	assert.NotEmpty(t, batch[0].BatchID)
	assert.Equal(t, batch[0].BatchID, batch[1].BatchID, "one batch shares one identifier")
}

func TestRunPartialFailure(t *testing.T) {
	provider := &stubProvider{
		series: map[string]*marketdata.Series{
			"AAPL": priceSeries("AAPL", 100, 110, 120),
		},
		errs: map[string]error{
			"NOPE": &marketdata.DataUnavailableError{Symbol: "NOPE", Msg: "no data"},
		},
	}
	svc := NewBacktestService(provider, nil, testLogger())

	resp, err := svc.Run(context.Background(), validRequest("AAPL", "NOPE"))
	require.NoError(t, err, "one surviving symbol is a success")

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "AAPL", resp.Results[0].Symbol)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "NOPE", resp.Failures[0].Symbol)
	assert.Contains(t, resp.Failures[0].Reason, "no data")
	require.NotNil(t, resp.Comparison)
}

func TestRunAllSymbolsUnavailable(t *testing.T) {
	provider := &stubProvider{errs: map[string]error{
		"NOPE1": &marketdata.DataUnavailableError{Symbol: "NOPE1", Msg: "no data"},
		"NOPE2": &marketdata.DataUnavailableError{Symbol: "NOPE2", Msg: "no data"},
	}}
	svc := NewBacktestService(provider, nil, testLogger())

	_, err := svc.Run(context.Background(), validRequest("NOPE1", "NOPE2"))
	var unavailable *marketdata.DataUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestRunAllSymbolsFailMixed(t *testing.T) {
	// An empty series is a simulation error, not missing data, so the
	// batch-level error must not read as data unavailability.
	provider := &stubProvider{
		series: map[string]*marketdata.Series{
			"EMPTY": {Info: domain.StockInfo{Symbol: "EMPTY"}},
		},
		errs: map[string]error{
			"NOPE": &marketdata.DataUnavailableError{Symbol: "NOPE", Msg: "no data"},
		},
	}
	svc := NewBacktestService(provider, nil, testLogger())

	_, err := svc.Run(context.Background(), validRequest("EMPTY", "NOPE"))
	require.Error(t, err)

	var unavailable *marketdata.DataUnavailableError
	assert.False(t, errors.As(err, &unavailable))
	var invalid *domain.InvalidDataError
	assert.True(t, errors.As(err, &invalid))
}

func TestRunRequestValidation(t *testing.T) {
	svc := NewBacktestService(&stubProvider{}, nil, testLogger())

	base := validRequest("AAPL")
	tooMany := make([]string, MaxSymbols+1)
	for i := range tooMany {
		tooMany[i] = "SYM"
	}

	tests := []struct {
		name   string
		mutate func(r *RunRequest)
	}{
		{name: "no symbols", mutate: func(r *RunRequest) { r.Symbols = nil }},
		{name: "too many symbols", mutate: func(r *RunRequest) { r.Symbols = tooMany }},
		{name: "blank symbol", mutate: func(r *RunRequest) { r.Symbols = []string{"AAPL", "  "} }},
		{name: "end before start", mutate: func(r *RunRequest) { r.To = r.From.AddDate(0, 0, -1) }},
		{name: "end equals start", mutate: func(r *RunRequest) { r.To = r.From }},
		{name: "zero amount", mutate: func(r *RunRequest) { r.Amount = 0 }},
		{name: "unknown strategy", mutate: func(r *RunRequest) { r.Strategy = "yolo" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := svc.Run(context.Background(), req)
			var invalid *domain.InvalidDataError
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestRunWithoutRecorder(t *testing.T) {
	provider := &stubProvider{series: map[string]*marketdata.Series{
		"AAPL": priceSeries("AAPL", 100, 110),
	}}
	svc := NewBacktestService(provider, nil, testLogger())

	resp, err := svc.Run(context.Background(), validRequest("AAPL"))
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
}

func TestRunRecorderFailureIsSwallowed(t *testing.T) {
	provider := &stubProvider{series: map[string]*marketdata.Series{
		"AAPL": priceSeries("AAPL", 100, 110),
	}}
	recorder := &stubRecorder{err: errors.New("database is down")}
	svc := NewBacktestService(provider, recorder, testLogger())

	resp, err := svc.Run(context.Background(), validRequest("AAPL"))
	require.NoError(t, err, "audit trail failures must not fail the run")
	require.Len(t, resp.Results, 1)
}

func TestRunFetchesConcurrently(t *testing.T) {
	provider := &stubProvider{series: map[string]*marketdata.Series{
		"A": priceSeries("A", 100, 110),
		"B": priceSeries("B", 100, 120),
		"C": priceSeries("C", 100, 90),
	}}
	svc := NewBacktestService(provider, nil, testLogger())

	resp, err := svc.Run(context.Background(), validRequest("A", "B", "C"))
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{
		resp.Results[0].Symbol, resp.Results[1].Symbol, resp.Results[2].Symbol,
	})
	assert.Len(t, provider.calls, 3)
}
