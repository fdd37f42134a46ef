package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/WENLIN-CHANG/BackTester/internal/domain"
	"github.com/WENLIN-CHANG/BackTester/internal/marketdata"
	"github.com/WENLIN-CHANG/BackTester/internal/service"
	"github.com/WENLIN-CHANG/BackTester/pkg/config"
	"github.com/WENLIN-CHANG/BackTester/pkg/logger"
)

type stubRunner struct {
	gotReq service.RunRequest
	resp   *service.RunResponse
	err    error
}

func (s *stubRunner) Run(_ context.Context, req service.RunRequest) (*service.RunResponse, error) {
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func testHandler(runner Runner) *BacktestHandler {
	log := logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
	return NewBacktestHandler(runner, log)
}

func postBacktest(t *testing.T, h *BacktestHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/backtest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Run(rec, req)
	return rec
}

const validBody = `{
	"stocks": ["AAPL", "MSFT"],
	"start_date": "2023-01-01",
	"end_date": "2023-12-31",
	"strategy": "lump_sum",
	"investment": {"amount": 10000}
}`

func TestBacktestHandler(t *testing.T) {
	runner := &stubRunner{resp: &service.RunResponse{
		Results: []*domain.BacktestResult{
			{Symbol: "AAPL", Strategy: domain.StrategyLumpSum, TotalReturnPct: 20},
			{Symbol: "MSFT", Strategy: domain.StrategyLumpSum, TotalReturnPct: -5},
		},
		Comparison: &domain.ComparisonSummary{BestReturn: "AAPL"},
	}}
	h := testHandler(runner)

	rec := postBacktest(t, h, validBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp struct {
		Results []struct {
			Symbol      string  `json:"symbol"`
			TotalReturn float64 `json:"total_return"`
		} `json:"results"`
		Comparison struct {
			BestReturn string `json:"best_return"`
		} `json:"comparison"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].Symbol != "AAPL" || resp.Results[0].TotalReturn != 20 {
		t.Errorf("unexpected first result: %+v", resp.Results[0])
	}
	if resp.Comparison.BestReturn != "AAPL" {
		t.Errorf("best_return = %q, want AAPL", resp.Comparison.BestReturn)
	}
}

func TestBacktestHandlerRequestMapping(t *testing.T) {
	runner := &stubRunner{resp: &service.RunResponse{
		Results:    []*domain.BacktestResult{{Symbol: "AAPL"}},
		Comparison: &domain.ComparisonSummary{},
	}}
	h := testHandler(runner)

	rec := postBacktest(t, h, validBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	got := runner.gotReq
	if len(got.Symbols) != 2 || got.Symbols[0] != "AAPL" {
		t.Errorf("Symbols = %v", got.Symbols)
	}
	if got.Strategy != domain.StrategyLumpSum {
		t.Errorf("Strategy = %q", got.Strategy)
	}
	if got.Amount != 10000 {
		t.Errorf("Amount = %v", got.Amount)
	}

	wantFrom := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.From.Equal(wantFrom) {
		t.Errorf("From = %v, want %v", got.From, wantFrom)
	}
	// The window runs through the end of the last requested day.
	wantTo := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
	if !got.To.Equal(wantTo) {
		t.Errorf("To = %v, want %v", got.To, wantTo)
	}
}

func TestBacktestHandlerBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed JSON", body: `{"stocks": [`},
		{name: "bad start_date", body: `{"stocks": ["AAPL"], "start_date": "01/01/2023", "end_date": "2023-12-31", "strategy": "lump_sum", "investment": {"amount": 1000}}`},
		{name: "bad end_date", body: `{"stocks": ["AAPL"], "start_date": "2023-01-01", "end_date": "yesterday", "strategy": "lump_sum", "investment": {"amount": 1000}}`},
		{name: "unknown strategy", body: `{"stocks": ["AAPL"], "start_date": "2023-01-01", "end_date": "2023-12-31", "strategy": "yolo", "investment": {"amount": 1000}}`},
		{name: "end before start", body: `{"stocks": ["AAPL"], "start_date": "2023-12-31", "end_date": "2023-01-01", "strategy": "lump_sum", "investment": {"amount": 1000}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{}
			rec := postBacktest(t, testHandler(runner), tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp["error"] == "" {
				t.Error("error body has no message")
			}
		})
	}
}

func TestBacktestHandlerRejectsEqualDates(t *testing.T) {
	// The end-of-day widening must not turn an equal start and end date
	// into a valid one-day window.
	runner := &stubRunner{}
	body := `{"stocks": ["AAPL"], "start_date": "2023-06-01", "end_date": "2023-06-01", "strategy": "lump_sum", "investment": {"amount": 1000}}`

	rec := postBacktest(t, testHandler(runner), body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
	if len(runner.gotReq.Symbols) != 0 {
		t.Error("service was called for an equal-date request")
	}
}

func TestBacktestHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "data unavailable maps to 404",
			err:        &marketdata.DataUnavailableError{Symbol: "NOPE", Msg: "no data"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid data maps to 400",
			err:        domain.ErrInvalidData("end date must be after start date"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "calculation error maps to 400",
			err:        domain.ErrCalculation("cannot compute return from zero value"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown error maps to 500",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postBacktest(t, testHandler(&stubRunner{err: tt.err}), validBody)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestBacktestHandlerInternalErrorIsOpaque(t *testing.T) {
	rec := postBacktest(t, testHandler(&stubRunner{err: errors.New("pgx: connection refused at 10.0.0.5")}), validBody)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Error("internal error details leaked to the client")
	}
}
