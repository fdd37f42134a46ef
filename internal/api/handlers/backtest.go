package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/WENLIN-CHANG/BackTester/internal/domain"
	"github.com/WENLIN-CHANG/BackTester/internal/marketdata"
	"github.com/WENLIN-CHANG/BackTester/internal/service"
	"github.com/WENLIN-CHANG/BackTester/pkg/logger"
)

// Runner is the service surface the handler needs; split out so tests
// can supply a stub.
type Runner interface {
	Run(ctx context.Context, req service.RunRequest) (*service.RunResponse, error)
}

// BacktestHandler handles the backtest API endpoint.
type BacktestHandler struct {
	service Runner
	logger  *logger.Logger
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(svc Runner, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		service: svc,
		logger:  log,
	}
}

// InvestmentParams carries the contribution amount.
type InvestmentParams struct {
	Amount float64 `json:"amount"`
}

// BacktestRequest is the wire request for POST /api/backtest.
type BacktestRequest struct {
	Stocks     []string         `json:"stocks"`
	StartDate  string           `json:"start_date"` // YYYY-MM-DD
	EndDate    string           `json:"end_date"`   // YYYY-MM-DD
	Strategy   string           `json:"strategy"`   // lump_sum | dca
	Investment InvestmentParams `json:"investment"`
}

// Run executes a backtest batch.
// POST /api/backtest
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid start_date format (expected YYYY-MM-DD)")
		return
	}

	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid end_date format (expected YYYY-MM-DD)")
		return
	}

	// Compare the raw dates before the window is widened below, so an
	// equal start and end date cannot slip past the service's check.
	if !endDate.After(startDate) {
		respondError(w, http.StatusBadRequest, "end_date must be after start_date")
		return
	}

	strategy, err := domain.ParseStrategy(req.Strategy)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The window ends at the close of end_date.
	resp, err := h.service.Run(ctx, service.RunRequest{
		Symbols:  req.Stocks,
		From:     startDate,
		To:       endDate.Add(24*time.Hour - time.Second),
		Strategy: strategy,
		Amount:   req.Investment.Amount,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// respondServiceError maps the error taxonomy to HTTP status codes:
// missing upstream data is 404, invalid input or a calculation edge
// case is 400, everything else 500.
func (h *BacktestHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var unavailable *marketdata.DataUnavailableError
	if errors.As(err, &unavailable) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	var invalidData *domain.InvalidDataError
	var calcErr *domain.CalculationError
	if errors.As(err, &invalidData) || errors.As(err, &calcErr) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.WithError(err).WithField("path", r.URL.Path).Error("Backtest request failed")
	respondError(w, http.StatusInternalServerError, "Internal server error")
}
