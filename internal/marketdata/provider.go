// Package marketdata fetches historical close-price series from Yahoo
// Finance and adapts them to the domain model. It owns the upstream
// error kind: the backtest engine never generates or reinterprets a
// DataUnavailableError, it only receives clean series.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/WENLIN-CHANG/BackTester/internal/domain"
)

// Series is one security's chronologically ordered close-price history
// together with its resolved metadata.
type Series struct {
	Info   domain.StockInfo    `json:"info"`
	Prices []domain.PricePoint `json:"prices"`
}

// Provider supplies daily close-price series. Implementations must
// return series ordered ascending by date with every close positive.
type Provider interface {
	FetchDailySeries(ctx context.Context, symbol string, from, to time.Time) (*Series, error)
}

// DataUnavailableError reports that the upstream provider could not
// supply a usable series for a symbol: unknown ticker, empty window, or
// fewer usable points than the configured minimum.
type DataUnavailableError struct {
	Symbol string
	Msg    string
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", e.Symbol, e.Msg)
}

func errUnavailable(symbol, format string, args ...interface{}) *DataUnavailableError {
	return &DataUnavailableError{Symbol: symbol, Msg: fmt.Sprintf(format, args...)}
}
