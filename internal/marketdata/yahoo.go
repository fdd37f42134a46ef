package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/WENLIN-CHANG/BackTester/internal/domain"
	"github.com/WENLIN-CHANG/BackTester/pkg/config"
	"github.com/WENLIN-CHANG/BackTester/pkg/httputil"
	"github.com/WENLIN-CHANG/BackTester/pkg/logger"
)

// YahooClient fetches daily price series from the Yahoo Finance chart
// API. Requests are rate limited because the unauthenticated endpoint
// throttles aggressively.
type YahooClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.YahooConfig
	limiter    *rate.Limiter
}

// NewYahooClient creates a new Yahoo Finance client.
func NewYahooClient(cfg config.YahooConfig, httpClient *httputil.Client, log *logger.Logger) *YahooClient {
	return &YahooClient{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

// chartResponse mirrors the subset of the chart API payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency         string `json:"currency"`
				Symbol           string `json:"symbol"`
				FullExchangeName string `json:"fullExchangeName"`
				LongName         string `json:"longName"`
				ShortName        string `json:"shortName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDailySeries fetches the daily close series for a symbol. Rows
// with missing or non-positive closes are skipped; fewer usable points
// than the configured minimum is a DataUnavailableError.
func (c *YahooClient) FetchDailySeries(ctx context.Context, symbol string, from, to time.Time) (*Series, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	fullURL := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history",
		c.cfg.BaseURL, url.PathEscape(symbol), from.Unix(), to.Unix(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errUnavailable(symbol, "no data for window %s ~ %s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	series, err := c.parseChartResponse(symbol, body)
	if err != nil {
		return nil, err
	}

	// Fall back to scraping the quote page when the chart meta carries
	// no usable display name.
	if series.Info.Name == "" || series.Info.Name == symbol {
		if info, err := c.FetchProfile(ctx, symbol); err == nil && info.Name != "" {
			series.Info.Name = info.Name
			if series.Info.Exchange == "" {
				series.Info.Exchange = info.Exchange
			}
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(series.Prices),
	}).Debug("Fetched daily series")

	return series, nil
}

// parseChartResponse converts a chart API payload into a Series.
func (c *YahooClient) parseChartResponse(symbol string, body []byte) (*Series, error) {
	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}

	if payload.Chart.Error != nil {
		return nil, errUnavailable(symbol, "%s: %s",
			payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, errUnavailable(symbol, "empty chart result")
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, errUnavailable(symbol, "no quote data in chart result")
	}
	closes := result.Indicators.Quote[0].Close

	prices := make([]domain.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		p, err := domain.NewPricePoint(time.Unix(ts, 0).UTC(), *closes[i])
		if err != nil {
			continue // skip non-positive closes
		}
		prices = append(prices, p)
	}

	if len(prices) < c.cfg.MinDataPoints {
		return nil, errUnavailable(symbol, "insufficient data: only %d trading days found (minimum %d)",
			len(prices), c.cfg.MinDataPoints)
	}

	name := result.Meta.LongName
	if name == "" {
		name = result.Meta.ShortName
	}
	if name == "" {
		name = symbol
	}

	return &Series{
		Info: domain.StockInfo{
			Symbol:   symbol,
			Name:     name,
			Currency: result.Meta.Currency,
			Exchange: result.Meta.FullExchangeName,
		},
		Prices: prices,
	}, nil
}

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
