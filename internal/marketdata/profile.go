package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/WENLIN-CHANG/BackTester/internal/domain"
)

// FetchProfile scrapes the Yahoo Finance quote page for a security's
// display name and exchange. Used as a fallback when the chart API meta
// carries no name; the page is more stable than the unauthenticated
// quoteSummary endpoint.
func (c *YahooClient) FetchProfile(ctx context.Context, symbol string) (domain.StockInfo, error) {
	fullURL := fmt.Sprintf("%s/quote/%s/", c.cfg.QuoteBaseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.StockInfo{}, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.StockInfo{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.StockInfo{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.StockInfo{}, fmt.Errorf("parse quote page failed: %w", err)
	}

	return parseProfileDocument(symbol, doc), nil
}

// parseProfileDocument extracts the metadata record from a quote page.
// The h1 reads "Apple Inc. (AAPL)"; the exchange line reads
// "NasdaqGS - Nasdaq Real Time Price. Currency in USD".
func parseProfileDocument(symbol string, doc *goquery.Document) domain.StockInfo {
	info := domain.StockInfo{Symbol: symbol}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if idx := strings.LastIndex(title, "("); idx > 0 {
		info.Name = strings.TrimSpace(title[:idx])
	} else {
		info.Name = title
	}

	doc.Find("span.exchange span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text != "" && info.Exchange == "" {
			info.Exchange = strings.TrimSuffix(text, " -")
			return false
		}
		return true
	})

	return info
}
