package marketdata

import (
	"context"
	"time"

	"github.com/WENLIN-CHANG/BackTester/pkg/logger"
	"github.com/WENLIN-CHANG/BackTester/pkg/redis"
)

// SeriesCache is the subset of the redis cache helper the decorator
// needs; split out so tests can supply a fake.
type SeriesCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedProvider decorates a Provider with a TTL cache keyed by
// (symbol, from, to). Cache failures degrade to fetching; they are
// logged, never surfaced.
type CachedProvider struct {
	inner  Provider
	cache  SeriesCache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedProvider wraps a provider with the cache.
func NewCachedProvider(inner Provider, cache SeriesCache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

// FetchDailySeries returns the cached series when present, otherwise
// fetches from the inner provider and stores the result.
func (p *CachedProvider) FetchDailySeries(ctx context.Context, symbol string, from, to time.Time) (*Series, error) {
	key := redis.PriceSeriesKey(symbol, from, to)

	var cached Series
	found, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.logger.WithError(err).WithField("symbol", symbol).Warn("Price cache read failed")
	}
	if found {
		p.logger.WithField("symbol", symbol).Debug("Price cache hit")
		return &cached, nil
	}

	series, err := p.inner.FetchDailySeries(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, series, p.ttl); err != nil {
		p.logger.WithError(err).WithField("symbol", symbol).Warn("Price cache write failed")
	}

	return series, nil
}
