package boc

import (
	"context"
	"time"

	"github.com/wonny/etfnav/backend/internal/cache"
	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/observability"
	"github.com/wonny/etfnav/backend/pkg/logger"
	"github.com/wonny/etfnav/backend/pkg/redis"
)

const cacheType = "risk_free"

// CachedProvider wraps a provider with a write-once TTL cache
type CachedProvider struct {
	inner   contracts.RiskFreeRateProvider
	store   cache.Store
	ttl     time.Duration
	series  string
	metrics *observability.Metrics
	logger  *logger.Logger
}

// NewCachedProvider creates a caching provider. series namespaces the cache key.
func NewCachedProvider(inner contracts.RiskFreeRateProvider, store cache.Store, ttl time.Duration, series string, metrics *observability.Metrics, log *logger.Logger) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		series:  series,
		metrics: metrics,
		logger:  log,
	}
}

// Fetch serves from cache or delegates; upstream errors are never cached
func (p *CachedProvider) Fetch(ctx context.Context, start time.Time) (contracts.RiskFreeSeries, error) {
	key := redis.RiskFreeKey(p.series, start)

	var cached []contracts.Observation
	found, err := p.store.Get(ctx, key, &cached)
	if err != nil {
		p.logger.WithError(err).Warn("Risk-free cache read failed")
	}
	if found {
		p.metrics.CacheHit(cacheType)
		return contracts.NewRiskFreeSeries(cached)
	}
	p.metrics.CacheMiss(cacheType)

	series, err := p.inner.Fetch(ctx, start)
	if err != nil {
		p.metrics.UpstreamError("boc")
		return contracts.RiskFreeSeries{}, err
	}

	if _, err := p.store.SetOnce(ctx, key, series.Observations(), p.ttl); err != nil {
		p.logger.WithError(err).Warn("Risk-free cache write failed")
	}
	return series, nil
}
