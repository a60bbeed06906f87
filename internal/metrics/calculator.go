package metrics

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/etfnav/backend/internal/cache"
	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/observability"
	"github.com/wonny/etfnav/backend/internal/strategyconfig"
	"github.com/wonny/etfnav/backend/pkg/logger"
	"github.com/wonny/etfnav/backend/pkg/redis"
)

const cacheType = "metrics"

// Config holds calculator settings
type Config struct {
	Workers                   int
	CacheTTL                  time.Duration
	TradingDaysPerYear        int
	DaysPerYear               float64
	VolatilityScalingExponent float64
}

// DefaultConfig returns default calculator settings
func DefaultConfig() Config {
	return Config{
		Workers:                   runtime.NumCPU(),
		CacheTTL:                  redis.TTLMetrics,
		TradingDaysPerYear:        252,
		DaysPerYear:               365.25,
		VolatilityScalingExponent: 0.5,
	}
}

// ConfigFrom applies the strategy policy over runtime settings
func ConfigFrom(policy strategyconfig.Metrics, workers int, ttl time.Duration) Config {
	return Config{
		Workers:                   workers,
		CacheTTL:                  ttl,
		TradingDaysPerYear:        policy.TradingDaysPerYear,
		DaysPerYear:               policy.DaysPerYear,
		VolatilityScalingExponent: policy.VolatilityScalingExponent,
	}
}

// Calculator computes horizon growth and volatility per ticker
// ⭐ SSOT: S1 지표 계산은 여기서만
type Calculator struct {
	config  Config
	policy  string
	cache   cache.Store
	metrics *observability.Metrics
	logger  *logger.Logger
}

// NewCalculator creates a calculator. store may be nil to disable caching.
func NewCalculator(config Config, store cache.Store, m *observability.Metrics, log *logger.Logger) *Calculator {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Calculator{
		config:  config,
		policy:  policyTag(config),
		cache:   store,
		metrics: m,
		logger:  log,
	}
}

// policyTag keys cached rows to the settings that shape them
func policyTag(config Config) string {
	sum, err := strategyconfig.HashSection(strategyconfig.Metrics{
		TradingDaysPerYear:        config.TradingDaysPerYear,
		DaysPerYear:               config.DaysPerYear,
		VolatilityScalingExponent: config.VolatilityScalingExponent,
	})
	if err != nil {
		return "default"
	}
	return sum[:12]
}

// Calculate returns one row per input ticker, in input order.
// Missing or thin tickers yield unavailable rows; only context cancellation is an error.
// Rows are cached per ticker, so any subset of a warmed universe is served from cache.
func (c *Calculator) Calculate(ctx context.Context, tickers []string, horizonYears int, history *contracts.PriceHistory, ref time.Time) ([]contracts.InstrumentMetrics, error) {
	ref = contracts.Day(ref)

	results := make([]contracts.InstrumentMetrics, len(tickers))
	pending := make([]int, 0, len(tickers))
	for i, ticker := range tickers {
		if row, ok := c.fromCache(ctx, ticker, horizonYears, ref); ok {
			results[i] = row
			continue
		}
		pending = append(pending, i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)
	for _, i := range pending {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.compute(tickers[i], horizonYears, history, ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("calculate metrics: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("calculate metrics: %w", err)
	}

	for _, i := range pending {
		c.toCache(ctx, results[i], ref)
	}

	c.logger.WithFields(map[string]interface{}{
		"tickers":   len(tickers),
		"cached":    len(tickers) - len(pending),
		"valid":     len(contracts.ValidOnly(results)),
		"horizon":   horizonYears,
		"reference": ref.Format(contracts.DateLayout),
	}).Debug("Metrics calculated")

	return results, nil
}

func (c *Calculator) compute(ticker string, horizonYears int, history *contracts.PriceHistory, ref time.Time) contracts.InstrumentMetrics {
	row := contracts.InstrumentMetrics{Ticker: ticker, HorizonYears: horizonYears}
	if !history.Has(ticker) {
		row.Reason = contracts.ReasonMissingTicker
		return row
	}

	window := history.AdjClose(ticker).Window(contracts.YearsBefore(ref, horizonYears), ref)
	growth, vol, err := c.HorizonStats(window)
	if err != nil {
		row.Reason = contracts.ReasonInsufficientData
		return row
	}

	row.AnnualGrowthPct = growth
	row.AnnualVolatilityPct = vol
	if !vol.OK {
		row.Reason = contracts.ReasonInsufficientData
	}
	return row
}

// HorizonStats computes CAGR and scaled volatility over a price window.
// The elapsed span of the window, not the nominal horizon, sets the annualization.
func (c *Calculator) HorizonStats(window contracts.PriceSeries) (growth, volatility contracts.Optional, err error) {
	if window.Len() < 2 {
		return contracts.Unavailable(), contracts.Unavailable(), contracts.ErrInsufficientData
	}

	first, _ := window.First()
	last, _ := window.Last()
	actualYears := last.Date.Sub(first.Date).Hours() / 24 / c.config.DaysPerYear

	growth = contracts.Some((math.Pow(last.Value/first.Value, 1/actualYears) - 1) * 100)

	returns := DailyReturns(window.Values())
	annualStd := stat.StdDev(returns, nil) * math.Sqrt(float64(c.config.TradingDaysPerYear)) * 100
	scaled := annualStd / math.Pow(actualYears, c.config.VolatilityScalingExponent)
	volatility = contracts.Some(scaled).Round(2)

	return growth, volatility, nil
}

// DailyReturns returns simple percent changes between consecutive prices
func DailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = prices[i]/prices[i-1] - 1
	}
	return out
}

func (c *Calculator) cacheKey(ticker string, horizonYears int, ref time.Time) string {
	return redis.MetricsKey(c.policy, ticker, horizonYears, ref)
}

func (c *Calculator) fromCache(ctx context.Context, ticker string, horizonYears int, ref time.Time) (contracts.InstrumentMetrics, bool) {
	var row contracts.InstrumentMetrics
	if c.cache == nil {
		return row, false
	}

	found, err := c.cache.Get(ctx, c.cacheKey(ticker, horizonYears, ref), &row)
	if err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("Metrics cache read failed")
	}
	if !found || row.Ticker != ticker {
		c.metrics.CacheMiss(cacheType)
		return contracts.InstrumentMetrics{}, false
	}

	c.metrics.CacheHit(cacheType)
	return row, true
}

func (c *Calculator) toCache(ctx context.Context, row contracts.InstrumentMetrics, ref time.Time) {
	if c.cache == nil {
		return
	}
	key := c.cacheKey(row.Ticker, row.HorizonYears, ref)
	if _, err := c.cache.SetOnce(ctx, key, row, c.config.CacheTTL); err != nil {
		c.logger.WithError(err).WithField("ticker", row.Ticker).Warn("Metrics cache write failed")
	}
}
