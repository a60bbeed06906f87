package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/etfnav/backend/internal/backtest"
	"github.com/wonny/etfnav/backend/internal/brain"
	"github.com/wonny/etfnav/backend/internal/cache"
	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/external/boc"
	"github.com/wonny/etfnav/backend/internal/external/ishares"
	"github.com/wonny/etfnav/backend/internal/matching"
	"github.com/wonny/etfnav/backend/internal/metrics"
	"github.com/wonny/etfnav/backend/internal/observability"
	"github.com/wonny/etfnav/backend/internal/s0_data"
	"github.com/wonny/etfnav/backend/internal/s0_data/quality"
	"github.com/wonny/etfnav/backend/internal/s1_universe"
	"github.com/wonny/etfnav/backend/internal/scoring"
	"github.com/wonny/etfnav/backend/internal/selection"
	"github.com/wonny/etfnav/backend/internal/strategyconfig"
	"github.com/wonny/etfnav/backend/pkg/config"
	"github.com/wonny/etfnav/backend/pkg/database"
	"github.com/wonny/etfnav/backend/pkg/logger"
	"github.com/wonny/etfnav/backend/pkg/redis"
)

// app holds the wired pipeline shared by every command
type app struct {
	cfg           *config.Config
	log           *logger.Logger
	policy        *strategyconfig.Config
	metrics       *observability.Metrics
	cache         cache.Store
	prices        contracts.PriceStore
	riskFree      contracts.RiskFreeRateProvider
	riskFreeStart time.Time
	universe      []string
	calculator    *metrics.Calculator
	orchestrator  *brain.Orchestrator
	backtester    *backtest.Engine
	runs          *selection.Repository // nil unless PostgreSQL is configured

	closers []func()
}

// newApp loads configuration and wires every stage
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load strategy policy
	path := strategyFile
	if path == "" {
		path = cfg.Engine.StrategyPath
	}
	policy, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	for _, w := range strategyconfig.Warn(policy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		policy:   policy,
		universe: ishares.DefaultUniverse(),
	}
	if cfg.MetricsEnabled {
		a.metrics = observability.NewMetrics()
	}

	// 4. Cache (Redis when enabled, in-process otherwise)
	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() { rdb.Close() })
	a.cache = cache.New(rdb, "etfnav", log)

	// 5. Price source
	if err := a.initPrices(ctx); err != nil {
		a.close()
		return nil, err
	}

	// 6. Risk-free provider
	a.riskFreeStart, _ = time.Parse(contracts.DateLayout, cfg.RiskFree.StartDate)
	a.riskFree = boc.NewCachedProvider(
		boc.NewClient(cfg.RiskFree, log),
		a.cache, cfg.RiskFree.CacheTTL, cfg.RiskFree.SeriesKey, a.metrics, log,
	)

	// 7. Pipeline stages
	workers := cfg.Engine.Workers
	filter := s1_universe.NewFilter(s1_universe.ConfigFrom(policy.Drawdown, workers), log)
	a.calculator = metrics.NewCalculator(metrics.ConfigFrom(policy.Metrics, workers, cfg.Engine.MetricsCacheTTL), a.cache, a.metrics, log)
	scorer := scoring.NewEngine(scoring.ConfigFrom(policy.Scoring), log)
	quadrant := selection.NewQuadrantFilter(selection.QuadrantConfig{MinCandidates: policy.Candidates.MinCandidates}, log)
	matcher := matching.NewMatcher(matching.Config{K: policy.Candidates.NeighborK}, log)

	components := brain.Components{
		QualityGate: quality.NewQualityGate(quality.DefaultConfig()),
		Filter:      filter,
		Calculator:  a.calculator,
		Quadrant:    quadrant,
		Matcher:     matcher,
		Scorer:      scorer,
		Count:       policy.Selection.RecommendationCount,
		Metrics:     a.metrics,
	}
	if a.runs != nil {
		components.Store = a.runs
	}
	a.orchestrator = brain.NewOrchestrator(components, log)

	a.backtester = backtest.NewEngine(
		backtest.ConfigFrom(policy),
		filter, a.calculator, scorer,
		selection.NewSelector(policy.Selection.RecommendationCount, log),
		a.metrics, log,
	)

	log.WithFields(map[string]interface{}{
		"strategy":     policy.Meta.StrategyID,
		"price_source": cfg.Engine.PriceSource,
		"universe":     len(a.universe),
		"redis":        rdb.Enabled(),
	}).Debug("Pipeline wired")

	return a, nil
}

func (a *app) initPrices(ctx context.Context) error {
	switch a.cfg.Engine.PriceSource {
	case config.PriceSourcePostgres:
		db, err := database.New(ctx, a.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		prices := s0_data.NewPriceRepository(db.Pool)
		if err := prices.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure price schema: %w", err)
		}
		runs := selection.NewRepository(db.Pool)
		if err := runs.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure recommendation schema: %w", err)
		}
		a.prices = prices
		a.runs = runs

	default:
		if a.cfg.Engine.PriceFile == "" {
			return fmt.Errorf("PRICE_FILE is required when PRICE_SOURCE=memory")
		}
		store, err := s0_data.LoadFile(a.cfg.Engine.PriceFile)
		if err != nil {
			return fmt.Errorf("load price file: %w", err)
		}
		a.prices = store
	}
	return nil
}

// load fetches prices for tickers and the full risk-free series
func (a *app) load(ctx context.Context, tickers []string) (*contracts.PriceHistory, contracts.RiskFreeSeries, error) {
	history, err := a.prices.Load(ctx, tickers)
	if err != nil {
		return nil, contracts.RiskFreeSeries{}, fmt.Errorf("load prices: %w", err)
	}
	riskFree, err := a.riskFree.Fetch(ctx, a.riskFreeStart)
	if err != nil {
		return nil, contracts.RiskFreeSeries{}, fmt.Errorf("fetch risk-free: %w", err)
	}
	return history, riskFree, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
