package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/observability"
	"github.com/wonny/etfnav/backend/internal/scoring"
	"github.com/wonny/etfnav/backend/internal/selection"
	"github.com/wonny/etfnav/backend/internal/strategyconfig"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// Config holds backtest configuration
type Config struct {
	TestPeriodYears    int
	TradingDaysPerYear int
	WeightedShortfall  bool    // reward = return_w × annual − risk_w × shortfall
	VaRConfidence      float64 // daily historical VaR level
}

// DefaultConfig returns a 1-year test window
func DefaultConfig() Config {
	return ConfigFrom(strategyconfig.Default())
}

// ConfigFrom applies the strategy policy
func ConfigFrom(policy *strategyconfig.Config) Config {
	return Config{
		TestPeriodYears:    policy.Backtest.TestPeriodYears,
		TradingDaysPerYear: policy.Metrics.TradingDaysPerYear,
		WeightedShortfall:  policy.Backtest.WeightedShortfall,
		VaRConfidence:      policy.Backtest.VaRConfidence,
	}
}

// Request is one train/test run
type Request struct {
	Profile         contracts.UserProfile
	Universe        []string
	History         *contracts.PriceHistory
	RiskFree        contracts.RiskFreeSeries
	Now             time.Time
	TestPeriodYears int // 0 uses the configured period
}

// Engine runs train/test backtests of both scoring models
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	config     Config
	filter     contracts.DrawdownFilter
	calculator contracts.MetricsCalculator
	scorer     *scoring.Engine
	selector   *selection.Selector
	metrics    *observability.Metrics
	logger     *logger.Logger
}

// NewEngine creates a new backtest engine
func NewEngine(
	config Config,
	filter contracts.DrawdownFilter,
	calculator contracts.MetricsCalculator,
	scorer *scoring.Engine,
	selector *selection.Selector,
	m *observability.Metrics,
	logger *logger.Logger,
) *Engine {
	if config.TestPeriodYears < 1 {
		config.TestPeriodYears = 1
	}
	if config.TradingDaysPerYear < 1 {
		config.TradingDaysPerYear = 252
	}
	if config.VaRConfidence <= 0 || config.VaRConfidence >= 1 {
		config.VaRConfidence = 0.95
	}
	return &Engine{
		config:     config,
		filter:     filter,
		calculator: calculator,
		scorer:     scorer,
		selector:   selector,
		metrics:    m,
		logger:     logger,
	}
}

// Run selects both baskets using only data up to now − test period, then
// measures them over [trainEnd, now].
func (e *Engine) Run(ctx context.Context, req Request) (result *contracts.Comparison, err error) {
	start := time.Now()
	defer func() {
		e.metrics.ObserveStage(string(contracts.StageBacktest), time.Since(start), 2, err)
	}()

	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}

	years := req.TestPeriodYears
	if years < 1 {
		years = e.config.TestPeriodYears
	}
	now := contracts.Day(req.Now)
	trainEnd := contracts.YearsBefore(now, years)
	profile := req.Profile

	e.logger.WithFields(map[string]interface{}{
		"train_end": trainEnd.Format(contracts.DateLayout),
		"test_end":  now.Format(contracts.DateLayout),
		"universe":  len(req.Universe),
		"horizon":   profile.TimeHorizonYears,
	}).Info("Starting backtest")

	// ⭐ 학습 구간: trainEnd 이후 데이터는 절대 사용하지 않음
	trainHistory := req.History.Until(trainEnd)
	trainRiskFree := req.RiskFree.Until(trainEnd)

	universe, err := e.filter.Apply(ctx, req.Universe, trainHistory, profile.MaxDrawdownTolerancePct, profile.MinTrackRecordYears, trainEnd)
	if err != nil {
		return nil, fmt.Errorf("drawdown filter: %w", err)
	}

	rows, err := e.calculator.Calculate(ctx, universe.Tickers, profile.TimeHorizonYears, trainHistory, trainEnd)
	if err != nil {
		return nil, fmt.Errorf("training metrics: %w", err)
	}

	scores, err := e.scorer.Score(rows, trainRiskFree, profile, trainEnd)
	if err != nil {
		return nil, fmt.Errorf("training scores: %w", err)
	}

	custom := e.selector.Select(contracts.ScoreUtility, trainEnd, scores.Utility)
	sharpe := e.selector.Select(contracts.ScoreRatio, trainEnd, scores.Ratio)

	testRF := testRiskFree(req.RiskFree, trainEnd, now)

	result = &contracts.Comparison{
		Profile:  profile,
		TrainEnd: trainEnd,
		TestEnd:  now,
		Custom:   e.Evaluate(contracts.BasketCustom, custom, req.History, trainEnd, now, testRF, profile),
		Sharpe:   e.Evaluate(contracts.BasketSharpe, sharpe, req.History, trainEnd, now, testRF, profile),
	}

	e.logger.WithFields(map[string]interface{}{
		"custom_tickers": result.Custom.Tickers,
		"sharpe_tickers": result.Sharpe.Tickers,
		"custom_reward":  result.Custom.RewardToShortfall,
		"sharpe_reward":  result.Sharpe.RewardToShortfall,
		"duration":       time.Since(start).Seconds(),
	}).Info("Backtest completed")

	return result, nil
}

// Sweep runs the backtest once per profile. Failing profiles are logged and skipped.
func (e *Engine) Sweep(ctx context.Context, base Request, profiles []contracts.UserProfile) ([]contracts.Comparison, error) {
	out := make([]contracts.Comparison, 0, len(profiles))

	for i, p := range profiles {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		req := base
		req.Profile = p
		cmp, err := e.Run(ctx, req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return out, err
			}
			e.logger.WithFields(map[string]interface{}{
				"profile_index": i,
				"horizon":       p.TimeHorizonYears,
				"error":         err.Error(),
			}).Warn("Sweep profile failed")
			continue
		}
		out = append(out, *cmp)
	}

	e.logger.WithFields(map[string]interface{}{
		"profiles":  len(profiles),
		"completed": len(out),
	}).Info("Sweep completed")

	return out, nil
}

// testRiskFree returns the mean yield over the test window as a fraction
func testRiskFree(series contracts.RiskFreeSeries, from, to time.Time) contracts.Optional {
	yields := series.Window(from, to).Yields()
	if len(yields) == 0 {
		return contracts.Unavailable()
	}
	return contracts.Some(stat.Mean(yields, nil) / 100)
}
