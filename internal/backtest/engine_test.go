package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/metrics"
	"github.com/wonny/etfnav/backend/internal/s1_universe"
	"github.com/wonny/etfnav/backend/internal/scoring"
	"github.com/wonny/etfnav/backend/internal/selection"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newEngine(cfg Config, count int) *Engine {
	log := logger.Nop()
	return NewEngine(
		cfg,
		s1_universe.NewFilter(s1_universe.DefaultConfig(), log),
		metrics.NewCalculator(metrics.DefaultConfig(), nil, nil, log),
		scoring.NewEngine(scoring.DefaultConfig(), log),
		selection.NewSelector(count, log),
		nil,
		log,
	)
}

func newHistory(t *testing.T, series map[string][]contracts.Observation) *contracts.PriceHistory {
	t.Helper()
	raw := make(map[string]map[contracts.Field][]contracts.Observation)
	for ticker, obs := range series {
		raw[ticker] = map[contracts.Field][]contracts.Observation{contracts.FieldAdjClose: obs}
	}
	h, err := contracts.NewPriceHistory(raw)
	require.NoError(t, err)
	return h
}

func basket(tickers ...string) contracts.Recommendation {
	rec := contracts.Recommendation{Kind: contracts.ScoreUtility}
	for _, t := range tickers {
		rec.Items = append(rec.Items, contracts.ScoredInstrument{
			InstrumentMetrics: contracts.InstrumentMetrics{
				Ticker:              t,
				AnnualGrowthPct:     contracts.Some(4),
				AnnualVolatilityPct: contracts.Some(10),
			},
			Score: contracts.Some(1),
		})
	}
	return rec
}

func testProfile() contracts.UserProfile {
	return contracts.UserProfile{
		TimeHorizonYears:        5,
		DesiredGrowthPct:        5,
		FluctuationTolerancePct: 5,
		MaxDrawdownTolerancePct: 35,
		MinTrackRecordYears:     0,
		RiskWeight:              1,
		ReturnWeight:            1,
	}
}

func TestEvaluate_LosingBasketHasNegativeReward(t *testing.T) {
	from, to := date(2022, 1, 3), date(2023, 1, 3)
	h := newHistory(t, map[string][]contracts.Observation{
		"B": {{Date: from, Value: 100}, {Date: date(2022, 7, 4), Value: 90}, {Date: to, Value: 81}},
	})

	e := newEngine(DefaultConfig(), 5)
	got := e.Evaluate(contracts.BasketCustom, basket("B"), h, from, to, contracts.Some(0.02), testProfile())

	assert.Equal(t, 2, got.TestDays)
	assert.InDelta(t, 10.0, got.MeanShortfallPct.V, 1e-9)
	assert.InDelta(t, (math.Pow(0.9, 252)-1)*100, got.AnnualReturnPct.V, 1e-9)
	assert.Less(t, got.RewardToShortfall.V, 0.0)
	assert.InDelta(t, -19.0, got.MaxDrawdownPct.V, 1e-9)

	// constant returns have no dispersion
	assert.Equal(t, 0.0, got.VolatilityPct.V)
	assert.False(t, got.SharpeRatio.OK)
}

func TestEvaluate_EmptyBasket(t *testing.T) {
	from, to := date(2022, 1, 3), date(2023, 1, 3)
	h := newHistory(t, map[string][]contracts.Observation{
		"THIN": {{Date: date(2022, 5, 2), Value: 10}},
	})
	e := newEngine(DefaultConfig(), 5)

	for _, rec := range []contracts.Recommendation{basket(), basket("THIN", "MISSING")} {
		got := e.Evaluate(contracts.BasketSharpe, rec, h, from, to, contracts.Unavailable(), testProfile())
		assert.Equal(t, contracts.BasketSharpe, got.Label)
		assert.Equal(t, 0, got.TestDays)
		for _, o := range []contracts.Optional{
			got.AnnualReturnPct, got.VolatilityPct, got.SharpeRatio, got.SortinoRatio,
			got.MaxDrawdownPct, got.MeanShortfallPct, got.RewardToShortfall,
		} {
			assert.False(t, o.OK)
		}
	}
}

func TestBasketReturns_DateAligned(t *testing.T) {
	from, to := date(2022, 1, 3), date(2022, 1, 31)
	h := newHistory(t, map[string][]contracts.Observation{
		"X": {{Date: date(2022, 1, 3), Value: 100}, {Date: date(2022, 1, 4), Value: 110}, {Date: date(2022, 1, 5), Value: 110}},
		"Y": {{Date: date(2022, 1, 3), Value: 50}, {Date: date(2022, 1, 5), Value: 45}},
	})

	got := basketReturns([]string{"X", "Y"}, h, from, to)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.10, got[0], 1e-12)          // X only
	assert.InDelta(t, (0.0+-0.10)/2, got[1], 1e-12) // X and Y
}

func TestEvaluate_WeightedShortfall(t *testing.T) {
	from, to := date(2022, 1, 3), date(2022, 1, 6)
	h := newHistory(t, map[string][]contracts.Observation{
		"Z": {{Date: from, Value: 100}, {Date: date(2022, 1, 4), Value: 101}, {Date: date(2022, 1, 5), Value: 99}, {Date: to, Value: 100}},
	})
	p := testProfile()
	p.RiskWeight, p.ReturnWeight = 3, 1

	plain := newEngine(DefaultConfig(), 5).Evaluate("x", basket("Z"), h, from, to, contracts.Unavailable(), p)
	cfg := DefaultConfig()
	cfg.WeightedShortfall = true
	weighted := newEngine(cfg, 5).Evaluate("x", basket("Z"), h, from, to, contracts.Unavailable(), p)

	assert.InDelta(t, plain.AnnualReturnPct.V-plain.MeanShortfallPct.V, plain.RewardToShortfall.V, 1e-9)
	assert.InDelta(t, plain.AnnualReturnPct.V-3*plain.MeanShortfallPct.V, weighted.RewardToShortfall.V, 1e-9)
	assert.False(t, plain.SortinoRatio.OK) // single negative day
	assert.True(t, plain.VolatilityPct.OK)
}

// series builds weekly prices from 2015 with a drift and a wobble
func series(annual, wobble, freq float64, until time.Time) []contracts.Observation {
	var out []contracts.Observation
	start := date(2015, 1, 5)
	for i := 0; ; i++ {
		d := start.AddDate(0, 0, 7*i)
		if d.After(until) {
			break
		}
		years := float64(i) / 52
		p := 100 * math.Pow(1+annual, years) * (1 + wobble*math.Sin(float64(i)*freq))
		out = append(out, contracts.Observation{Date: d, Value: p})
	}
	return out
}

func riskFree(t *testing.T) contracts.RiskFreeSeries {
	t.Helper()
	var obs []contracts.Observation
	for d := date(2010, 1, 1); d.Before(date(2024, 6, 1)); d = d.AddDate(0, 1, 0) {
		obs = append(obs, contracts.Observation{Date: d, Value: 2})
	}
	rf, err := contracts.NewRiskFreeSeries(obs)
	require.NoError(t, err)
	return rf
}

func TestRun_NeverReadsPastTrainEnd(t *testing.T) {
	now := date(2024, 1, 1)
	trainEnd := date(2023, 1, 1)

	steady := series(0.08, 0.01, 1.0, now)
	flat := series(0.01, 0.02, 0.7, now)

	spiked := make([]contracts.Observation, len(flat))
	copy(spiked, flat)
	for i := range spiked {
		if spiked[i].Date.After(trainEnd) {
			spiked[i].Value = 1e6 // sentinel
			break
		}
	}

	clean := newHistory(t, map[string][]contracts.Observation{"STEADY": steady, "SPIKE": flat})
	dirty := newHistory(t, map[string][]contracts.Observation{"STEADY": steady, "SPIKE": spiked})

	e := newEngine(DefaultConfig(), 1)
	req := Request{
		Profile:         testProfile(),
		Universe:        []string{"SPIKE", "STEADY"},
		RiskFree:        riskFree(t),
		Now:             now,
		TestPeriodYears: 1,
	}

	req.History = clean
	base, err := e.Run(context.Background(), req)
	require.NoError(t, err)

	req.History = dirty
	got, err := e.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, trainEnd, got.TrainEnd)
	assert.Equal(t, now, got.TestEnd)
	assert.Equal(t, []string{"STEADY"}, got.Custom.Tickers)
	assert.Equal(t, []string{"STEADY"}, got.Sharpe.Tickers)
	assert.Equal(t, base.Custom.Tickers, got.Custom.Tickers)
	assert.Equal(t, base.Sharpe.Tickers, got.Sharpe.Tickers)
	assert.Equal(t, base.Custom.TrainAnnualGrowthPct, got.Custom.TrainAnnualGrowthPct)
	assert.Equal(t, base.Sharpe.TrainVolatilityPct, got.Sharpe.TrainVolatilityPct)
	assert.True(t, got.Custom.AnnualReturnPct.OK)
}

func TestRun_MissingRiskFree(t *testing.T) {
	now := date(2024, 1, 1)
	h := newHistory(t, map[string][]contracts.Observation{"A": series(0.05, 0.01, 1, now)})

	_, err := newEngine(DefaultConfig(), 5).Run(context.Background(), Request{
		Profile:  testProfile(),
		Universe: []string{"A"},
		History:  h,
		Now:      now,
	})
	assert.ErrorIs(t, err, contracts.ErrNoRiskFreeData)
}

func TestSweep_SkipsFailingProfiles(t *testing.T) {
	now := date(2024, 1, 1)
	h := newHistory(t, map[string][]contracts.Observation{
		"A": series(0.05, 0.01, 1, now),
		"B": series(0.03, 0.02, 0.5, now),
	})

	bad := testProfile()
	bad.TimeHorizonYears = 0

	e := newEngine(DefaultConfig(), 2)
	got, err := e.Sweep(context.Background(), Request{
		Universe: []string{"A", "B"},
		History:  h,
		RiskFree: riskFree(t),
		Now:      now,
	}, []contracts.UserProfile{testProfile(), bad, contracts.DiagonalProfiles()[2]})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Sweep(ctx, Request{History: h, RiskFree: riskFree(t), Now: now}, []contracts.UserProfile{testProfile()})
	assert.ErrorIs(t, err, context.Canceled)
}
