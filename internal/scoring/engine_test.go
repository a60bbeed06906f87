package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/metrics"
	"github.com/wonny/etfnav/backend/internal/strategyconfig"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

func row(ticker string, growth, vol float64) contracts.InstrumentMetrics {
	return contracts.InstrumentMetrics{
		Ticker:              ticker,
		HorizonYears:        5,
		AnnualGrowthPct:     contracts.Some(growth),
		AnnualVolatilityPct: contracts.Some(vol),
	}
}

func tickers(rows []contracts.ScoredInstrument) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Ticker
	}
	return out
}

func profile(risk, ret float64) contracts.UserProfile {
	return contracts.UserProfile{
		TimeHorizonYears:        5,
		DesiredGrowthPct:        5,
		FluctuationTolerancePct: 10,
		MaxDrawdownTolerancePct: 35,
		RiskWeight:              risk,
		ReturnWeight:            ret,
	}
}

func flatRiskFree(t *testing.T, pct float64, from, to time.Time) contracts.RiskFreeSeries {
	t.Helper()
	var obs []contracts.Observation
	for d := from; !d.After(to); d = d.AddDate(0, 1, 0) {
		obs = append(obs, contracts.Observation{Date: d, Value: pct})
	}
	s, err := contracts.NewRiskFreeSeries(obs)
	require.NoError(t, err)
	return s
}

func TestRatio(t *testing.T) {
	e := NewEngine(DefaultConfig(), logger.Nop())
	rows := []contracts.InstrumentMetrics{
		row("A", 10, 10),
		row("B", 6, 2),
		{Ticker: "C", AnnualGrowthPct: contracts.Some(30)},
		row("D", 2, 4),
		row("E", 18, 20),
	}

	got := e.Ratio(rows, 2)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"B", "A", "E", "D"}, tickers(got))
	assert.InDelta(t, 2.0, got[0].Score.V, 1e-12)
	assert.InDelta(t, 4.0, got[0].ExcessReturnPct, 1e-12)
	assert.Equal(t, contracts.ScoreRatio, got[0].Kind)
	// tie at 0.8 keeps input order
	assert.InDelta(t, got[1].Score.V, got[2].Score.V, 1e-12)
}

func TestRatio_ShiftInvariant(t *testing.T) {
	e := NewEngine(DefaultConfig(), logger.Nop())
	rows := []contracts.InstrumentMetrics{
		row("A", 4, 5), row("B", 9, 5), row("C", -3, 5), row("D", 7, 5), row("E", 0.5, 5),
	}

	base := tickers(e.Ratio(rows, 2))
	for _, rf := range []float64{-5, 0, 1.5, 8, 40} {
		assert.Equal(t, base, tickers(e.Ratio(rows, rf)), "rf=%v", rf)
	}
}

func TestRatio_TwoInstrumentScenario(t *testing.T) {
	ref := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := map[string]map[contracts.Field][]contracts.Observation{
		"A": {contracts.FieldAdjClose: {
			{Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Value: 100},
			{Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Value: 110},
			{Date: ref, Value: 121},
		}},
		"B": {contracts.FieldAdjClose: {
			{Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Value: 100},
			{Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Value: 90},
			{Date: ref, Value: 81},
		}},
	}
	h, err := contracts.NewPriceHistory(raw)
	require.NoError(t, err)

	calc := metrics.NewCalculator(metrics.DefaultConfig(), nil, nil, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	rows, err := calc.Calculate(ctx, []string{"B", "A"}, 2, h, ref)
	require.NoError(t, err)

	rf := flatRiskFree(t, 2, ref.AddDate(-3, 0, 0), ref)
	scores, err := NewEngine(DefaultConfig(), logger.Nop()).Score(rows, rf, profile(1, 1), ref)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, scores.RiskFreePct, 1e-12)
	assert.Equal(t, []string{"A", "B"}, tickers(scores.Ratio))
	assert.Greater(t, scores.Ratio[0].Score.V, 0.0)
	assert.Less(t, scores.Ratio[1].Score.V, 0.0)
}

func TestUtility_Max(t *testing.T) {
	e := NewEngine(DefaultConfig(), logger.Nop())
	rows := []contracts.InstrumentMetrics{
		row("A", 12, 20), // excess 10
		row("B", 7, 5),   // excess 5
		row("C", 2, 10),  // excess 0
	}

	got := e.Utility(rows, 2, profile(1, 1))
	require.Len(t, got, 3)

	byTicker := map[string]contracts.ScoredInstrument{}
	for _, s := range got {
		byTicker[s.Ticker] = s
	}
	// 0.5*(10/10) - 0.5*(20/20)
	assert.InDelta(t, 0.0, byTicker["A"].Score.V, 1e-12)
	// 0.5*(5/10) - 0.5*(5/20)
	assert.InDelta(t, 0.125, byTicker["B"].Score.V, 1e-12)
	// 0.5*0 - 0.5*(10/20)
	assert.InDelta(t, -0.25, byTicker["C"].Score.V, 1e-12)
	assert.Equal(t, []string{"B", "A", "C"}, tickers(got))
	assert.Equal(t, contracts.ScoreUtility, got[0].Kind)
	assert.True(t, got[0].NormExcess.OK)
}

func TestUtility_WeightsShiftRanking(t *testing.T) {
	e := NewEngine(DefaultConfig(), logger.Nop())
	rows := []contracts.InstrumentMetrics{
		row("AGGR", 20, 30),
		row("SAFE", 5, 4),
	}

	assert.Equal(t, "SAFE", e.Utility(rows, 2, profile(3, 1))[0].Ticker)
	assert.Equal(t, "AGGR", e.Utility(rows, 2, profile(1, 3))[0].Ticker)
}

func TestUtility_NegativeMaxKeepsOrder(t *testing.T) {
	e := NewEngine(DefaultConfig(), logger.Nop())
	rows := []contracts.InstrumentMetrics{
		row("A", -1, 5), // excess -3
		row("B", -6, 5), // excess -8
	}

	got := e.Utility(rows, 2, profile(0, 1))
	assert.Equal(t, []string{"A", "B"}, tickers(got))
	assert.InDelta(t, -1.0, got[0].NormExcess.V, 1e-12)
}

func TestUtility_DegenerateColumn(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		rows     []contracts.InstrumentMetrics
	}{
		{"max of zero", strategyconfig.NormalizeMax, []contracts.InstrumentMetrics{row("A", 2, 5), row("B", 1, 8)}},
		{"zscore single row", strategyconfig.NormalizeZScore, []contracts.InstrumentMetrics{row("A", 2, 5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(Config{Normalization: tt.strategy}, logger.Nop())
			got := e.Utility(tt.rows, 2, profile(1, 1))
			require.Len(t, got, len(tt.rows))
			for _, s := range got {
				assert.True(t, s.Score.OK)
			}
		})
	}

	// max of zero: excess contributes nothing, lower volatility wins
	e := NewEngine(DefaultConfig(), logger.Nop())
	got := e.Utility([]contracts.InstrumentMetrics{row("A", 2, 8), row("B", 2, 5)}, 2, profile(1, 1))
	assert.Equal(t, []string{"B", "A"}, tickers(got))
	assert.Equal(t, 0.0, got[0].NormExcess.V)
}

func TestUtility_Empty(t *testing.T) {
	e := NewEngine(DefaultConfig(), logger.Nop())
	assert.Empty(t, e.Utility(nil, 2, profile(1, 1)))
	assert.Empty(t, e.Ratio(nil, 2))
}

func TestScore_NoRiskFree(t *testing.T) {
	e := NewEngine(DefaultConfig(), logger.Nop())
	ref := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rf := flatRiskFree(t, 2, ref.AddDate(0, 1, 0), ref.AddDate(1, 0, 0))

	_, err := e.Score([]contracts.InstrumentMetrics{row("A", 1, 1)}, rf, profile(1, 1), ref)
	assert.ErrorIs(t, err, contracts.ErrNoRiskFreeData)
}
