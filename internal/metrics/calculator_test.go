package metrics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfnav/backend/internal/cache"
	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

func date(s string) time.Time {
	t, err := time.Parse(contracts.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func history(t *testing.T, series map[string][]contracts.Observation) *contracts.PriceHistory {
	t.Helper()
	raw := make(map[string]map[contracts.Field][]contracts.Observation, len(series))
	for ticker, obs := range series {
		raw[ticker] = map[contracts.Field][]contracts.Observation{contracts.FieldAdjClose: obs}
	}
	h, err := contracts.NewPriceHistory(raw)
	require.NoError(t, err)
	return h
}

func twoYear(p0, p1, p2 float64) []contracts.Observation {
	return []contracts.Observation{
		{Date: date("2020-01-01"), Value: p0},
		{Date: date("2021-01-01"), Value: p1},
		{Date: date("2022-01-01"), Value: p2},
	}
}

func newTestCalculator() *Calculator {
	cfg := DefaultConfig()
	cfg.Workers = 4
	return NewCalculator(cfg, nil, nil, logger.Nop())
}

func TestCalculate_GrowthMatchesCAGR(t *testing.T) {
	h := history(t, map[string][]contracts.Observation{
		"A.TO": twoYear(100, 110, 121),
		"B.TO": twoYear(100, 90, 81),
	})

	rows, err := newTestCalculator().Calculate(context.Background(), []string{"A.TO", "B.TO"}, 5, h, date("2022-01-01"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "A.TO", rows[0].Ticker)
	assert.Equal(t, "B.TO", rows[1].Ticker)

	a, ok := rows[0].AnnualGrowthPct.Get()
	require.True(t, ok)
	assert.InDelta(t, 10.0, a, 0.01)

	b, ok := rows[1].AnnualGrowthPct.Get()
	require.True(t, ok)
	assert.InDelta(t, -10.0, b, 0.01)

	// constant returns have zero dispersion
	vol, ok := rows[0].AnnualVolatilityPct.Get()
	require.True(t, ok)
	assert.Equal(t, 0.0, vol)
}

func TestCalculate_PreservesInputOrder(t *testing.T) {
	obs := twoYear(100, 105, 120)
	h := history(t, map[string][]contracts.Observation{
		"A.TO": obs, "B.TO": obs, "C.TO": obs, "D.TO": obs,
	})
	tickers := []string{"D.TO", "B.TO", "MISSING.TO", "A.TO", "C.TO"}

	rows, err := newTestCalculator().Calculate(context.Background(), tickers, 3, h, date("2022-06-30"))
	require.NoError(t, err)
	require.Len(t, rows, len(tickers))
	for i, ticker := range tickers {
		assert.Equal(t, ticker, rows[i].Ticker)
	}
	assert.Equal(t, contracts.ReasonMissingTicker, rows[2].Reason)
	assert.False(t, rows[2].Valid())
}

func TestCalculate_InsufficientData(t *testing.T) {
	tests := []struct {
		name     string
		obs      []contracts.Observation
		wantGrow bool
	}{
		{
			name: "single point",
			obs:  []contracts.Observation{{Date: date("2021-06-01"), Value: 50}},
		},
		{
			name: "all points after reference",
			obs: []contracts.Observation{
				{Date: date("2023-01-02"), Value: 50},
				{Date: date("2023-01-03"), Value: 51},
			},
		},
		{
			name: "two points give growth but no dispersion",
			obs: []contracts.Observation{
				{Date: date("2021-01-04"), Value: 50},
				{Date: date("2022-01-04"), Value: 55},
			},
			wantGrow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := history(t, map[string][]contracts.Observation{"X.TO": tt.obs})
			rows, err := newTestCalculator().Calculate(context.Background(), []string{"X.TO"}, 5, h, date("2022-12-30"))
			require.NoError(t, err)
			require.Len(t, rows, 1)

			assert.Equal(t, tt.wantGrow, rows[0].AnnualGrowthPct.OK)
			assert.False(t, rows[0].AnnualVolatilityPct.OK)
			assert.Equal(t, contracts.ReasonInsufficientData, rows[0].Reason)
			assert.False(t, rows[0].Valid())
		})
	}
}

func TestCalculate_ScaleInvariant(t *testing.T) {
	base := []float64{100, 102, 99, 104, 108, 103, 110, 115}
	start := date("2019-03-01")

	var small, large []contracts.Observation
	for i, p := range base {
		d := start.AddDate(0, 0, 30*i)
		small = append(small, contracts.Observation{Date: d, Value: p})
		large = append(large, contracts.Observation{Date: d, Value: p * 37.5})
	}
	h := history(t, map[string][]contracts.Observation{"S.TO": small, "L.TO": large})

	rows, err := newTestCalculator().Calculate(context.Background(), []string{"S.TO", "L.TO"}, 5, h, date("2020-01-01"))
	require.NoError(t, err)

	gs, _ := rows[0].AnnualGrowthPct.Get()
	gl, _ := rows[1].AnnualGrowthPct.Get()
	assert.InDelta(t, gs, gl, 1e-9)

	vs, _ := rows[0].AnnualVolatilityPct.Get()
	vl, _ := rows[1].AnnualVolatilityPct.Get()
	assert.InDelta(t, vs, vl, 0.011)
}

func TestCalculate_WindowExcludesFuture(t *testing.T) {
	obs := append(twoYear(100, 110, 121), contracts.Observation{Date: date("2023-01-01"), Value: 1000})
	h := history(t, map[string][]contracts.Observation{"A.TO": obs})

	rows, err := newTestCalculator().Calculate(context.Background(), []string{"A.TO"}, 5, h, date("2022-06-01"))
	require.NoError(t, err)

	g, ok := rows[0].AnnualGrowthPct.Get()
	require.True(t, ok)
	assert.InDelta(t, 10.0, g, 0.01)
}

func TestCalculate_Cancelled(t *testing.T) {
	h := history(t, map[string][]contracts.Observation{"A.TO": twoYear(100, 110, 121)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestCalculator().Calculate(ctx, []string{"A.TO"}, 5, h, date("2022-01-01"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculate_UsesCache(t *testing.T) {
	store := cache.NewMemory(logger.Nop())
	calc := NewCalculator(DefaultConfig(), store, nil, logger.Nop())
	ref := date("2022-01-01")

	first := history(t, map[string][]contracts.Observation{"A.TO": twoYear(100, 110, 121)})
	rows, err := calc.Calculate(context.Background(), []string{"A.TO"}, 5, first, ref)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	// same key returns the first write even if prices differ
	second := history(t, map[string][]contracts.Observation{"A.TO": twoYear(100, 50, 25)})
	cached, err := calc.Calculate(context.Background(), []string{"A.TO"}, 5, second, ref)
	require.NoError(t, err)
	assert.Equal(t, rows, cached)
}

type countingStore struct {
	cache.Store
	hits int
}

func (s *countingStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	found, err := s.Store.Get(ctx, key, dest)
	if found {
		s.hits++
	}
	return found, err
}

func TestCalculate_SubsetServedFromWarmCache(t *testing.T) {
	mem := cache.NewMemory(logger.Nop())
	store := &countingStore{Store: mem}
	calc := NewCalculator(DefaultConfig(), store, nil, logger.Nop())
	ref := date("2022-01-01")

	warm := history(t, map[string][]contracts.Observation{
		"A.TO": twoYear(100, 110, 121),
		"B.TO": twoYear(100, 90, 95),
		"C.TO": twoYear(50, 60, 70),
	})
	all, err := calc.Calculate(context.Background(), []string{"A.TO", "B.TO", "C.TO"}, 5, warm, ref)
	require.NoError(t, err)
	assert.Equal(t, 3, mem.Len())
	assert.Zero(t, store.hits)

	// later prices differ; cached rows still win for the same day
	later := history(t, map[string][]contracts.Observation{
		"A.TO": twoYear(100, 50, 25),
		"C.TO": twoYear(100, 50, 25),
	})
	subset, err := calc.Calculate(context.Background(), []string{"C.TO", "A.TO"}, 5, later, ref)
	require.NoError(t, err)
	assert.Equal(t, 2, store.hits)
	assert.Equal(t, []contracts.InstrumentMetrics{all[2], all[0]}, subset)
	assert.Equal(t, 3, mem.Len())
}

func TestCalculate_PartialCacheComputesRest(t *testing.T) {
	mem := cache.NewMemory(logger.Nop())
	calc := NewCalculator(DefaultConfig(), mem, nil, logger.Nop())
	ref := date("2022-01-01")
	h := history(t, map[string][]contracts.Observation{
		"A.TO": twoYear(100, 110, 121),
		"B.TO": twoYear(100, 90, 95),
	})

	_, err := calc.Calculate(context.Background(), []string{"A.TO"}, 5, h, ref)
	require.NoError(t, err)

	rows, err := calc.Calculate(context.Background(), []string{"B.TO", "A.TO", "ZZZ.TO"}, 5, h, ref)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "B.TO", rows[0].Ticker)
	assert.Equal(t, "A.TO", rows[1].Ticker)
	assert.Equal(t, contracts.ReasonMissingTicker, rows[2].Reason)
	assert.Equal(t, 3, mem.Len())
}

func TestCalculate_PolicyChangeMissesCache(t *testing.T) {
	tests := []struct {
		name   string
		change func(*Config)
	}{
		{"trading days", func(c *Config) { c.TradingDaysPerYear = 250 }},
		{"days per year", func(c *Config) { c.DaysPerYear = 365 }},
		{"volatility exponent", func(c *Config) { c.VolatilityScalingExponent = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := cache.NewMemory(logger.Nop())
			ref := date("2022-01-01")
			h := history(t, map[string][]contracts.Observation{"A.TO": twoYear(100, 90, 121)})

			base := NewCalculator(DefaultConfig(), mem, nil, logger.Nop())
			_, err := base.Calculate(context.Background(), []string{"A.TO"}, 5, h, ref)
			require.NoError(t, err)

			cfg := DefaultConfig()
			tt.change(&cfg)
			changed := NewCalculator(cfg, mem, nil, logger.Nop())
			_, err = changed.Calculate(context.Background(), []string{"A.TO"}, 5, h, ref)
			require.NoError(t, err)

			assert.Equal(t, 2, mem.Len())
			assert.NotEqual(t, base.policy, changed.policy)
		})
	}

	// workers and TTL do not shape rows
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.CacheTTL = time.Minute
	assert.Equal(t, NewCalculator(DefaultConfig(), nil, nil, logger.Nop()).policy, NewCalculator(cfg, nil, nil, logger.Nop()).policy)
}

func TestHorizonStats_VolatilityScaling(t *testing.T) {
	calc := newTestCalculator()
	start := date("2010-01-01")
	prices := []float64{100, 101, 99, 102, 100, 103}

	var short, long []contracts.Observation
	for i, p := range prices {
		short = append(short, contracts.Observation{Date: start.AddDate(0, 0, 73*i), Value: p})
		long = append(long, contracts.Observation{Date: start.AddDate(0, 0, 292*i), Value: p})
	}
	ss, err := contracts.NewPriceSeries(short)
	require.NoError(t, err)
	ls, err := contracts.NewPriceSeries(long)
	require.NoError(t, err)

	_, vShort, err := calc.HorizonStats(ss)
	require.NoError(t, err)
	_, vLong, err := calc.HorizonStats(ls)
	require.NoError(t, err)

	// same returns over a 4x longer span divide by sqrt(4)
	assert.InDelta(t, vShort.V/2, vLong.V, 0.01)
}

func TestDailyReturns(t *testing.T) {
	assert.Nil(t, DailyReturns([]float64{100}))

	got := DailyReturns([]float64{100, 110, 99})
	require.Len(t, got, 2)
	assert.InDelta(t, 0.1, got[0], 1e-12)
	assert.InDelta(t, -0.1, got[1], 1e-12)
	assert.False(t, math.IsNaN(got[1]))
}
