package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

type stubProvider struct {
	series contracts.RiskFreeSeries
	err    error
	calls  int
}

func (p *stubProvider) Fetch(context.Context, time.Time) (contracts.RiskFreeSeries, error) {
	p.calls++
	return p.series, p.err
}

type stubStore struct{ err error }

func (s stubStore) Load(context.Context, []string) (*contracts.PriceHistory, error) {
	if s.err != nil {
		return nil, s.err
	}
	return contracts.NewPriceHistory(nil)
}

type recordingCalculator struct {
	horizons []int
	refs     []time.Time
}

func (c *recordingCalculator) Calculate(_ context.Context, tickers []string, horizonYears int, _ *contracts.PriceHistory, ref time.Time) ([]contracts.InstrumentMetrics, error) {
	c.horizons = append(c.horizons, horizonYears)
	c.refs = append(c.refs, ref)
	return make([]contracts.InstrumentMetrics, len(tickers)), nil
}

type stubCleaner struct{ calls int }

func (c *stubCleaner) CleanStale() int {
	c.calls++
	return 0
}

func TestRiskFreeJob(t *testing.T) {
	series, err := contracts.NewRiskFreeSeries([]contracts.Observation{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 4.1},
	})
	require.NoError(t, err)

	ok := &stubProvider{series: series}
	job := NewRiskFreeJob(ok, time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC), logger.Nop())
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, "risk_free_refresh", job.Name())

	failing := NewRiskFreeJob(&stubProvider{err: errors.New("down")}, time.Time{}, logger.Nop())
	assert.ErrorContains(t, failing.Run(context.Background()), "down")
}

func TestMetricsJob(t *testing.T) {
	calc := &recordingCalculator{}
	job := NewMetricsJob(stubStore{}, calc, []string{"XIU.TO", "XBB.TO"}, logger.Nop())
	job.now = func() time.Time { return time.Date(2024, 3, 5, 15, 4, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, contracts.ProfileOptions.HorizonYears, calc.horizons)
	for _, ref := range calc.refs {
		assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), ref)
	}

	failing := NewMetricsJob(stubStore{err: errors.New("db down")}, calc, nil, logger.Nop())
	assert.ErrorContains(t, failing.Run(context.Background()), "load prices")
}

func TestCacheCleanupJob(t *testing.T) {
	c := &stubCleaner{}
	job := NewCacheCleanupJob(c)
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, c.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, job.Run(ctx), context.Canceled)
}
