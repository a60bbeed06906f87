package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfnav/backend/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32
	calls    atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return errors.New("valet unavailable")
	}
	return ctx.Err()
}

func TestScheduler_AddRemove(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "risk_free_refresh", schedule: "0 30 17 * * 1-5"}))
	require.NoError(t, s.AddJob(&countingJob{name: "cache_cleanup", schedule: "0 0 * * * *"}))
	assert.Error(t, s.AddJob(&countingJob{name: "cache_cleanup", schedule: "@hourly"}), "duplicate")
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "not a cron"}))

	assert.Equal(t, []string{"cache_cleanup", "risk_free_refresh"}, s.Jobs())

	require.NoError(t, s.RemoveJob("cache_cleanup"))
	assert.ErrorIs(t, s.RemoveJob("cache_cleanup"), ErrJobNotFound)
	_, err := s.History("cache_cleanup", 1)
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.Len(t, s.Stats(time.Now()), 1)
}

func TestScheduler_RunNow(t *testing.T) {
	tests := []struct {
		name         string
		failures     int32
		wantSuccess  bool
		wantAttempts int
	}{
		{"first try", 0, true, 1},
		{"recovers on retry", 2, true, 3},
		{"exhausts retries", 5, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(logger.Nop(), WithRetry(2, 0), WithTimeout(time.Second))
			job := &countingJob{name: "metrics_warmup", schedule: "0 0 6 * * *", failures: tt.failures}
			require.NoError(t, s.AddJob(job))

			result, err := s.RunNow(context.Background(), "metrics_warmup")
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantAttempts, result.Attempts)
			assert.Equal(t, int32(tt.wantAttempts), job.calls.Load())
			assert.Equal(t, TriggerManual, result.Trigger)
			if !tt.wantSuccess {
				assert.Equal(t, "valet unavailable", result.Error)
			}

			runs, err := s.History("metrics_warmup", 0)
			require.NoError(t, err)
			assert.Equal(t, []JobResult{result}, runs)
		})
	}

	_, err := New(logger.Nop()).RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNowCancelledStopsRetrying(t *testing.T) {
	s := New(logger.Nop(), WithRetry(3, time.Hour))
	job := &countingJob{name: "risk_free_refresh", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.RunNow(ctx, "risk_free_refresh")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
}

func TestScheduler_Stats(t *testing.T) {
	s := New(logger.Nop(), WithRetry(0, 0))
	job := &countingJob{name: "metrics_warmup", schedule: "0 0 6 * * *", failures: 2}
	require.NoError(t, s.AddJob(job))

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	stats := s.Stats(now)
	require.Len(t, stats, 1)
	assert.Zero(t, stats[0].TotalRuns)
	assert.Nil(t, stats[0].LastRun)
	assert.True(t, time.Date(2024, 3, 2, 6, 0, 0, 0, time.Local).Equal(stats[0].NextRun), "next run %s", stats[0].NextRun)

	// fail, fail, succeed
	for i := 0; i < 3; i++ {
		_, err := s.RunNow(context.Background(), "metrics_warmup")
		require.NoError(t, err)
	}
	st := s.Stats(now)[0]
	assert.Equal(t, 3, st.TotalRuns)
	assert.Equal(t, 2, st.FailureCount)
	assert.Zero(t, st.ConsecutiveFailures)
	assert.InDelta(t, 1.0/3, st.SuccessRate, 1e-9)
	assert.NotNil(t, st.LastSuccess)
	assert.Equal(t, "valet unavailable", st.LastError)
}

func TestHistory_KeepsMostRecent(t *testing.T) {
	var h history
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < historyLimit+20; i++ {
		h.add(JobResult{StartTime: base.Add(time.Duration(i) * time.Hour), Success: i%4 != 0, Error: "x"})
	}

	assert.Len(t, h.results, historyLimit)
	latest := h.latest(5)
	require.Len(t, latest, 5)
	assert.Equal(t, base.Add(time.Duration(historyLimit+19)*time.Hour), latest[4].StartTime)
	assert.Len(t, h.latest(0), historyLimit)
	assert.Empty(t, (&history{}).latest(3))

	// trailing failures count as consecutive
	h.add(JobResult{Success: false, Error: "boom"})
	h.add(JobResult{Success: false, Error: "boom again"})
	st := h.stats("x", "@daily", time.Time{})
	assert.Equal(t, 2, st.ConsecutiveFailures)
	assert.Equal(t, "boom again", st.LastError)
}
