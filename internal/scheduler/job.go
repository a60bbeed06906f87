package scheduler

import (
	"context"
	"time"
)

// Job is a cache refresh or maintenance task.
// Schedules carry a seconds field: "0 30 17 * * 1-5" runs on weekday evenings
// after the Valet publish, "0 0 6 * * *" runs daily before the first request.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// Trigger records what started a run
type Trigger string

const (
	TriggerCron   Trigger = "cron"
	TriggerManual Trigger = "manual"
)

// JobResult is one execution of a job, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	Trigger   Trigger       `json:"trigger"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobStats summarizes a job's recent runs
type JobStats struct {
	JobName             string        `json:"job_name"`
	Schedule            string        `json:"schedule"`
	NextRun             time.Time     `json:"next_run"`
	TotalRuns           int           `json:"total_runs"`
	FailureCount        int           `json:"failure_count"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	SuccessRate         float64       `json:"success_rate"`
	AvgDuration         time.Duration `json:"avg_duration"`
	LastRun             *time.Time    `json:"last_run,omitempty"`
	LastSuccess         *time.Time    `json:"last_success,omitempty"`
	LastError           string        `json:"last_error,omitempty"`
}

const historyLimit = 50

// history keeps the most recent results of one job, oldest first
type history struct {
	results []JobResult
}

func (h *history) add(r JobResult) {
	h.results = append(h.results, r)
	if len(h.results) > historyLimit {
		h.results = append([]JobResult(nil), h.results[len(h.results)-historyLimit:]...)
	}
}

// latest returns a copy of the last n results
func (h *history) latest(n int) []JobResult {
	if n <= 0 || n > len(h.results) {
		n = len(h.results)
	}
	return append([]JobResult{}, h.results[len(h.results)-n:]...)
}

func (h *history) stats(name, schedule string, next time.Time) JobStats {
	st := JobStats{
		JobName:   name,
		Schedule:  schedule,
		NextRun:   next,
		TotalRuns: len(h.results),
	}
	if st.TotalRuns == 0 {
		return st
	}

	var total time.Duration
	for i := range h.results {
		r := h.results[i]
		total += r.Duration
		if r.Success {
			start := r.StartTime
			st.LastSuccess = &start
			st.ConsecutiveFailures = 0
			continue
		}
		st.FailureCount++
		st.ConsecutiveFailures++
		st.LastError = r.Error
	}

	last := h.results[len(h.results)-1].StartTime
	st.LastRun = &last
	st.AvgDuration = total / time.Duration(st.TotalRuns)
	st.SuccessRate = float64(st.TotalRuns-st.FailureCount) / float64(st.TotalRuns)
	return st
}
