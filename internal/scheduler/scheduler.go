package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/etfnav/backend/pkg/logger"
)

// ErrJobNotFound is returned for names that were never registered
var ErrJobNotFound = errors.New("job not found")

// Scheduler runs cache warm-up jobs on cron schedules with bounded retries
// ⭐ SSOT: 예열 작업 스케줄은 이 스케줄러에서만
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	mu   sync.RWMutex
	jobs map[string]*registration

	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration

	// cancelled by Stop so in-flight cron runs abort
	ctx    context.Context
	cancel context.CancelFunc
}

type registration struct {
	job     Job
	id      cron.EntryID
	history history
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRetry sets the retry count and delay between attempts
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(s *Scheduler) {
		s.maxRetries = maxRetries
		s.retryDelay = delay
	}
}

// WithTimeout bounds each attempt
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// New creates a scheduler. Defaults: 3 retries one minute apart, 30 minutes per attempt.
func New(log *logger.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		logger:     log,
		jobs:       make(map[string]*registration),
		maxRetries: 3,
		retryDelay: time.Minute,
		timeout:    30 * time.Minute,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers job under its name and schedule
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.run(s.ctx, job, TriggerCron)
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	s.jobs[name] = &registration{job: job, id: id}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")

	return nil
}

// RemoveJob unschedules a job and drops its history
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	s.cron.Remove(reg.id)
	delete(s.jobs, name)

	s.logger.WithField("job", name).Info("Job removed")
	return nil
}

// Start begins firing cron entries
func (s *Scheduler) Start() {
	s.logger.WithField("jobs", len(s.Jobs())).Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels in-flight runs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Jobs returns registered job names, sorted
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunNow runs a job synchronously under ctx, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobResult, error) {
	s.mu.RLock()
	reg, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.run(ctx, reg.job, TriggerManual), nil
}

// History returns the last n results of a job, oldest first; n <= 0 returns all kept results
func (s *Scheduler) History(name string, n int) ([]JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return reg.history.latest(n), nil
}

// Stats summarizes every job, sorted by name. NextRun is computed from now.
func (s *Scheduler) Stats(now time.Time) []JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStats, 0, len(s.jobs))
	for name, reg := range s.jobs {
		var next time.Time
		if entry := s.cron.Entry(reg.id); entry.Schedule != nil {
			next = entry.Schedule.Next(now)
		}
		out = append(out, reg.history.stats(name, reg.job.Schedule(), next))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobName < out[j].JobName })
	return out
}

// run makes up to maxRetries+1 attempts, each bounded by the attempt timeout.
// A cancelled parent context ends the run without further attempts.
func (s *Scheduler) run(ctx context.Context, job Job, trigger Trigger) JobResult {
	name := job.Name()
	result := JobResult{
		JobName:   name,
		Trigger:   trigger,
		StartTime: time.Now(),
	}
	log := s.logger.WithFields(map[string]interface{}{
		"job":     name,
		"trigger": string(trigger),
	})
	log.Info("Job started")

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries+1; attempt++ {
		result.Attempts = attempt

		actx, cancel := context.WithTimeout(ctx, s.timeout)
		lastErr = job.Run(actx)
		cancel()
		if lastErr == nil {
			result.Success = true
			break
		}

		log.WithError(lastErr).WithField("attempt", attempt).Warn("Job attempt failed")

		if ctx.Err() != nil || attempt > s.maxRetries {
			break
		}
		if s.retryDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.retryDelay):
			}
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	if !result.Success {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if reg, exists := s.jobs[name]; exists {
		reg.history.add(result)
	}
	s.mu.Unlock()

	done := log.WithFields(map[string]interface{}{
		"attempts": result.Attempts,
		"duration": result.Duration,
	})
	if result.Success {
		done.Info("Job completed")
	} else {
		done.WithError(lastErr).Error("Job failed")
	}

	return result
}
