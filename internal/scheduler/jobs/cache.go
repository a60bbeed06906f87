package jobs

import (
	"context"
)

// StaleCleaner drops expired cache entries
type StaleCleaner interface {
	CleanStale() int
}

// CacheCleanupJob evicts expired entries from the in-process cache
type CacheCleanupJob struct {
	cache StaleCleaner
}

// NewCacheCleanupJob creates a new cleanup job
func NewCacheCleanupJob(cache StaleCleaner) *CacheCleanupJob {
	return &CacheCleanupJob{cache: cache}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (hourly)
func (j *CacheCleanupJob) Schedule() string {
	return "0 0 * * * *"
}

// Run evicts stale entries
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.cache.CleanStale()
	return nil
}
