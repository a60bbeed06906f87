package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// MetricsJob precomputes horizon metrics for every offered horizon so
// the first request of the day is served from cache
type MetricsJob struct {
	store      contracts.PriceStore
	calculator contracts.MetricsCalculator
	universe   []string
	horizons   []int
	logger     *logger.Logger
	now        func() time.Time
}

// NewMetricsJob creates a new metrics warm-up job
func NewMetricsJob(store contracts.PriceStore, calculator contracts.MetricsCalculator, universe []string, log *logger.Logger) *MetricsJob {
	return &MetricsJob{
		store:      store,
		calculator: calculator,
		universe:   universe,
		horizons:   contracts.ProfileOptions.HorizonYears,
		logger:     log,
		now:        time.Now,
	}
}

// Name returns the job name
func (j *MetricsJob) Name() string {
	return "metrics_warmup"
}

// Schedule returns the cron schedule (6 AM daily, with seconds)
func (j *MetricsJob) Schedule() string {
	return "0 0 6 * * *"
}

// Run loads prices once and computes metrics for each horizon
func (j *MetricsJob) Run(ctx context.Context) error {
	ref := contracts.Day(j.now())

	history, err := j.store.Load(ctx, j.universe)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	for _, horizon := range j.horizons {
		rows, err := j.calculator.Calculate(ctx, j.universe, horizon, history, ref)
		if err != nil {
			return fmt.Errorf("calculate %dy metrics: %w", horizon, err)
		}

		j.logger.WithFields(map[string]interface{}{
			"horizon": horizon,
			"valid":   len(contracts.ValidOnly(rows)),
			"total":   len(rows),
		}).Debug("Metrics warmed")
	}

	j.logger.WithFields(map[string]interface{}{
		"tickers":  len(j.universe),
		"horizons": len(j.horizons),
	}).Info("Metrics warm-up completed")

	return nil
}
