package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// RiskFreeJob keeps the risk-free series cache warm
// ⭐ SSOT: 무위험수익률 캐시 갱신 스케줄은 이 Job에서만
type RiskFreeJob struct {
	provider contracts.RiskFreeRateProvider
	start    time.Time
	logger   *logger.Logger
}

// NewRiskFreeJob creates a new risk-free refresh job
func NewRiskFreeJob(provider contracts.RiskFreeRateProvider, start time.Time, log *logger.Logger) *RiskFreeJob {
	return &RiskFreeJob{
		provider: provider,
		start:    start,
		logger:   log,
	}
}

// Name returns the job name
func (j *RiskFreeJob) Name() string {
	return "risk_free_refresh"
}

// Schedule returns the cron schedule (weekdays after the Bank of Canada publishes)
func (j *RiskFreeJob) Schedule() string {
	return "0 30 17 * * 1-5"
}

// Run fetches the series through the caching provider
func (j *RiskFreeJob) Run(ctx context.Context) error {
	series, err := j.provider.Fetch(ctx, j.start)
	if err != nil {
		return fmt.Errorf("fetch risk-free series: %w", err)
	}

	last, _ := series.MaxDate()
	j.logger.WithFields(map[string]interface{}{
		"observations": series.Len(),
		"latest":       last.Format(contracts.DateLayout),
	}).Info("Risk-free series refreshed")

	return nil
}
