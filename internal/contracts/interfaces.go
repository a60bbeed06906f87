package contracts

import (
	"context"
	"time"
)

// PriceStore loads price history (S0)
// ⭐ SSOT: S0 가격 데이터 인터페이스
type PriceStore interface {
	Load(ctx context.Context, tickers []string) (*PriceHistory, error)
}

// RiskFreeRateProvider fetches the risk-free yield series (S0).
// Fetch fails on any upstream problem; there is no fallback rate.
type RiskFreeRateProvider interface {
	Fetch(ctx context.Context, start time.Time) (RiskFreeSeries, error)
}

// MetricsCalculator computes horizon metrics (S1)
type MetricsCalculator interface {
	Calculate(ctx context.Context, tickers []string, horizonYears int, history *PriceHistory, ref time.Time) ([]InstrumentMetrics, error)
}

// DrawdownFilter narrows the universe by drawdown and track record (S2)
type DrawdownFilter interface {
	Apply(ctx context.Context, tickers []string, history *PriceHistory, maxDrawdownPct float64, minTrackRecordYears int, ref time.Time) (*Universe, error)
}
