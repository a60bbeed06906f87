package s1_universe

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/metrics"
	"github.com/wonny/etfnav/backend/internal/strategyconfig"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// Exclusion reasons
const (
	ReasonNoHistory           = "no_history"
	ReasonDrawdownExceeded    = "drawdown_exceeded"
	ReasonTrackRecordTooShort = "track_record_too_short"
)

// Config holds drawdown filter settings
type Config struct {
	Workers           int
	FullWeight        float64 // weight of full-history drawdown
	RecentWeight      float64 // weight of recent-window drawdown
	RecentWindowYears int
}

// DefaultConfig returns the production blend (0.3 full / 0.7 last 10y)
func DefaultConfig() Config {
	d := strategyconfig.Default().Drawdown
	return ConfigFrom(d, runtime.NumCPU())
}

// ConfigFrom applies the strategy policy
func ConfigFrom(policy strategyconfig.Drawdown, workers int) Config {
	return Config{
		Workers:           workers,
		FullWeight:        policy.FullWeight,
		RecentWeight:      policy.RecentWeight,
		RecentWindowYears: policy.RecentWindowYears,
	}
}

// Drawdown is the per-ticker drawdown evaluation.
// Percentages are non-positive (-35 is a 35% decline).
type Drawdown struct {
	Ticker       string             `json:"ticker"`
	FullPct      contracts.Optional `json:"full_pct"`
	RecentPct    contracts.Optional `json:"recent_pct"`
	BlendedPct   contracts.Optional `json:"blended_pct"`
	Inception    time.Time          `json:"inception"`
	Observations int                `json:"observations"`
}

// Filter narrows a ticker list by blended drawdown and track record
// ⭐ SSOT: S2 낙폭/운용기간 필터는 여기서만
type Filter struct {
	config Config
	logger *logger.Logger
}

// NewFilter creates a drawdown filter
func NewFilter(config Config, log *logger.Logger) *Filter {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Filter{
		config: config,
		logger: log,
	}
}

// Apply returns the surviving tickers in input order plus a reason for every exclusion
func (f *Filter) Apply(ctx context.Context, tickers []string, history *contracts.PriceHistory, maxDrawdownPct float64, minTrackRecordYears int, ref time.Time) (*contracts.Universe, error) {
	ref = contracts.Day(ref)

	details, err := f.Evaluate(ctx, tickers, history, ref)
	if err != nil {
		return nil, err
	}

	universe := &contracts.Universe{
		Date:     ref,
		Tickers:  make([]string, 0, len(tickers)),
		Excluded: make(map[string]string),
	}

	cutoff := contracts.YearsBefore(ref, minTrackRecordYears)
	for _, d := range details {
		reason := checkExclusion(d, maxDrawdownPct, cutoff)
		if reason != "" {
			universe.Excluded[d.Ticker] = reason
			continue
		}
		universe.Tickers = append(universe.Tickers, d.Ticker)
	}
	universe.TotalCount = len(universe.Tickers)

	f.logger.WithFields(map[string]interface{}{
		"input":        len(tickers),
		"kept":         universe.TotalCount,
		"excluded":     len(universe.Excluded),
		"tolerance":    maxDrawdownPct,
		"track_record": minTrackRecordYears,
	}).Debug("Drawdown filter applied")

	return universe, nil
}

// Evaluate computes drawdown details for every ticker, in input order
func (f *Filter) Evaluate(ctx context.Context, tickers []string, history *contracts.PriceHistory, ref time.Time) ([]Drawdown, error) {
	ref = contracts.Day(ref)
	results := make([]Drawdown, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.Workers)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = f.evaluate(ticker, history, ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate drawdowns: %w", err)
	}
	return results, nil
}

func (f *Filter) evaluate(ticker string, history *contracts.PriceHistory, ref time.Time) Drawdown {
	d := Drawdown{Ticker: ticker}

	full := history.AdjClose(ticker).Until(ref)
	if full.IsEmpty() {
		return d
	}
	first, _ := full.First()
	d.Inception = first.Date
	d.Observations = full.Len()
	d.FullPct = contracts.Some(metrics.MaxDrawdown(full.Values()) * 100)

	recent := full.Window(contracts.YearsBefore(ref, f.config.RecentWindowYears), ref)
	if !recent.IsEmpty() {
		d.RecentPct = contracts.Some(metrics.MaxDrawdown(recent.Values()) * 100)
	}

	d.BlendedPct = f.blend(d.FullPct, d.RecentPct)
	return d
}

// blend weights both drawdowns, falling back to whichever is available
func (f *Filter) blend(full, recent contracts.Optional) contracts.Optional {
	switch {
	case full.OK && recent.OK:
		return contracts.Some(f.config.FullWeight*full.V + f.config.RecentWeight*recent.V)
	case full.OK:
		return full
	case recent.OK:
		return recent
	default:
		return contracts.Unavailable()
	}
}

// checkExclusion returns the reason a ticker is excluded, or "" to keep it
func checkExclusion(d Drawdown, maxDrawdownPct float64, cutoff time.Time) string {
	// 1. 데이터 없음
	if !d.BlendedPct.OK {
		return ReasonNoHistory
	}

	// 2. 낙폭 초과
	if d.BlendedPct.V < -maxDrawdownPct {
		return fmt.Sprintf("%s (%.2f%% < -%.2f%%)", ReasonDrawdownExceeded, d.BlendedPct.V, maxDrawdownPct)
	}

	// 3. 운용기간 미달
	if !d.Inception.Before(cutoff) {
		return fmt.Sprintf("%s (since %s)", ReasonTrackRecordTooShort, d.Inception.Format(contracts.DateLayout))
	}

	return ""
}
