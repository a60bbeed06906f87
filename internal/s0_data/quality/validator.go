package quality

import (
	"time"

	"github.com/wonny/etfnav/backend/internal/contracts"
)

// Coverage check names
const (
	CoverageAdjClose = "adj_close"
	CoverageHorizon  = "horizon_window"
)

// QualityGate reports price coverage before the pipeline runs.
// Gaps are reported, never fatal: missing tickers become unavailable metrics downstream.
type QualityGate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinObservations int     // per ticker inside the horizon window
	WarnBelow       float64 // quality score that triggers a warning
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		MinObservations: 2,
		WarnBelow:       0.7,
	}
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{config: config}
}

// Check measures how many tickers have adjusted-close data at all,
// and how many have enough of it inside [ref − horizon, ref]
// ⭐ SSOT: S0 → S1 품질 검증
func (g *QualityGate) Check(history *contracts.PriceHistory, tickers []string, horizonYears int, ref time.Time) *contracts.DataQualitySnapshot {
	snapshot := &contracts.DataQualitySnapshot{
		Date:         contracts.Day(ref),
		TotalTickers: len(tickers),
		Coverage:     make(map[string]float64, 2),
	}
	if len(tickers) == 0 {
		return snapshot
	}

	from := contracts.YearsBefore(ref, horizonYears)
	withData, inWindow := 0, 0
	for _, t := range tickers {
		s := history.AdjClose(t)
		if s.IsEmpty() {
			snapshot.Missing = append(snapshot.Missing, t)
			continue
		}
		withData++
		if s.Window(from, ref).Len() >= g.config.MinObservations {
			inWindow++
		}
	}

	total := float64(len(tickers))
	snapshot.ValidTickers = inWindow
	snapshot.Coverage[CoverageAdjClose] = float64(withData) / total
	snapshot.Coverage[CoverageHorizon] = float64(inWindow) / total
	snapshot.QualityScore = snapshot.Coverage[CoverageHorizon]
	return snapshot
}

// Degraded reports whether the snapshot falls below the warning threshold
func (g *QualityGate) Degraded(s *contracts.DataQualitySnapshot) bool {
	return s.TotalTickers > 0 && s.QualityScore < g.config.WarnBelow
}
