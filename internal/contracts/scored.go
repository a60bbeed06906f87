package contracts

import "time"

// ScoreKind identifies the scoring model
type ScoreKind string

const (
	ScoreRatio   ScoreKind = "ratio"
	ScoreUtility ScoreKind = "utility"
)

// ScoredInstrument is a metrics row with its score
// ⭐ SSOT: S4 → S5 점수 전달
type ScoredInstrument struct {
	InstrumentMetrics
	Kind            ScoreKind `json:"kind"`
	ExcessReturnPct float64   `json:"excess_return_pct"`
	Score           Optional  `json:"score"`

	// utility only
	NormExcess     Optional `json:"norm_excess,omitempty"`
	NormVolatility Optional `json:"norm_volatility,omitempty"`
}

// Neighbor is a metrics row tagged with its standardized distance to a target point
type Neighbor struct {
	InstrumentMetrics
	Distance float64 `json:"distance"`
}

// Recommendation is the top-N output for one scoring model
type Recommendation struct {
	Kind          ScoreKind          `json:"kind"`
	ReferenceDate time.Time          `json:"reference_date"`
	Items         []ScoredInstrument `json:"items"`
}

// Tickers returns the recommended tickers in rank order
func (r Recommendation) Tickers() []string {
	out := make([]string, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Ticker
	}
	return out
}
