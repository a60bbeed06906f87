package selection

import (
	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// Cascade stage names
const (
	StageStrictAnd = "strict_and"
	StageRelaxedOr = "relaxed_or"
	StageAll       = "all"
)

// Strategy is one step of the quadrant relaxation cascade
type Strategy struct {
	Name  string
	Match func(growthPct, volatilityPct, targetGrowth, targetVolatility float64) bool
}

// DefaultCascade returns strict AND, relaxed OR, then everything
func DefaultCascade() []Strategy {
	return []Strategy{
		{
			Name: StageStrictAnd,
			Match: func(g, v, tg, tv float64) bool {
				return g >= tg && v <= tv
			},
		},
		{
			Name: StageRelaxedOr,
			Match: func(g, v, tg, tv float64) bool {
				return g >= tg || v <= tv
			},
		},
		{
			Name: StageAll,
			Match: func(_, _, _, _ float64) bool {
				return true
			},
		},
	}
}

// QuadrantConfig holds cascade settings
type QuadrantConfig struct {
	MinCandidates int
	Cascade       []Strategy
}

// DefaultQuadrantConfig returns the 5-candidate cascade
func DefaultQuadrantConfig() QuadrantConfig {
	return QuadrantConfig{
		MinCandidates: 5,
		Cascade:       DefaultCascade(),
	}
}

// QuadrantResult is the candidate set and the cascade stage that produced it
type QuadrantResult struct {
	Rows  []contracts.InstrumentMetrics `json:"rows"`
	Stage string                        `json:"stage"`
}

// QuadrantFilter narrows metrics to the target (growth, volatility) quadrant
// ⭐ SSOT: S3 사분면 후보 필터는 여기서만
type QuadrantFilter struct {
	config QuadrantConfig
	logger *logger.Logger
}

// NewQuadrantFilter creates a quadrant filter
func NewQuadrantFilter(config QuadrantConfig, log *logger.Logger) *QuadrantFilter {
	if len(config.Cascade) == 0 {
		config.Cascade = DefaultCascade()
	}
	return &QuadrantFilter{
		config: config,
		logger: log,
	}
}

// Filter applies the cascade in order until MinCandidates rows survive.
// Rows missing growth or volatility never survive any stage. The last stage is
// returned even when it is short.
func (q *QuadrantFilter) Filter(rows []contracts.InstrumentMetrics, targetGrowthPct, targetVolatilityPct float64) QuadrantResult {
	valid := contracts.ValidOnly(rows)

	var result QuadrantResult
	for _, strategy := range q.config.Cascade {
		matched := make([]contracts.InstrumentMetrics, 0, len(valid))
		for _, m := range valid {
			if strategy.Match(m.AnnualGrowthPct.V, m.AnnualVolatilityPct.V, targetGrowthPct, targetVolatilityPct) {
				matched = append(matched, m)
			}
		}

		result = QuadrantResult{Rows: matched, Stage: strategy.Name}
		if len(matched) >= q.config.MinCandidates {
			break
		}
	}

	q.logger.WithFields(map[string]interface{}{
		"input":  len(rows),
		"valid":  len(valid),
		"passed": len(result.Rows),
		"stage":  result.Stage,
	}).Debug("Quadrant filter applied")

	return result
}
