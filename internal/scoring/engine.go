package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/strategyconfig"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// Config holds scoring settings
type Config struct {
	Normalization    string  // max | zscore
	MinVolatilityPct float64 // floor for the ratio divisor
}

// DefaultConfig returns max normalization with a 0.01pt volatility floor
func DefaultConfig() Config {
	return ConfigFrom(strategyconfig.Default().Scoring)
}

// ConfigFrom applies the strategy policy
func ConfigFrom(policy strategyconfig.Scoring) Config {
	return Config{
		Normalization:    policy.Normalization,
		MinVolatilityPct: policy.MinVolatilityPct,
	}
}

// Scores is the output of both scoring models on one candidate set
type Scores struct {
	RiskFreePct float64
	Ratio       []contracts.ScoredInstrument
	Utility     []contracts.ScoredInstrument
}

// Engine implements S4: ratio and utility scoring
// ⭐ SSOT: S4 점수 계산은 여기서만
type Engine struct {
	config Config
	logger *logger.Logger
}

// NewEngine creates a scoring engine
func NewEngine(config Config, log *logger.Logger) *Engine {
	if config.Normalization == "" {
		config.Normalization = strategyconfig.NormalizeMax
	}
	if config.MinVolatilityPct <= 0 {
		config.MinVolatilityPct = 0.01
	}
	return &Engine{
		config: config,
		logger: log,
	}
}

// Score averages the risk-free series as of asOf and runs both models
func (e *Engine) Score(rows []contracts.InstrumentMetrics, riskFree contracts.RiskFreeSeries, profile contracts.UserProfile, asOf time.Time) (*Scores, error) {
	rf, ok := AverageRiskFree(riskFree, profile.TimeHorizonYears, asOf).Get()
	if !ok {
		return nil, fmt.Errorf("average risk-free as of %s: %w", asOf.Format(contracts.DateLayout), contracts.ErrNoRiskFreeData)
	}

	return &Scores{
		RiskFreePct: rf,
		Ratio:       e.Ratio(rows, rf),
		Utility:     e.Utility(rows, rf, profile),
	}, nil
}

// Ratio scores excess return per unit of volatility, sorted descending
func (e *Engine) Ratio(rows []contracts.InstrumentMetrics, riskFreePct float64) []contracts.ScoredInstrument {
	valid := contracts.ValidOnly(rows)
	out := make([]contracts.ScoredInstrument, 0, len(valid))

	for _, m := range valid {
		excess := m.AnnualGrowthPct.V - riskFreePct
		divisor := math.Max(m.AnnualVolatilityPct.V, e.config.MinVolatilityPct)
		out = append(out, contracts.ScoredInstrument{
			InstrumentMetrics: m,
			Kind:              contracts.ScoreRatio,
			ExcessReturnPct:   excess,
			Score:             contracts.Some(excess / divisor),
		})
	}

	sortDescending(out)
	return out
}

// Utility scores W_return × norm(excess) − W_risk × norm(volatility), sorted descending.
// A degenerate column contributes 0.
func (e *Engine) Utility(rows []contracts.InstrumentMetrics, riskFreePct float64, profile contracts.UserProfile) []contracts.ScoredInstrument {
	valid := contracts.ValidOnly(rows)
	out := make([]contracts.ScoredInstrument, 0, len(valid))
	if len(valid) == 0 {
		return out
	}

	wReturn, wRisk := profile.NormalizedWeights()

	excess := make([]float64, len(valid))
	vols := make([]float64, len(valid))
	for i, m := range valid {
		excess[i] = m.AnnualGrowthPct.V - riskFreePct
		vols[i] = m.AnnualVolatilityPct.V
	}

	normExcess := e.normalize("excess_return", excess)
	normVol := e.normalize("volatility", vols)

	for i, m := range valid {
		out = append(out, contracts.ScoredInstrument{
			InstrumentMetrics: m,
			Kind:              contracts.ScoreUtility,
			ExcessReturnPct:   excess[i],
			Score:             contracts.Some(wReturn*normExcess[i] - wRisk*normVol[i]),
			NormExcess:        contracts.Some(normExcess[i]),
			NormVolatility:    contracts.Some(normVol[i]),
		})
	}

	sortDescending(out)
	return out
}

// normalize returns zeros when the column cannot be normalized
func (e *Engine) normalize(column string, values []float64) []float64 {
	out, err := Normalize(values, e.config.Normalization)
	if err == nil {
		return out
	}

	if !errors.Is(err, contracts.ErrDegenerateNormalizer) {
		e.logger.WithError(err).Error("Normalization failed")
	} else {
		e.logger.WithFields(map[string]interface{}{
			"column":   column,
			"strategy": e.config.Normalization,
			"rows":     len(values),
			"reason":   err.Error(),
		}).Warn("Degenerate normalizer, column contributes 0")
	}
	return make([]float64, len(values))
}

func sortDescending(rows []contracts.ScoredInstrument) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score.V > rows[j].Score.V
	})
}
