package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그와 메트릭 라벨에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → S5 → S6
//   Data  Metrics  Drawdown  Candidates  Scoring  Selection  Backtest

// Stage represents a pipeline stage
type Stage string

const (
	// StagePriceData S0: price history and risk-free series ingestion
	// 위치: internal/s0_data/, internal/external/
	StagePriceData Stage = "S0_PRICE_DATA"

	// StageMetrics S1: horizon growth/volatility per ticker
	// 위치: internal/metrics/
	StageMetrics Stage = "S1_METRICS"

	// StageDrawdown S2: drawdown and track-record tolerance filter
	// 위치: internal/s1_universe/
	StageDrawdown Stage = "S2_DRAWDOWN"

	// StageCandidates S3: quadrant cascade or nearest-neighbor matching
	// 위치: internal/selection/quadrant.go, internal/matching/
	StageCandidates Stage = "S3_CANDIDATES"

	// StageScoring S4: ratio and utility scoring
	// 위치: internal/scoring/
	StageScoring Stage = "S4_SCORING"

	// StageSelection S5: top-N recommendation
	// 위치: internal/selection/selector.go
	StageSelection Stage = "S5_SELECTION"

	// StageBacktest S6: train/test basket comparison
	// 위치: internal/backtest/
	StageBacktest Stage = "S6_BACKTEST"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StagePriceData:
		return "S0"
	case StageMetrics:
		return "S1"
	case StageDrawdown:
		return "S2"
	case StageCandidates:
		return "S3"
	case StageScoring:
		return "S4"
	case StageSelection:
		return "S5"
	case StageBacktest:
		return "S6"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human readable stage description
func (s Stage) Description() string {
	switch s {
	case StagePriceData:
		return "price and risk-free ingestion"
	case StageMetrics:
		return "horizon growth/volatility"
	case StageDrawdown:
		return "drawdown tolerance filter"
	case StageCandidates:
		return "candidate narrowing"
	case StageScoring:
		return "ratio/utility scoring"
	case StageSelection:
		return "top-N selection"
	case StageBacktest:
		return "train/test comparison"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StagePriceData,
		StageMetrics,
		StageDrawdown,
		StageCandidates,
		StageScoring,
		StageSelection,
		StageBacktest,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
