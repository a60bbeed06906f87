package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/matching"
	"github.com/wonny/etfnav/backend/internal/observability"
	"github.com/wonny/etfnav/backend/internal/s0_data/quality"
	"github.com/wonny/etfnav/backend/internal/scoring"
	"github.com/wonny/etfnav/backend/internal/selection"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// Mode selects how S3 narrows the metrics table before scoring
type Mode string

const (
	ModeQuadrant  Mode = "quadrant"
	ModeNeighbors Mode = "neighbors"
	ModeAll       Mode = "all"
)

// ParseMode validates a mode name; "" means quadrant
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeQuadrant:
		return ModeQuadrant, nil
	case ModeNeighbors, ModeAll:
		return Mode(s), nil
	}
	return "", &contracts.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q (quadrant, neighbors, all)", s)}
}

// RecommendationStore persists finished recommendations
type RecommendationStore interface {
	Save(ctx context.Context, runID string, recs ...contracts.Recommendation) error
}

// Orchestrator coordinates the recommendation pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	qualityGate *quality.QualityGate
	filter      contracts.DrawdownFilter
	calculator  contracts.MetricsCalculator
	quadrant    *selection.QuadrantFilter
	matcher     *matching.Matcher
	scorer      *scoring.Engine
	count       int
	store       RecommendationStore // optional
	metrics     *observability.Metrics
	logger      *logger.Logger
}

// Components bundles the stage implementations
type Components struct {
	QualityGate *quality.QualityGate
	Filter      contracts.DrawdownFilter
	Calculator  contracts.MetricsCalculator
	Quadrant    *selection.QuadrantFilter
	Matcher     *matching.Matcher
	Scorer      *scoring.Engine
	Count       int
	Store       RecommendationStore
	Metrics     *observability.Metrics
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(c Components, logger *logger.Logger) *Orchestrator {
	if c.Count < 1 {
		c.Count = 5
	}
	return &Orchestrator{
		qualityGate: c.QualityGate,
		filter:      c.Filter,
		calculator:  c.Calculator,
		quadrant:    c.Quadrant,
		matcher:     c.Matcher,
		scorer:      c.Scorer,
		count:       c.Count,
		store:       c.Store,
		metrics:     c.Metrics,
		logger:      logger,
	}
}

// RecommendRequest holds one recommendation request
type RecommendRequest struct {
	Profile       contracts.UserProfile
	Universe      []string
	History       *contracts.PriceHistory
	RiskFree      contracts.RiskFreeSeries
	ReferenceDate time.Time
	Mode          Mode
	Count         int // 0 uses the configured count
	NeighborK     int // 0 uses the configured K
}

// RecommendResult holds the outputs of every stage
type RecommendResult struct {
	RunID          string                         `json:"run_id"`
	ReferenceDate  time.Time                      `json:"reference_date"`
	Mode           Mode                           `json:"mode"`
	RiskFreePct    float64                        `json:"risk_free_pct"`
	Ratio          contracts.Recommendation       `json:"ratio"`
	Utility        contracts.Recommendation       `json:"utility"`
	Neighbors      []contracts.Neighbor           `json:"neighbors"`
	Metrics        []contracts.InstrumentMetrics  `json:"metrics"`
	Excluded       map[string]string              `json:"excluded"`
	CandidateStage string                         `json:"candidate_stage"`
	Quality        *contracts.DataQualitySnapshot `json:"quality,omitempty"`
	Stages         []contracts.PipelineResult     `json:"stages"`
	Duration       time.Duration                  `json:"duration_ns"`
}

// Recommend runs S0 → S2 → S1 → S3 → S4 → S5 for one profile
func (o *Orchestrator) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResult, error) {
	startTime := time.Now()

	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}

	ref := contracts.Day(req.ReferenceDate)
	profile := req.Profile
	result := &RecommendResult{
		RunID:         GenerateRunID(),
		ReferenceDate: ref,
		Mode:          mode,
		Stages:        make([]contracts.PipelineResult, 0, 6),
	}
	log := o.logger.WithField("run_id", result.RunID)

	log.WithFields(map[string]interface{}{
		"reference": ref.Format(contracts.DateLayout),
		"universe":  len(req.Universe),
		"mode":      mode,
		"horizon":   profile.TimeHorizonYears,
	}).Info("Starting recommendation run")

	// ⭐ 기준일 이후 가격은 어떤 단계에서도 보이지 않음
	history := req.History.Until(ref)

	// S0: Data Quality
	if o.qualityGate != nil {
		t := time.Now()
		snap := o.qualityGate.Check(history, req.Universe, profile.TimeHorizonYears, ref)
		result.Quality = snap
		if o.qualityGate.Degraded(snap) {
			log.WithFields(map[string]interface{}{
				"quality_score": snap.QualityScore,
				"missing":       len(snap.Missing),
			}).Warn("Price coverage degraded")
		}
		o.record(result, contracts.StagePriceData, t, len(req.Universe), snap.ValidTickers, nil)
	}

	// S2: Drawdown / track record
	t := time.Now()
	universe, err := o.filter.Apply(ctx, req.Universe, history, profile.MaxDrawdownTolerancePct, profile.MinTrackRecordYears, ref)
	o.record(result, contracts.StageDrawdown, t, len(req.Universe), universeCount(universe), err)
	if err != nil {
		return nil, fmt.Errorf("S2 failed: %w", err)
	}
	result.Excluded = universe.Excluded

	// S1: Metrics
	t = time.Now()
	rows, err := o.calculator.Calculate(ctx, universe.Tickers, profile.TimeHorizonYears, history, ref)
	o.record(result, contracts.StageMetrics, t, len(universe.Tickers), len(contracts.ValidOnly(rows)), err)
	if err != nil {
		return nil, fmt.Errorf("S1 failed: %w", err)
	}
	result.Metrics = rows

	// S3: Candidates
	t = time.Now()
	result.Neighbors = o.matcher.Match(rows, profile.DesiredGrowthPct, profile.FluctuationTolerancePct, req.NeighborK)
	candidates := o.candidates(result, mode, rows, profile)
	o.record(result, contracts.StageCandidates, t, len(rows), len(candidates), nil)

	// S4: Scoring
	t = time.Now()
	scores, err := o.scorer.Score(candidates, req.RiskFree, profile, ref)
	scored := 0
	if scores != nil {
		scored = len(scores.Utility)
	}
	o.record(result, contracts.StageScoring, t, len(candidates), scored, err)
	if err != nil {
		return nil, fmt.Errorf("S4 failed: %w", err)
	}
	result.RiskFreePct = scores.RiskFreePct

	// S5: Selection
	t = time.Now()
	count := req.Count
	if count < 1 {
		count = o.count
	}
	selector := selection.NewSelector(count, log)
	result.Ratio = selector.Select(contracts.ScoreRatio, ref, scores.Ratio)
	result.Utility = selector.Select(contracts.ScoreUtility, ref, scores.Utility)
	o.record(result, contracts.StageSelection, t, scored, len(result.Ratio.Items)+len(result.Utility.Items), nil)

	if o.store != nil {
		if err := o.store.Save(ctx, result.RunID, result.Ratio, result.Utility); err != nil {
			log.WithError(err).Warn("Failed to persist recommendation")
		}
	}

	result.Duration = time.Since(startTime)
	log.WithFields(map[string]interface{}{
		"duration": result.Duration.Seconds(),
		"ratio":    result.Ratio.Tickers(),
		"utility":  result.Utility.Tickers(),
		"stage":    result.CandidateStage,
	}).Info("Recommendation run completed")

	return result, nil
}

// candidates narrows metrics per mode and records which stage produced them
func (o *Orchestrator) candidates(result *RecommendResult, mode Mode, rows []contracts.InstrumentMetrics, profile contracts.UserProfile) []contracts.InstrumentMetrics {
	switch mode {
	case ModeNeighbors:
		result.CandidateStage = string(ModeNeighbors)
		out := make([]contracts.InstrumentMetrics, len(result.Neighbors))
		for i, n := range result.Neighbors {
			out[i] = n.InstrumentMetrics
		}
		return out
	case ModeAll:
		result.CandidateStage = string(ModeAll)
		return contracts.ValidOnly(rows)
	default:
		q := o.quadrant.Filter(rows, profile.DesiredGrowthPct, profile.FluctuationTolerancePct)
		result.CandidateStage = q.Stage
		return q.Rows
	}
}

// record logs a stage result and observes its duration
func (o *Orchestrator) record(result *RecommendResult, stage contracts.Stage, start time.Time, in, out int, err error) {
	d := time.Since(start)
	pr := contracts.PipelineResult{
		Stage:       stage,
		Success:     err == nil,
		InputCount:  in,
		OutputCount: out,
		Duration:    d.Milliseconds(),
	}
	if err != nil {
		pr.Error = err.Error()
	}
	result.Stages = append(result.Stages, pr)
	o.metrics.ObserveStage(string(stage), d, out, err)

	o.logger.WithStage(stage.ShortName(), result.RunID).WithFields(map[string]interface{}{
		"input":  in,
		"output": out,
		"ms":     pr.Duration,
	}).Debug(stage.Description())
}

func universeCount(u *contracts.Universe) int {
	if u == nil {
		return 0
	}
	return u.Count()
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return uuid.NewString()
}
