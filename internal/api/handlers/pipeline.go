package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/etfnav/backend/internal/backtest"
	"github.com/wonny/etfnav/backend/internal/brain"
	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/observability"
	"github.com/wonny/etfnav/backend/internal/selection"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// RecommendationReader loads stored recommendation runs
type RecommendationReader interface {
	Get(ctx context.Context, runID string) ([]contracts.Recommendation, error)
}

// PipelineDeps bundles what the pipeline endpoints need
type PipelineDeps struct {
	Prices        contracts.PriceStore
	RiskFree      contracts.RiskFreeRateProvider
	RiskFreeStart time.Time
	Universe      []string
	Orchestrator  *brain.Orchestrator
	Backtester    *backtest.Engine
	Runs          RecommendationReader // optional
	Metrics       *observability.Metrics
}

// PipelineHandler handles recommendation, neighbor and backtest endpoints
// ⭐ SSOT: 파이프라인 API 핸들러는 여기서만
type PipelineHandler struct {
	deps   PipelineDeps
	logger *logger.Logger
	now    func() time.Time
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(deps PipelineDeps, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		deps:   deps,
		logger: log,
		now:    time.Now,
	}
}

// ProfileInput accepts either explicit values or wizard option indexes
type ProfileInput struct {
	Profile *contracts.UserProfile   `json:"profile,omitempty"`
	Choice  *contracts.ProfileChoice `json:"choice,omitempty"`
}

func (p ProfileInput) resolve() (contracts.UserProfile, error) {
	switch {
	case p.Profile != nil:
		return *p.Profile, p.Profile.Validate()
	case p.Choice != nil:
		return contracts.ProfileFromChoice(*p.Choice)
	}
	return contracts.UserProfile{}, &contracts.ValidationError{Field: "profile", Message: "profile or choice is required"}
}

// RecommendRequest represents a recommendation request
type RecommendRequest struct {
	ProfileInput
	ReferenceDate string   `json:"reference_date"` // Optional: YYYY-MM-DD, default today
	Mode          string   `json:"mode"`           // quadrant, neighbors, all
	Count         int      `json:"count"`
	NeighborK     int      `json:"neighbor_k"`
	Tickers       []string `json:"tickers"` // Optional: default universe
}

// BacktestRequest represents a backtest request
type BacktestRequest struct {
	ProfileInput
	Now             string   `json:"now"` // Optional: YYYY-MM-DD, default today
	TestPeriodYears int      `json:"test_period_years"`
	Tickers         []string `json:"tickers"`
}

// NeighborsResponse is the neighbor search result
type NeighborsResponse struct {
	RunID         string                        `json:"run_id"`
	ReferenceDate time.Time                     `json:"reference_date"`
	Target        [2]float64                    `json:"target"` // growth, volatility
	Neighbors     []contracts.Neighbor          `json:"neighbors"`
	Metrics       []contracts.InstrumentMetrics `json:"metrics"`
}

// Recommend runs the recommendation pipeline
// POST /api/recommend
func (h *PipelineHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.recommend(r.Context(), req)
	h.deps.Metrics.Request("recommend", err)
	if err != nil {
		h.fail(w, "recommend", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Neighbors returns the instruments nearest the profile's target
// POST /api/neighbors
func (h *PipelineHandler) Neighbors(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Mode = string(brain.ModeNeighbors)

	result, err := h.recommend(r.Context(), req)
	h.deps.Metrics.Request("neighbors", err)
	if err != nil {
		h.fail(w, "neighbors", err)
		return
	}

	p, _ := req.resolve()

	respondJSON(w, http.StatusOK, NeighborsResponse{
		RunID:         result.RunID,
		ReferenceDate: result.ReferenceDate,
		Target:        [2]float64{p.DesiredGrowthPct, p.FluctuationTolerancePct},
		Neighbors:     result.Neighbors,
		Metrics:       contracts.ValidOnly(result.Metrics),
	})
}

// Backtest runs a train/test comparison of both baskets
// POST /api/backtest
func (h *PipelineHandler) Backtest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.backtest(ctx, req)
	h.deps.Metrics.Request("backtest", err)
	if err != nil {
		h.fail(w, "backtest", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetRun returns a stored recommendation run
// GET /api/recommendations/{run_id}
func (h *PipelineHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.deps.Runs == nil {
		respondError(w, http.StatusNotImplemented, "Recommendation storage is not configured")
		return
	}

	runID := mux.Vars(r)["run_id"]
	recs, err := h.deps.Runs.Get(r.Context(), runID)
	if errors.Is(err, selection.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load recommendation run")
		respondError(w, http.StatusInternalServerError, "Failed to load recommendation run")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":          runID,
		"recommendations": recs,
	})
}

// ProfileOptions returns the answer scales for building a profile
// GET /api/profile/options
func (h *PipelineHandler) ProfileOptions(w http.ResponseWriter, r *http.Request) {
	o := contracts.ProfileOptions
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"horizon_years":          o.HorizonYears,
		"growth_pct":             o.GrowthPct,
		"fluctuation_pct":        o.FluctuationPct,
		"max_drawdown_pct":       o.MaxDrawdownPct,
		"min_track_record_years": o.MinTrackRecordYears,
		"risk_return_weights":    o.RiskReturnWeights,
	})
}

func (h *PipelineHandler) recommend(ctx context.Context, req RecommendRequest) (*brain.RecommendResult, error) {
	profile, err := req.resolve()
	if err != nil {
		return nil, err
	}
	mode, err := brain.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	ref, err := parseDate("reference_date", req.ReferenceDate, h.now())
	if err != nil {
		return nil, err
	}

	tickers := h.tickers(req.Tickers)
	history, riskFree, err := h.load(ctx, tickers)
	if err != nil {
		return nil, err
	}

	return h.deps.Orchestrator.Recommend(ctx, brain.RecommendRequest{
		Profile:       profile,
		Universe:      tickers,
		History:       history,
		RiskFree:      riskFree,
		ReferenceDate: ref,
		Mode:          mode,
		Count:         req.Count,
		NeighborK:     req.NeighborK,
	})
}

func (h *PipelineHandler) backtest(ctx context.Context, req BacktestRequest) (*contracts.Comparison, error) {
	profile, err := req.resolve()
	if err != nil {
		return nil, err
	}
	now, err := parseDate("now", req.Now, h.now())
	if err != nil {
		return nil, err
	}
	if req.TestPeriodYears < 0 {
		return nil, &contracts.ValidationError{Field: "test_period_years", Message: "must not be negative"}
	}

	tickers := h.tickers(req.Tickers)
	history, riskFree, err := h.load(ctx, tickers)
	if err != nil {
		return nil, err
	}

	return h.deps.Backtester.Run(ctx, backtest.Request{
		Profile:         profile,
		Universe:        tickers,
		History:         history,
		RiskFree:        riskFree,
		Now:             now,
		TestPeriodYears: req.TestPeriodYears,
	})
}

func (h *PipelineHandler) load(ctx context.Context, tickers []string) (*contracts.PriceHistory, contracts.RiskFreeSeries, error) {
	history, err := h.deps.Prices.Load(ctx, tickers)
	if err != nil {
		return nil, contracts.RiskFreeSeries{}, fmt.Errorf("load prices: %w", err)
	}
	riskFree, err := h.deps.RiskFree.Fetch(ctx, h.deps.RiskFreeStart)
	if err != nil {
		return nil, contracts.RiskFreeSeries{}, fmt.Errorf("fetch risk-free: %w", err)
	}
	return history, riskFree, nil
}

func (h *PipelineHandler) tickers(requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return h.deps.Universe
}

func (h *PipelineHandler) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("op", op).Error("Pipeline request failed")
	}
	respondError(w, status, err.Error())
}

func parseDate(field, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return contracts.Day(def), nil
	}
	t, err := time.Parse(contracts.DateLayout, value)
	if err != nil {
		return time.Time{}, &contracts.ValidationError{Field: field, Message: "expected YYYY-MM-DD"}
	}
	return t, nil
}
