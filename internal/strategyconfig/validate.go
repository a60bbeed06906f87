package strategyconfig

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Metrics ===
	if cfg.Metrics.TradingDaysPerYear <= 0 {
		return ValidationError{"metrics.trading_days_per_year", "must be > 0"}
	}
	if cfg.Metrics.DaysPerYear <= 0 {
		return ValidationError{"metrics.days_per_year", "must be > 0"}
	}
	if cfg.Metrics.VolatilityScalingExponent < 0 {
		return ValidationError{"metrics.volatility_scaling_exponent", "must be >= 0"}
	}

	// === Drawdown ===
	d := cfg.Drawdown
	if err := validatePctRange(d.FullWeight, "drawdown.full_weight"); err != nil {
		return err
	}
	if err := validatePctRange(d.RecentWeight, "drawdown.recent_weight"); err != nil {
		return err
	}
	if math.Abs(d.FullWeight+d.RecentWeight-1.0) > 1e-6 {
		return ValidationError{"drawdown", fmt.Sprintf("full_weight + recent_weight must equal 1.0, got %.4f", d.FullWeight+d.RecentWeight)}
	}
	if d.RecentWindowYears < 1 {
		return ValidationError{"drawdown.recent_window_years", "must be >= 1"}
	}

	// === Candidates ===
	if cfg.Candidates.MinCandidates < 0 {
		return ValidationError{"candidates.min_candidates", "must be >= 0"}
	}
	if cfg.Candidates.NeighborK < 1 {
		return ValidationError{"candidates.neighbor_k", "must be >= 1"}
	}

	// === Scoring ===
	if cfg.Scoring.Normalization != NormalizeMax && cfg.Scoring.Normalization != NormalizeZScore {
		return ValidationError{"scoring.normalization", "must be max or zscore"}
	}
	if cfg.Scoring.MinVolatilityPct <= 0 {
		return ValidationError{"scoring.min_volatility_pct", "must be > 0"}
	}

	// === Selection ===
	if cfg.Selection.RecommendationCount < 1 {
		return ValidationError{"selection.recommendation_count", "must be >= 1"}
	}

	// === Backtest ===
	if cfg.Backtest.TestPeriodYears < 1 {
		return ValidationError{"backtest.test_period_years", "must be >= 1"}
	}
	if cfg.Backtest.VaRConfidence <= 0 || cfg.Backtest.VaRConfidence >= 1 {
		return ValidationError{"backtest.var_confidence", "must be in (0, 1)"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Scoring.Normalization == NormalizeZScore {
		warnings = append(warnings, Warning{
			Code:    "ZSCORE_NORMALIZATION",
			Message: "zscore utility scores are not comparable with max-normalized runs",
		})
	}

	if cfg.Candidates.MinCandidates < cfg.Selection.RecommendationCount {
		warnings = append(warnings, Warning{
			Code:    "THIN_CANDIDATES",
			Message: fmt.Sprintf("min_candidates=%d below recommendation_count=%d: baskets may be short", cfg.Candidates.MinCandidates, cfg.Selection.RecommendationCount),
		})
	}

	if cfg.Metrics.VolatilityScalingExponent != 0.5 {
		warnings = append(warnings, Warning{
			Code:    "NONSTANDARD_VOL_SCALING",
			Message: "volatility scaling exponent differs from 0.5 (sqrt of elapsed years)",
		})
	}

	return warnings
}

// validatePctRange는 비율 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
