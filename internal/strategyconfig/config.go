package strategyconfig

// Normalization strategies for the utility score
const (
	NormalizeMax    = "max"
	NormalizeZScore = "zscore"
)

// Config holds the recommendation policy.
// Every constant that shapes a recommendation lives here so its effect can be studied.
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Metrics    Metrics    `yaml:"metrics" json:"metrics"`
	Drawdown   Drawdown   `yaml:"drawdown" json:"drawdown"`
	Candidates Candidates `yaml:"candidates" json:"candidates"`
	Scoring    Scoring    `yaml:"scoring" json:"scoring"`
	Selection  Selection  `yaml:"selection" json:"selection"`
	Backtest   Backtest   `yaml:"backtest" json:"backtest"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Metrics S1: horizon growth/volatility
type Metrics struct {
	TradingDaysPerYear int     `yaml:"trading_days_per_year" json:"trading_days_per_year"`
	DaysPerYear        float64 `yaml:"days_per_year" json:"days_per_year"`
	// volatility = annual_std_1y / actual_years^VolatilityScalingExponent
	VolatilityScalingExponent float64 `yaml:"volatility_scaling_exponent" json:"volatility_scaling_exponent"`
}

// Drawdown S2: blended full-history/recent drawdown
type Drawdown struct {
	FullWeight        float64 `yaml:"full_weight" json:"full_weight"`
	RecentWeight      float64 `yaml:"recent_weight" json:"recent_weight"`
	RecentWindowYears int     `yaml:"recent_window_years" json:"recent_window_years"`
}

// Candidates S3: quadrant cascade and neighbor search
type Candidates struct {
	MinCandidates int `yaml:"min_candidates" json:"min_candidates"`
	NeighborK     int `yaml:"neighbor_k" json:"neighbor_k"`
}

// Scoring S4
type Scoring struct {
	Normalization string `yaml:"normalization" json:"normalization"` // max | zscore
	// RatioScore divides by max(volatility, MinVolatilityPct)
	MinVolatilityPct float64 `yaml:"min_volatility_pct" json:"min_volatility_pct"`
}

// Selection S5
type Selection struct {
	RecommendationCount int `yaml:"recommendation_count" json:"recommendation_count"`
}

// Backtest S6
type Backtest struct {
	TestPeriodYears int `yaml:"test_period_years" json:"test_period_years"`
	// WeightedShortfall scales return and shortfall by the profile's weights
	WeightedShortfall bool `yaml:"weighted_shortfall" json:"weighted_shortfall"`
	// VaRConfidence is the historical VaR/CVaR level for basket daily returns
	VaRConfidence float64 `yaml:"var_confidence" json:"var_confidence"`
}

// Default returns the production policy
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "etf_navigator_default",
			Version:    "1",
		},
		Metrics: Metrics{
			TradingDaysPerYear:        252,
			DaysPerYear:               365.25,
			VolatilityScalingExponent: 0.5,
		},
		Drawdown: Drawdown{
			FullWeight:        0.3,
			RecentWeight:      0.7,
			RecentWindowYears: 10,
		},
		Candidates: Candidates{
			MinCandidates: 5,
			NeighborK:     5,
		},
		Scoring: Scoring{
			Normalization:    NormalizeMax,
			MinVolatilityPct: 0.01,
		},
		Selection: Selection{
			RecommendationCount: 5,
		},
		Backtest: Backtest{
			TestPeriodYears:   1,
			WeightedShortfall: false,
			VaRConfidence:     0.95,
		},
	}
}
