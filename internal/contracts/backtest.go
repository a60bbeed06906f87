package contracts

import "time"

// Basket labels
const (
	BasketCustom = "custom"
	BasketSharpe = "sharpe"
)

// BacktestResult holds forward-window metrics for one basket.
// Every numeric field is Unavailable when the basket had no usable test data.
type BacktestResult struct {
	Label                string   `json:"label"`
	Tickers              []string `json:"tickers"`
	AnnualReturnPct      Optional `json:"annual_return_pct"`
	VolatilityPct        Optional `json:"volatility_pct"`
	SharpeRatio          Optional `json:"sharpe_ratio"`
	SortinoRatio         Optional `json:"sortino_ratio"`
	MaxDrawdownPct       Optional `json:"max_drawdown_pct"`
	MeanShortfallPct     Optional `json:"mean_shortfall_pct"`
	RewardToShortfall    Optional `json:"reward_to_shortfall"`
	DailyVaRPct          Optional `json:"daily_var_pct"`  // historical, loss-positive
	DailyCVaRPct         Optional `json:"daily_cvar_pct"` // mean loss beyond VaR, loss-positive
	TrainAnnualGrowthPct Optional `json:"train_annual_growth_pct"`
	TrainVolatilityPct   Optional `json:"train_volatility_pct"`
	TestDays             int      `json:"test_days"`
}

// Comparison is the custom-vs-sharpe backtest outcome
type Comparison struct {
	Profile  UserProfile    `json:"profile"`
	TrainEnd time.Time      `json:"train_end"`
	TestEnd  time.Time      `json:"test_end"`
	Custom   BacktestResult `json:"custom"`
	Sharpe   BacktestResult `json:"sharpe"`
}
