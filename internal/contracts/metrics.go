package contracts

// Reasons attached to unavailable metrics
const (
	ReasonMissingTicker    = "missing_ticker"
	ReasonInsufficientData = "insufficient_data"
)

// InstrumentMetrics is the per-ticker horizon summary passed from S1 onwards
// ⭐ SSOT: S1 → S2/S3 지표 전달
type InstrumentMetrics struct {
	Ticker              string   `json:"ticker"`
	HorizonYears        int      `json:"horizon_years"`
	AnnualGrowthPct     Optional `json:"annual_growth_pct"`
	AnnualVolatilityPct Optional `json:"annual_volatility_pct"`
	Reason              string   `json:"reason,omitempty"`
}

// Valid reports whether both growth and volatility are available
func (m InstrumentMetrics) Valid() bool {
	return m.AnnualGrowthPct.OK && m.AnnualVolatilityPct.OK
}

// ValidOnly returns the rows with both metrics available, order preserved
func ValidOnly(rows []InstrumentMetrics) []InstrumentMetrics {
	out := make([]InstrumentMetrics, 0, len(rows))
	for _, r := range rows {
		if r.Valid() {
			out = append(out, r)
		}
	}
	return out
}
