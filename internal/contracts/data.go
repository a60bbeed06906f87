package contracts

import "time"

// DataQualitySnapshot summarizes price coverage for a request
// ⭐ SSOT: S0 → S1 데이터 품질 정보 전달
type DataQualitySnapshot struct {
	Date         time.Time          `json:"date"`
	TotalTickers int                `json:"total_tickers"`
	ValidTickers int                `json:"valid_tickers"`
	Missing      []string           `json:"missing,omitempty"`
	Coverage     map[string]float64 `json:"coverage"`
	QualityScore float64            `json:"quality_score"` // 0.0 ~ 1.0
}

// CoverageRate returns the average coverage rate across all checks
func (d *DataQualitySnapshot) CoverageRate() float64 {
	if len(d.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range d.Coverage {
		total += rate
	}
	return total / float64(len(d.Coverage))
}
