package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/etfnav/backend/internal/contracts"
)

// VaRResult is a tail-loss estimate
// ⭐ SSOT: VaR/CVaR는 손실을 양수로 표현
// - VaR=0.02 → 95% 신뢰수준에서 하루 최대 2% 손실
// - CVaR=0.03 → 5% tail에서 평균 3% 손실
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
	Samples    int     `json:"samples"`
}

// Historical estimates VaR and CVaR by historical simulation.
// The VaR index is floor((1 − confidence) × n) on ascending returns; CVaR is
// the mean of returns up to and including that index. Gains report 0.
func Historical(returns []float64, confidence float64) (VaRResult, error) {
	if confidence <= 0 || confidence >= 1 {
		return VaRResult{}, &contracts.ValidationError{Field: "confidence", Message: "must be in (0, 1)"}
	}
	if len(returns) == 0 {
		return VaRResult{}, contracts.ErrInsufficientData
	}

	// 오름차순 정렬: 손실이 앞에
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        lossPositive(sorted[idx]),
		CVaR:       lossPositive(stat.Mean(sorted[:idx+1], nil)),
		Samples:    len(sorted),
	}, nil
}

func lossPositive(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}
