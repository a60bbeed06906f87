package selection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

func row(ticker string, growth, vol float64) contracts.InstrumentMetrics {
	return contracts.InstrumentMetrics{
		Ticker:              ticker,
		HorizonYears:        5,
		AnnualGrowthPct:     contracts.Some(growth),
		AnnualVolatilityPct: contracts.Some(vol),
	}
}

func table() []contracts.InstrumentMetrics {
	return []contracts.InstrumentMetrics{
		row("A", 12, 8),  // growth and vol
		row("B", 11, 9),  // growth and vol
		row("C", 3, 6),   // vol only
		row("D", 15, 25), // growth only
		row("E", 2, 30),  // neither
		row("F", 1, 40),  // neither
		{Ticker: "G", AnnualGrowthPct: contracts.Some(50)},
	}
}

func TestQuadrantFilter_Cascade(t *testing.T) {
	tests := []struct {
		name      string
		min       int
		wantStage string
		want      []string
	}{
		{"strict enough", 2, StageStrictAnd, []string{"A", "B"}},
		{"relaxed", 4, StageRelaxedOr, []string{"A", "B", "C", "D"}},
		{"fallback all", 5, StageAll, []string{"A", "B", "C", "D", "E", "F"}},
		{"all even when short", 10, StageAll, []string{"A", "B", "C", "D", "E", "F"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuadrantFilter(QuadrantConfig{MinCandidates: tt.min}, logger.Nop())
			got := q.Filter(table(), 10, 10)

			assert.Equal(t, tt.wantStage, got.Stage)
			tickers := make([]string, len(got.Rows))
			for i, r := range got.Rows {
				tickers[i] = r.Ticker
			}
			assert.Equal(t, tt.want, tickers)
		})
	}
}

func TestQuadrantFilter_AlwaysReachesMinimum(t *testing.T) {
	q := NewQuadrantFilter(DefaultQuadrantConfig(), logger.Nop())

	var rows []contracts.InstrumentMetrics
	for i := 0; i < 7; i++ {
		rows = append(rows, row(fmt.Sprintf("T%d", i), float64(i), float64(10+i)))
	}

	targets := [][2]float64{{-100, 1000}, {0, 0}, {1000, -1}, {3, 12}, {1e9, -1e9}}
	for _, target := range targets {
		got := q.Filter(rows, target[0], target[1])
		assert.GreaterOrEqual(t, len(got.Rows), 5, "target %v stage %s", target, got.Stage)
	}
}

func TestQuadrantFilter_Empty(t *testing.T) {
	q := NewQuadrantFilter(DefaultQuadrantConfig(), logger.Nop())
	got := q.Filter(nil, 5, 5)
	assert.Empty(t, got.Rows)
	assert.Equal(t, StageAll, got.Stage)
}

func TestQuadrantFilter_CustomCascade(t *testing.T) {
	q := NewQuadrantFilter(QuadrantConfig{
		MinCandidates: 1,
		Cascade: []Strategy{{
			Name:  "low_vol",
			Match: func(_, v, _, tv float64) bool { return v <= tv/2 },
		}},
	}, logger.Nop())

	got := q.Filter(table(), 0, 16)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "low_vol", got.Stage)
}
