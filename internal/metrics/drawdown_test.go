package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name  string
		curve []float64
		want  float64
	}{
		{"empty", nil, 0},
		{"single", []float64{100}, 0},
		{"monotonic up", []float64{1, 2, 3}, 0},
		{"half", []float64{100, 50, 75}, -0.5},
		{"later peak deeper trough", []float64{100, 90, 200, 100, 150}, -0.5},
		{"recovered", []float64{1.0, 0.8, 1.2}, -0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MaxDrawdown(tt.curve), 1e-12)
		})
	}
}
