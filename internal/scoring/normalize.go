package scoring

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/strategyconfig"
)

// Normalize rescales a column with the named strategy.
// max divides by the column maximum (by |max| when it is negative, so order holds);
// zscore subtracts the mean and divides by the sample standard deviation.
func Normalize(values []float64, strategy string) ([]float64, error) {
	if len(values) == 0 {
		return nil, contracts.ErrDegenerateNormalizer
	}

	out := make([]float64, len(values))
	switch strategy {
	case strategyconfig.NormalizeMax:
		m := floats.Max(values)
		if m == 0 {
			return nil, fmt.Errorf("column max is 0: %w", contracts.ErrDegenerateNormalizer)
		}
		floats.ScaleTo(out, 1/math.Abs(m), values)

	case strategyconfig.NormalizeZScore:
		if len(values) < 2 {
			return nil, fmt.Errorf("zscore needs 2 values, got %d: %w", len(values), contracts.ErrDegenerateNormalizer)
		}
		mean, std := stat.MeanStdDev(values, nil)
		if std == 0 {
			return nil, fmt.Errorf("column stdev is 0: %w", contracts.ErrDegenerateNormalizer)
		}
		for i, v := range values {
			out[i] = (v - mean) / std
		}

	default:
		return nil, fmt.Errorf("unknown normalization %q", strategy)
	}

	return out, nil
}
