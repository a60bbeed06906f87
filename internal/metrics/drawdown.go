package metrics

// MaxDrawdown returns the deepest peak-to-trough decline of a value curve as a
// non-positive fraction (-0.25 is a 25% drawdown). Empty curves return 0.
func MaxDrawdown(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0]
	worst := 0.0
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if dd := v/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}
