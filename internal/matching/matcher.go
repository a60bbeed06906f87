package matching

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// Config holds neighbor search settings
type Config struct {
	K int
}

// DefaultConfig returns K=5
func DefaultConfig() Config {
	return Config{K: 5}
}

// scaler standardizes one feature with population mean/stdev
type scaler struct {
	mean  float64
	scale float64
}

func fit(values []float64) scaler {
	mean, std := stat.PopMeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return scaler{mean: mean, scale: std}
}

func (s scaler) apply(v float64) float64 {
	return (v - s.mean) / s.scale
}

// Matcher implements S3 neighbor search in standardized (−volatility, growth) space
// ⭐ SSOT: S3 최근접 ETF 탐색은 여기서만
type Matcher struct {
	config Config
	logger *logger.Logger
}

// NewMatcher creates a neighbor matcher
func NewMatcher(config Config, log *logger.Logger) *Matcher {
	if config.K < 1 {
		config.K = 1
	}
	return &Matcher{
		config: config,
		logger: log,
	}
}

// Match returns up to k rows nearest the target, ascending by distance with
// ties in input order. k <= 0 uses the configured K; k is clamped to the
// number of valid rows.
func (m *Matcher) Match(rows []contracts.InstrumentMetrics, targetGrowthPct, targetVolatilityPct float64, k int) []contracts.Neighbor {
	valid := contracts.ValidOnly(rows)
	if len(valid) == 0 {
		return []contracts.Neighbor{}
	}
	if k <= 0 {
		k = m.config.K
	}
	if k > len(valid) {
		k = len(valid)
	}

	negVol := make([]float64, len(valid))
	growth := make([]float64, len(valid))
	for i, r := range valid {
		negVol[i] = -r.AnnualVolatilityPct.V
		growth[i] = r.AnnualGrowthPct.V
	}
	xs, ys := fit(negVol), fit(growth)

	pts := make(points, len(valid))
	for i := range valid {
		pts[i] = point{Point: kdtree.Point{xs.apply(negVol[i]), ys.apply(growth[i])}, index: i}
	}
	target := point{Point: kdtree.Point{xs.apply(-targetVolatilityPct), ys.apply(targetGrowthPct)}, index: -1}

	tree := kdtree.New(pts, false)

	// kth distance first, then every point within it so boundary ties resolve by index
	nearest := kdtree.NewNKeeper(k)
	tree.NearestSet(nearest, target)
	radius := 0.0
	for _, c := range nearest.Heap {
		if c.Comparable != nil && c.Dist > radius {
			radius = c.Dist
		}
	}

	within := kdtree.NewDistKeeper(radius)
	tree.NearestSet(within, target)

	hits := make([]kdtree.ComparableDist, 0, len(within.Heap))
	for _, c := range within.Heap {
		if c.Comparable != nil {
			hits = append(hits, c)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Dist != hits[j].Dist {
			return hits[i].Dist < hits[j].Dist
		}
		return hits[i].Comparable.(point).index < hits[j].Comparable.(point).index
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]contracts.Neighbor, len(hits))
	for i, h := range hits {
		out[i] = contracts.Neighbor{
			InstrumentMetrics: valid[h.Comparable.(point).index],
			Distance:          math.Sqrt(h.Dist),
		}
	}

	m.logger.WithFields(map[string]interface{}{
		"candidates": len(valid),
		"k":          k,
		"target":     []float64{targetGrowthPct, targetVolatilityPct},
	}).Debug("Neighbors matched")

	return out
}
