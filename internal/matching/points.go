package matching

import "gonum.org/v1/gonum/spatial/kdtree"

// point is a standardized (−volatility, growth) coordinate tagged with its row index
type point struct {
	kdtree.Point
	index int
}

func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.Point[d] - c.(point).Point[d]
}

func (p point) Dims() int { return len(p.Point) }

// Distance is squared Euclidean
func (p point) Distance(c kdtree.Comparable) float64 {
	return p.Point.Distance(c.(point).Point)
}

type points []point

func (p points) Index(i int) kdtree.Comparable { return p[i] }
func (p points) Len() int                      { return len(p) }
func (p points) Pivot(d kdtree.Dim) int        { return plane{Dim: d, points: p}.Pivot() }
func (p points) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// plane sorts points along one dimension for median partitioning
type plane struct {
	kdtree.Dim
	points
}

func (p plane) Less(i, j int) bool {
	return p.points[i].Point[p.Dim] < p.points[j].Point[p.Dim]
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}
