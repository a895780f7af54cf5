// Package lasstats computes descriptive statistics over a decoded point
// cloud: per-axis and intensity distributions, classification counts and an
// elevation histogram.
package lasstats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lasview/internal/las"
)

// Distribution summarises one scalar attribute.
type Distribution struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P05    float64 `json:"p05"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

// ClassCount is the number of points carrying one classification code.
type ClassCount struct {
	Code  uint8  `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary is the statistics report for a PointCloud.
type Summary struct {
	Count    uint64 `json:"count"`
	Expected uint64 `json:"expected"`
	Partial  bool   `json:"partial"`
	HasColor bool   `json:"has_color"`

	X         Distribution `json:"x"`
	Y         Distribution `json:"y"`
	Z         Distribution `json:"z"`
	Intensity Distribution `json:"intensity"`

	// Density is points per square unit of the XY bounding box; zero when
	// the box is degenerate.
	Density float64 `json:"density"`

	// NonFinite counts points left out of the X, Y, Z and intensity
	// distributions because a coordinate is NaN or infinite.
	NonFinite int `json:"non_finite"`

	Classes []ClassCount `json:"classes"`
}

// Compute builds a Summary. An empty cloud yields zero distributions and
// no classes.
func Compute(pc *las.PointCloud) Summary {
	s := Summary{
		Count:    pc.Count,
		Expected: pc.Expected,
		Partial:  pc.Partial(),
		HasColor: pc.HasColor,
		Classes:  ClassCounts(pc),
	}

	idx := FiniteIndices(pc)
	s.NonFinite = len(pc.Position) - len(idx)
	if len(idx) == 0 {
		return s
	}

	xs, ys, zs := Axes(pc, idx)
	s.X = Describe(xs)
	s.Y = Describe(ys)
	s.Z = Describe(zs)

	intensity := make([]float64, len(idx))
	for k, i := range idx {
		intensity[k] = float64(pc.Intensity[i])
	}
	s.Intensity = Describe(intensity)

	if area := (s.X.Max - s.X.Min) * (s.Y.Max - s.Y.Min); area > 0 && !math.IsInf(area, 0) {
		s.Density = float64(len(idx)) / area
	}
	return s
}

// FiniteIndices returns the indices of points whose coordinates are all
// finite, in order.
func FiniteIndices(pc *las.PointCloud) []int {
	idx := make([]int, 0, len(pc.Position))
	for i := range pc.Position {
		if pc.IsFinite(i) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Axes splits the positions at idx into per-axis slices.
func Axes(pc *las.PointCloud, idx []int) (xs, ys, zs []float64) {
	xs = make([]float64, len(idx))
	ys = make([]float64, len(idx))
	zs = make([]float64, len(idx))
	for k, i := range idx {
		p := pc.Position[i]
		xs[k], ys[k], zs[k] = p[0], p[1], p[2]
	}
	return xs, ys, zs
}

// Describe computes a Distribution over values. values is not modified.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	return Distribution{
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Mean:   mean,
		StdDev: std,
		P05:    stat.Quantile(0.05, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
}

// ClassCounts tallies classification codes, ordered by code.
func ClassCounts(pc *las.PointCloud) []ClassCount {
	var counts [256]int
	for _, c := range pc.Classification {
		counts[c]++
	}
	var out []ClassCount
	for code, n := range counts {
		if n == 0 {
			continue
		}
		out = append(out, ClassCount{Code: uint8(code), Name: ClassName(uint8(code)), Count: n})
	}
	return out
}

// Histogram is a fixed-width binning of one attribute.
type Histogram struct {
	Edges     []float64 `json:"edges"`      // len(Counts)+1 bin boundaries
	Counts    []float64 `json:"counts"`     // points per bin
	NonFinite int       `json:"non_finite"` // NaN or infinite values left out
}

// ElevationHistogram bins finite Z values into the given number of
// equal-width bins spanning their observed range. NaN and infinite values
// are counted in NonFinite instead. It returns no bins for bins < 1 or when
// no finite value remains.
func ElevationHistogram(pc *las.PointCloud, bins int) Histogram {
	zs := make([]float64, 0, len(pc.Position))
	for _, p := range pc.Position {
		if !math.IsNaN(p[2]) && !math.IsInf(p[2], 0) {
			zs = append(zs, p[2])
		}
	}
	h := Histogram{NonFinite: len(pc.Position) - len(zs)}
	if len(zs) == 0 || bins < 1 {
		return h
	}
	sort.Float64s(zs)

	lo, hi := zs[0], zs[len(zs)-1]
	if hi == lo {
		pad := math.Max(1, math.Abs(lo)*1e-9)
		if math.IsInf(lo+pad, 0) {
			lo -= pad
		} else {
			hi = lo + pad
		}
	}
	h.Edges = make([]float64, bins+1)
	if math.IsInf(hi-lo, 0) {
		// The range itself overflows; interpolate without forming hi-lo
		for i := range h.Edges {
			t := float64(i) / float64(bins)
			h.Edges[i] = lo*(1-t) + hi*t
		}
	} else {
		floats.Span(h.Edges, lo, hi)
	}
	// stat.Histogram needs the last divider strictly above the maximum
	dividers := append([]float64(nil), h.Edges...)
	dividers[bins] = math.Nextafter(zs[len(zs)-1], math.Inf(1))
	if dividers[bins] < h.Edges[bins] {
		dividers[bins] = h.Edges[bins]
	}

	h.Counts = stat.Histogram(nil, dividers, zs, nil)
	return h
}
