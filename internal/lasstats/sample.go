package lasstats

import "github.com/banshee-data/lasview/internal/las"

// SampleIndices picks at most max indices from [0, n) at an even stride,
// always starting at 0. It returns nil when n or max is not positive.
func SampleIndices(n, max int) []int {
	if n <= 0 || max <= 0 {
		return nil
	}
	if n <= max {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, max)
	for i := range idx {
		idx[i] = int(int64(i) * int64(n) / int64(max))
	}
	return idx
}

// SampleFinite is SampleIndices over the points of pc whose coordinates are
// all finite. The returned indices refer to pc.Position.
func SampleFinite(pc *las.PointCloud, max int) []int {
	finite := FiniteIndices(pc)
	picked := SampleIndices(len(finite), max)
	for k, i := range picked {
		picked[k] = finite[i]
	}
	return picked
}
