package las

import "math"

// PointCloud is the result of extracting point records. All four slices
// have exactly Count entries, in on-disk order. A PointCloud is not
// modified after Extract returns it.
type PointCloud struct {
	Count          uint64
	Position       [][3]float64 // real-world x, y, z (raw * scale + offset)
	Color          [][3]float32 // r, g, b normalised to [0, 1]
	Intensity      []uint16
	Classification []uint8

	// HasColor is true when colour came from explicit RGB fields and false
	// when it was derived from intensity.
	HasColor bool

	// Expected is the number of points that would have been returned had
	// the buffer held every declared record: min(header count, limit).
	Expected uint64
}

// Partial reports whether the point stream ended before Expected points
// could be read, i.e. the input was truncated.
func (pc *PointCloud) Partial() bool {
	return pc.Count < pc.Expected
}

// Bounds returns the per-axis minimum and maximum of the decoded
// positions. Points with a NaN or infinite coordinate are ignored; when no
// finite point remains it returns zero vectors.
func (pc *PointCloud) Bounds() (lo, hi [3]float64) {
	seen := false
	for _, p := range pc.Position {
		if !finite(p) {
			continue
		}
		if !seen {
			lo, hi, seen = p, p, true
			continue
		}
		for axis := 0; axis < 3; axis++ {
			if p[axis] < lo[axis] {
				lo[axis] = p[axis]
			}
			if p[axis] > hi[axis] {
				hi[axis] = p[axis]
			}
		}
	}
	return lo, hi
}

// NonFinite counts points with a NaN or infinite coordinate. Degenerate
// scale factors or offsets in the header produce them.
func (pc *PointCloud) NonFinite() int {
	n := 0
	for _, p := range pc.Position {
		if !finite(p) {
			n++
		}
	}
	return n
}

// IsFinite reports whether point i has three finite coordinates.
func (pc *PointCloud) IsFinite(i int) bool {
	return finite(pc.Position[i])
}

func finite(p [3]float64) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Center returns the centre of the bounding box of the decoded positions.
func (pc *PointCloud) Center() [3]float64 {
	lo, hi := pc.Bounds()
	return [3]float64{
		(lo[0] + hi[0]) / 2,
		(lo[1] + hi[1]) / 2,
		(lo[2] + hi[2]) / 2,
	}
}

// Centered returns a copy of the cloud translated so that its bounding-box
// centre sits at the origin. Attribute slices are shared with the receiver,
// which is left untouched.
func (pc *PointCloud) Centered() *PointCloud {
	c := pc.Center()
	out := *pc
	out.Position = make([][3]float64, len(pc.Position))
	for i, p := range pc.Position {
		out.Position[i] = [3]float64{p[0] - c[0], p[1] - c[1], p[2] - c[2]}
	}
	return &out
}
