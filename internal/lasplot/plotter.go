// Package lasplot renders static PNG views of a decoded point cloud with
// gonum/plot: a plan view coloured per point and an elevation histogram.
package lasplot

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/lasview/internal/las"
	"github.com/banshee-data/lasview/internal/lasstats"
	"github.com/banshee-data/lasview/internal/monitoring"
	"github.com/banshee-data/lasview/internal/security"
)

// Output file suffixes appended to the sanitised base name.
const (
	PLAN_SUFFIX      = "_plan.png"
	ELEVATION_SUFFIX = "_elevation.png"

	DEFAULT_MAX_PLOT_POINTS = 50_000
	GLYPH_RADIUS_POINTS     = 0.8
)

// Plotter writes PNG plots into OutputDir.
type Plotter struct {
	OutputDir string
	Width     vg.Length
	Height    vg.Length

	// MaxPoints caps how many points the plan view draws; larger clouds are
	// sampled at an even stride.
	MaxPoints int

	// Bins is the number of elevation histogram bins.
	Bins int

	// UseIntensityAsGrayscale keeps the decoder's intensity-derived grey for
	// clouds without RGB. When false those clouds are coloured by elevation.
	UseIntensityAsGrayscale bool
}

// NewPlotter returns a Plotter with the given output directory and size in inches.
func NewPlotter(outputDir string, widthInches, heightInches float64, bins int) *Plotter {
	return &Plotter{
		OutputDir:               outputDir,
		Width:                   vg.Length(widthInches) * vg.Inch,
		Height:                  vg.Length(heightInches) * vg.Inch,
		MaxPoints:               DEFAULT_MAX_PLOT_POINTS,
		Bins:                    bins,
		UseIntensityAsGrayscale: true,
	}
}

// Render writes the plan view and elevation histogram for pc and returns
// the written paths. name is sanitised before use as a file name prefix.
func (p *Plotter) Render(name string, pc *las.PointCloud) ([]string, error) {
	base := filepath.Join(p.OutputDir, security.SanitizeFilename(name))

	plan, err := p.PlanView(name, pc)
	if err != nil {
		return nil, err
	}
	planFile := base + PLAN_SUFFIX
	if err := plan.Save(p.Width, p.Height, planFile); err != nil {
		return nil, fmt.Errorf("save plan plot: %w", err)
	}

	hist, err := p.ElevationHistogram(name, pc)
	if err != nil {
		return nil, err
	}
	histFile := base + ELEVATION_SUFFIX
	if err := hist.Save(p.Width, p.Height, histFile); err != nil {
		return nil, fmt.Errorf("save elevation plot: %w", err)
	}

	monitoring.Logf("lasplot: wrote %s and %s (%d points)", planFile, histFile, pc.Count)
	return []string{planFile, histFile}, nil
}

// PlanView builds an X/Y scatter plot with one glyph per sampled point.
// Points with a non-finite coordinate are not drawn.
func (p *Plotter) PlanView(name string, pc *las.PointCloud) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s - plan view (%d points)", name, pc.Count)
	pl.X.Label.Text = "X"
	pl.Y.Label.Text = "Y"

	idx := lasstats.SampleFinite(pc, p.maxPoints())
	if len(idx) == 0 {
		return pl, nil
	}

	xys := make(plotter.XYs, len(idx))
	for i, j := range idx {
		xys[i].X = pc.Position[j][0]
		xys[i].Y = pc.Position[j][1]
	}
	colors, err := p.pointColors(pc, idx)
	if err != nil {
		return nil, err
	}

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("plan scatter: %w", err)
	}
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  colors[i],
			Radius: vg.Points(GLYPH_RADIUS_POINTS),
			Shape:  draw.CircleGlyph{},
		}
	}
	pl.Add(scatter)
	return pl, nil
}

// ElevationHistogram builds a histogram of Z values.
func (p *Plotter) ElevationHistogram(name string, pc *las.PointCloud) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s - elevation", name)
	pl.X.Label.Text = "Z"
	pl.Y.Label.Text = "Points"

	idx := lasstats.FiniteIndices(pc)
	if len(idx) == 0 {
		return pl, nil
	}
	_, _, zs := lasstats.Axes(pc, idx)
	bins := p.Bins
	if bins < 1 {
		bins = 1
	}
	hist, err := plotter.NewHist(plotter.Values(zs), bins)
	if err != nil {
		return nil, fmt.Errorf("elevation histogram: %w", err)
	}
	hist.FillColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	pl.Add(hist)
	return pl, nil
}

func (p *Plotter) maxPoints() int {
	if p.MaxPoints <= 0 {
		return DEFAULT_MAX_PLOT_POINTS
	}
	return p.MaxPoints
}

// pointColors returns one colour per sampled index.
func (p *Plotter) pointColors(pc *las.PointCloud, idx []int) ([]color.Color, error) {
	colors := make([]color.Color, len(idx))
	if pc.HasColor || p.UseIntensityAsGrayscale {
		for i, j := range idx {
			colors[i] = toRGBA(pc.Color[j])
		}
		return colors, nil
	}

	cm := elevationColorMap(pc)
	for i, j := range idx {
		c, err := cm.At(pc.Position[j][2])
		if err != nil {
			return nil, fmt.Errorf("elevation colour: %w", err)
		}
		colors[i] = c
	}
	return colors, nil
}

func elevationColorMap(pc *las.PointCloud) palette.ColorMap {
	lo, hi := pc.Bounds()
	if hi[2] <= lo[2] {
		hi[2] = lo[2] + 1
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(lo[2])
	cm.SetMax(hi[2])
	return cm
}

func toRGBA(c [3]float32) color.RGBA {
	return color.RGBA{R: channel(c[0]), G: channel(c[1]), B: channel(c[2]), A: 255}
}

func channel(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
