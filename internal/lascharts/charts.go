// Package lascharts renders interactive HTML views of a decoded point cloud
// with go-echarts.
package lascharts

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lasview/internal/las"
	"github.com/banshee-data/lasview/internal/lasstats"
)

const (
	ECHARTS_ASSETS_HOST = "https://go-echarts.github.io/go-echarts-assets/assets/"
	PLAN_SYMBOL_SIZE    = 2
)

// viridis ramp used for the elevation visual map
var elevationRamp = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// PlanChart builds an X/Y scatter of at most maxPoints points, coloured by
// elevation through a visual map on the Z dimension. Points with a
// non-finite coordinate are left out.
func PlanChart(name string, pc *las.PointCloud, maxPoints int) *charts.Scatter {
	idx := lasstats.SampleFinite(pc, maxPoints)
	data := make([]opts.ScatterData, 0, len(idx))
	for _, i := range idx {
		p := pc.Position[i]
		data = append(data, opts.ScatterData{Value: []interface{}{p[0], p[1], p[2]}})
	}

	lo, hi := pc.Bounds()
	if hi[2] <= lo[2] {
		hi[2] = lo[2] + 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: name, Width: "900px", Height: "900px", AssetsHost: ECHARTS_ASSETS_HOST}),
		charts.WithTitleOpts(opts.Title{Title: "Plan view", Subtitle: fmt.Sprintf("%s points=%d shown=%d", name, pc.Count, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X", NameLocation: "middle", NameGap: 25, Min: lo[0], Max: hi[0]}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y", NameLocation: "middle", NameGap: 30, Min: lo[1], Max: hi[1]}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        clampFloat32(lo[2]),
			Max:        clampFloat32(hi[2]),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: elevationRamp},
		}),
	)
	scatter.AddSeries("points", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: PLAN_SYMBOL_SIZE}))
	return scatter
}

// clampFloat32 narrows v without overflowing to infinity.
func clampFloat32(v float64) float32 {
	return float32(math.Max(-math.MaxFloat32, math.Min(v, math.MaxFloat32)))
}

// ClassChart builds a bar chart of point counts per classification code.
func ClassChart(name string, classes []lasstats.ClassCount) *charts.Bar {
	x := make([]string, len(classes))
	y := make([]opts.BarData, len(classes))
	for i, c := range classes {
		x[i] = fmt.Sprintf("%d %s", c.Code, c.Name)
		y[i] = opts.BarData{Value: c.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: name, Width: "100%", Height: "480px", AssetsHost: ECHARTS_ASSETS_HOST}),
		charts.WithTitleOpts(opts.Title{Title: "Classification", Subtitle: name}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("points", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// ElevationChart builds a bar chart from a precomputed elevation histogram.
func ElevationChart(name string, h lasstats.Histogram) *charts.Bar {
	x := make([]string, len(h.Counts))
	y := make([]opts.BarData, len(h.Counts))
	for i, c := range h.Counts {
		x[i] = fmt.Sprintf("%.2f", (h.Edges[i]+h.Edges[i+1])/2)
		y[i] = opts.BarData{Value: c}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: name, Width: "100%", Height: "480px", AssetsHost: ECHARTS_ASSETS_HOST}),
		charts.WithTitleOpts(opts.Title{Title: "Elevation", Subtitle: fmt.Sprintf("%s bins=%d", name, len(h.Counts))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Z", NameLocation: "middle", NameGap: 25}),
	)
	bar.SetXAxis(x).AddSeries("points", y)
	return bar
}

// RenderPage writes the given charts as one HTML page.
func RenderPage(w io.Writer, chs ...components.Charter) error {
	page := components.NewPage()
	page.SetAssetsHost(ECHARTS_ASSETS_HOST)
	page.AddCharts(chs...)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart page: %w", err)
	}
	return nil
}

// ReportOptions controls WriteReport.
type ReportOptions struct {
	MaxPoints int
	Bins      int
}

// WriteReport renders the plan, classification and elevation charts for pc
// into a single HTML file at path.
func WriteReport(path, name string, pc *las.PointCloud, o ReportOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close chart report: %w", cerr)
		}
	}()

	maxPoints := o.MaxPoints
	if maxPoints <= 0 {
		maxPoints = math.MaxInt
	}
	return RenderPage(f,
		PlanChart(name, pc, maxPoints),
		ClassChart(name, lasstats.ClassCounts(pc)),
		ElevationChart(name, lasstats.ElevationHistogram(pc, o.Bins)),
	)
}
