package lascharts

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lasview/internal/las"
	"github.com/banshee-data/lasview/internal/lasstats"
)

func sampleCloud() *las.PointCloud {
	return &las.PointCloud{
		Count:          4,
		Expected:       4,
		Position:       [][3]float64{{0, 0, 1}, {1, 0, 2}, {0, 1, 3}, {1, 1, 4}},
		Color:          make([][3]float32, 4),
		Intensity:      []uint16{1, 2, 3, 4},
		Classification: []uint8{2, 2, 5, 6},
	}
}

func TestRenderPage(t *testing.T) {
	pc := sampleCloud()

	var buf bytes.Buffer
	err := RenderPage(&buf,
		PlanChart("tile.las", pc, 2),
		ClassChart("tile.las", lasstats.ClassCounts(pc)),
		ElevationChart("tile.las", lasstats.ElevationHistogram(pc, 3)),
	)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Plan view")
	assert.Contains(t, html, "points=4 shown=2")
	assert.Contains(t, html, "Classification")
	assert.Contains(t, html, "Ground")
	assert.Contains(t, html, "Elevation")
	assert.Contains(t, html, ECHARTS_ASSETS_HOST)
}

func TestPlanChartEmptyCloud(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, PlanChart("empty", &las.PointCloud{}, 10)))
	assert.Contains(t, buf.String(), "shown=0")
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteReport(path, "tile.las", sampleCloud(), ReportOptions{Bins: 4}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<html")

	err = WriteReport(filepath.Join(t.TempDir(), "missing", "r.html"), "x", sampleCloud(), ReportOptions{})
	assert.ErrorContains(t, err, "create chart report")
}

func TestWriteReportNonFiniteCloud(t *testing.T) {
	pc := sampleCloud()
	pc.Position[1][2] = math.Inf(1)
	pc.Position[2][0] = math.NaN()
	pc.Position[3][2] = 1e308

	path := filepath.Join(t.TempDir(), "report.html")
	require.NotPanics(t, func() {
		require.NoError(t, WriteReport(path, "big.las", pc, ReportOptions{Bins: 4}))
	})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "points=4 shown=2")
}

func TestClampFloat32(t *testing.T) {
	assert.Equal(t, float32(math.MaxFloat32), clampFloat32(1e308))
	assert.Equal(t, float32(-math.MaxFloat32), clampFloat32(-1e308))
	assert.Equal(t, float32(2.5), clampFloat32(2.5))
}
