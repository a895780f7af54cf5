package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, uint64(DEFAULT_MAX_POINTS), cfg.GetMaxPoints())
	assert.Equal(t, DEFAULT_CANCEL_CHECK_INTERVAL, cfg.GetCancelCheckInterval())
	assert.False(t, cfg.GetCenterCloud())
	assert.True(t, cfg.GetUseIntensityAsGrayscale())
	assert.Equal(t, DEFAULT_CHART_MAX_POINTS, cfg.GetChartMaxPoints())
	assert.Equal(t, DEFAULT_PLOT_WIDTH_INCHES, cfg.GetPlotWidthInches())
	assert.Equal(t, DEFAULT_PLOT_HEIGHT_INCHES, cfg.GetPlotHeightInches())
	assert.Equal(t, DEFAULT_HISTOGRAM_BINS, cfg.GetHistogramBins())
	assert.Equal(t, int64(DEFAULT_MAX_FILE_BYTES), cfg.GetMaxFileBytes())
	assert.Equal(t, DEFAULT_FETCH_TIMEOUT, cfg.GetFetchTimeout())
}

func TestGetterDefaultsOnEmptyConfig(t *testing.T) {
	assert.Equal(t, DefaultConfig().GetMaxPoints(), EmptyConfig().GetMaxPoints())
	assert.Equal(t, DefaultConfig().GetFetchTimeout(), EmptyConfig().GetFetchTimeout())
	assert.Equal(t, DefaultConfig().GetHistogramBins(), EmptyConfig().GetHistogramBins())
	assert.Equal(t, DefaultConfig().GetUseIntensityAsGrayscale(), EmptyConfig().GetUseIntensityAsGrayscale())
}

func TestDefaultsFileMatchesBuiltins(t *testing.T) {
	fromFile := MustLoadDefaultConfig()
	assert.Equal(t, DefaultConfig(), fromFile)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "lasview.json", `{
  "max_points": 1000,
  "center_cloud": true,
  "histogram_bins": 16,
  "fetch_timeout": "5s"
}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(1000), cfg.GetMaxPoints())
	assert.True(t, cfg.GetCenterCloud())
	assert.Equal(t, 16, cfg.GetHistogramBins())
	assert.Equal(t, 5*time.Second, cfg.GetFetchTimeout())
	// omitted fields fall back
	assert.Equal(t, DEFAULT_CHART_MAX_POINTS, cfg.GetChartMaxPoints())
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "lasview.yaml", "{}", ".json extension"},
		{"bad json", "bad.json", "{", "failed to parse"},
		{"zero max points", "a.json", `{"max_points": 0}`, "max_points"},
		{"negative interval", "b.json", `{"cancel_check_interval": -1}`, "cancel_check_interval"},
		{"tiny plot", "c.json", `{"plot_width_inches": 0.1}`, "plot_width_inches"},
		{"too many bins", "d.json", `{"histogram_bins": 100000}`, "histogram_bins"},
		{"bad duration", "e.json", `{"fetch_timeout": "soon"}`, "fetch_timeout"},
		{"negative duration", "f.json", `{"fetch_timeout": "-1s"}`, "fetch_timeout"},
		{"non-positive file limit", "g.json", `{"max_file_bytes": 0}`, "max_file_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsPlotWidthFirst(t *testing.T) {
	cfg := EmptyConfig()
	cfg.PlotWidthInches = ptrFloat64(0)
	cfg.PlotHeightInches = ptrFloat64(500)

	// Same answer on every run
	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "plot_width_inches")
	}

	cfg.PlotWidthInches = nil
	assert.ErrorContains(t, cfg.Validate(), "plot_height_inches")
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to stat")
}

func TestLoadConfigRejectsLargeFile(t *testing.T) {
	body := `{"max_points": 1, "pad": "` + strings.Repeat("x", MAX_CONFIG_FILE_SIZE) + `"}`
	_, err := LoadConfig(writeConfig(t, "big.json", body))
	assert.ErrorContains(t, err, "too large")
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
