package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/lasview.defaults.json"

// Built-in fallbacks used by the Get* accessors when a field is unset.
const (
	DEFAULT_MAX_POINTS             = 2_000_000
	DEFAULT_CANCEL_CHECK_INTERVAL  = 4096
	DEFAULT_CHART_MAX_POINTS       = 20_000
	DEFAULT_PLOT_WIDTH_INCHES      = 8.0
	DEFAULT_PLOT_HEIGHT_INCHES     = 6.0
	DEFAULT_HISTOGRAM_BINS         = 64
	DEFAULT_MAX_FILE_BYTES         = 512 << 20
	DEFAULT_FETCH_TIMEOUT          = 30 * time.Second
	MAX_CONFIG_FILE_SIZE           = 1 << 20
	MAX_HISTOGRAM_BINS             = 4096
	MIN_PLOT_DIMENSION_INCHES      = 1.0
	MAX_PLOT_DIMENSION_INCHES      = 100.0
	DEFAULT_CENTER_CLOUD           = false
	DEFAULT_INTENSITY_AS_GRAYSCALE = true
)

// LasviewConfig holds decode and presentation settings shared by the CLI
// and the HTTP server. Every field is optional; omitted fields fall back to
// the built-in defaults through the Get* methods.
type LasviewConfig struct {
	// Decode
	MaxPoints           *uint64 `json:"max_points,omitempty"`
	CancelCheckInterval *int    `json:"cancel_check_interval,omitempty"`
	CenterCloud         *bool   `json:"center_cloud,omitempty"`

	// Presentation
	UseIntensityAsGrayscale *bool    `json:"use_intensity_as_grayscale,omitempty"`
	ChartMaxPoints          *int     `json:"chart_max_points,omitempty"`
	PlotWidthInches         *float64 `json:"plot_width_inches,omitempty"`
	PlotHeightInches        *float64 `json:"plot_height_inches,omitempty"`
	HistogramBins           *int     `json:"histogram_bins,omitempty"`

	// Sources
	MaxFileBytes *int64  `json:"max_file_bytes,omitempty"`
	FetchTimeout *string `json:"fetch_timeout,omitempty"` // duration string like "30s"
}

func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }
func ptrUint64(v uint64) *uint64    { return &v }
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// EmptyConfig returns a config with every field unset.
func EmptyConfig() *LasviewConfig {
	return &LasviewConfig{}
}

// DefaultConfig returns a config with every field set to its built-in default.
func DefaultConfig() *LasviewConfig {
	return &LasviewConfig{
		MaxPoints:               ptrUint64(DEFAULT_MAX_POINTS),
		CancelCheckInterval:     ptrInt(DEFAULT_CANCEL_CHECK_INTERVAL),
		CenterCloud:             ptrBool(DEFAULT_CENTER_CLOUD),
		UseIntensityAsGrayscale: ptrBool(DEFAULT_INTENSITY_AS_GRAYSCALE),
		ChartMaxPoints:          ptrInt(DEFAULT_CHART_MAX_POINTS),
		PlotWidthInches:         ptrFloat64(DEFAULT_PLOT_WIDTH_INCHES),
		PlotHeightInches:        ptrFloat64(DEFAULT_PLOT_HEIGHT_INCHES),
		HistogramBins:           ptrInt(DEFAULT_HISTOGRAM_BINS),
		MaxFileBytes:            ptrInt64(DEFAULT_MAX_FILE_BYTES),
		FetchTimeout:            ptrString(DEFAULT_FETCH_TIMEOUT.String()),
	}
}

// LoadConfig loads a config from a JSON file. The file must have a .json
// extension and be at most 1MB. Fields omitted from the file keep their
// defaults, so partial configs are safe.
func LoadConfig(path string) (*LasviewConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > MAX_CONFIG_FILE_SIZE {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), MAX_CONFIG_FILE_SIZE)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns DefaultConfig when path is empty.
func LoadOrDefault(path string) (*LasviewConfig, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from the
// current directory. It panics if the file cannot be loaded and is intended
// for test setup.
func MustLoadDefaultConfig() *LasviewConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/<pkg>/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that every set field is in range.
func (c *LasviewConfig) Validate() error {
	if c.MaxPoints != nil && *c.MaxPoints == 0 {
		return fmt.Errorf("max_points must be positive")
	}
	if c.CancelCheckInterval != nil && *c.CancelCheckInterval <= 0 {
		return fmt.Errorf("cancel_check_interval must be positive, got %d", *c.CancelCheckInterval)
	}
	if c.ChartMaxPoints != nil && *c.ChartMaxPoints <= 0 {
		return fmt.Errorf("chart_max_points must be positive, got %d", *c.ChartMaxPoints)
	}
	for _, dim := range []struct {
		name string
		v    *float64
	}{
		{"plot_width_inches", c.PlotWidthInches},
		{"plot_height_inches", c.PlotHeightInches},
	} {
		name, v := dim.name, dim.v
		if v != nil && (*v < MIN_PLOT_DIMENSION_INCHES || *v > MAX_PLOT_DIMENSION_INCHES) {
			return fmt.Errorf("%s must be between %.0f and %.0f, got %f", name, MIN_PLOT_DIMENSION_INCHES, MAX_PLOT_DIMENSION_INCHES, *v)
		}
	}
	if c.HistogramBins != nil && (*c.HistogramBins < 1 || *c.HistogramBins > MAX_HISTOGRAM_BINS) {
		return fmt.Errorf("histogram_bins must be between 1 and %d, got %d", MAX_HISTOGRAM_BINS, *c.HistogramBins)
	}
	if c.MaxFileBytes != nil && *c.MaxFileBytes <= 0 {
		return fmt.Errorf("max_file_bytes must be positive, got %d", *c.MaxFileBytes)
	}
	if c.FetchTimeout != nil && *c.FetchTimeout != "" {
		d, err := time.ParseDuration(*c.FetchTimeout)
		if err != nil {
			return fmt.Errorf("invalid fetch_timeout '%s': %w", *c.FetchTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("fetch_timeout must be positive, got %s", d)
		}
	}
	return nil
}

// GetMaxPoints returns the max_points value or the default.
func (c *LasviewConfig) GetMaxPoints() uint64 {
	if c.MaxPoints == nil {
		return DEFAULT_MAX_POINTS
	}
	return *c.MaxPoints
}

// GetCancelCheckInterval returns the cancel_check_interval value or the default.
func (c *LasviewConfig) GetCancelCheckInterval() int {
	if c.CancelCheckInterval == nil {
		return DEFAULT_CANCEL_CHECK_INTERVAL
	}
	return *c.CancelCheckInterval
}

// GetCenterCloud returns the center_cloud value or the default.
func (c *LasviewConfig) GetCenterCloud() bool {
	if c.CenterCloud == nil {
		return DEFAULT_CENTER_CLOUD
	}
	return *c.CenterCloud
}

// GetUseIntensityAsGrayscale returns the use_intensity_as_grayscale value or the default.
func (c *LasviewConfig) GetUseIntensityAsGrayscale() bool {
	if c.UseIntensityAsGrayscale == nil {
		return DEFAULT_INTENSITY_AS_GRAYSCALE
	}
	return *c.UseIntensityAsGrayscale
}

// GetChartMaxPoints returns the chart_max_points value or the default.
func (c *LasviewConfig) GetChartMaxPoints() int {
	if c.ChartMaxPoints == nil {
		return DEFAULT_CHART_MAX_POINTS
	}
	return *c.ChartMaxPoints
}

// GetPlotWidthInches returns the plot_width_inches value or the default.
func (c *LasviewConfig) GetPlotWidthInches() float64 {
	if c.PlotWidthInches == nil {
		return DEFAULT_PLOT_WIDTH_INCHES
	}
	return *c.PlotWidthInches
}

// GetPlotHeightInches returns the plot_height_inches value or the default.
func (c *LasviewConfig) GetPlotHeightInches() float64 {
	if c.PlotHeightInches == nil {
		return DEFAULT_PLOT_HEIGHT_INCHES
	}
	return *c.PlotHeightInches
}

// GetHistogramBins returns the histogram_bins value or the default.
func (c *LasviewConfig) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return DEFAULT_HISTOGRAM_BINS
	}
	return *c.HistogramBins
}

// GetMaxFileBytes returns the max_file_bytes value or the default.
func (c *LasviewConfig) GetMaxFileBytes() int64 {
	if c.MaxFileBytes == nil {
		return DEFAULT_MAX_FILE_BYTES
	}
	return *c.MaxFileBytes
}

// GetFetchTimeout parses and returns FetchTimeout as a time.Duration.
func (c *LasviewConfig) GetFetchTimeout() time.Duration {
	if c.FetchTimeout == nil || *c.FetchTimeout == "" {
		return DEFAULT_FETCH_TIMEOUT
	}
	d, err := time.ParseDuration(*c.FetchTimeout)
	if err != nil {
		return DEFAULT_FETCH_TIMEOUT // default on parse error
	}
	return d
}
