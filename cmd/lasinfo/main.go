// Command lasinfo decodes one LAS file or URL and prints its header,
// decode warnings and point statistics. It can also write PNG plots, an
// HTML chart report and a catalog entry for the run.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/lasview/internal/catalog"
	"github.com/banshee-data/lasview/internal/config"
	"github.com/banshee-data/lasview/internal/fsutil"
	"github.com/banshee-data/lasview/internal/las"
	"github.com/banshee-data/lasview/internal/lascharts"
	"github.com/banshee-data/lasview/internal/lasplot"
	"github.com/banshee-data/lasview/internal/lasstats"
	"github.com/banshee-data/lasview/internal/monitoring"
	"github.com/banshee-data/lasview/internal/source"
	"github.com/banshee-data/lasview/internal/version"
)

// Options holds the parsed command line.
type Options struct {
	File        string
	URL         string
	Limit       int64 // negative: use max_points from config
	ConfigPath  string
	JSON        bool
	Center      bool
	PlotDir     string
	ChartPath   string
	CatalogPath string
	ShowVersion bool
}

// Report is the -json output.
type Report struct {
	Source   string                 `json:"source"`
	Header   map[string]interface{} `json:"header"`
	Warnings []string               `json:"warnings"`
	Centered bool                   `json:"centered"`
	Stats    lasstats.Summary       `json:"stats"`
	Plots    []string               `json:"plots,omitempty"`
	Chart    string                 `json:"chart,omitempty"`
	RunID    string                 `json:"run_id,omitempty"`
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.CommandLine.Usage()
		os.Exit(2)
	}
	if opts.ShowVersion {
		fmt.Println("lasinfo", version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("lasinfo: %v", err)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Options, error) {
	var opts Options
	fs.StringVar(&opts.File, "file", "", "Path to a .las file")
	fs.StringVar(&opts.URL, "url", "", "URL of a .las file to fetch")
	fs.Int64Var(&opts.Limit, "limit", -1, "Maximum points to decode; 0 reads only the header (-1: max_points from config)")
	fs.StringVar(&opts.ConfigPath, "config", "", "JSON config file (default: built-in defaults)")
	fs.BoolVar(&opts.JSON, "json", false, "Print the report as JSON")
	fs.BoolVar(&opts.Center, "center", false, "Translate the cloud so its bounding-box centre is the origin")
	fs.StringVar(&opts.PlotDir, "plot-dir", "", "Write plan and elevation PNG plots into this directory")
	fs.StringVar(&opts.ChartPath, "chart", "", "Write an HTML chart report to this path")
	fs.StringVar(&opts.CatalogPath, "catalog", "", "Record the run in this sqlite catalog")
	fs.BoolVar(&opts.ShowVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: lasinfo (-file PATH | -url URL) [options]\n\n")
		fmt.Fprintf(fs.Output(), "Decode a LAS 1.0-1.4 point cloud and summarise it.\n\n")
		fmt.Fprintf(fs.Output(), "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if opts.ShowVersion {
		return opts, nil
	}
	switch {
	case opts.File == "" && opts.URL == "":
		return Options{}, errors.New("one of -file or -url is required")
	case opts.File != "" && opts.URL != "":
		return Options{}, errors.New("-file and -url are mutually exclusive")
	case opts.Limit < -1:
		return Options{}, fmt.Errorf("-limit must be -1 or at least 0, got %d", opts.Limit)
	}
	return opts, nil
}

func run(ctx context.Context, opts Options, out io.Writer) error {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	name, data, err := load(ctx, opts, cfg)
	if err != nil {
		return err
	}

	var cat *catalog.Catalog
	if opts.CatalogPath != "" {
		if cat, err = catalog.Open(opts.CatalogPath); err != nil {
			return err
		}
		defer cat.Close()
	}

	start := time.Now()
	hdr, err := las.ParseHeader(data)
	if err != nil {
		if cat != nil {
			if _, rerr := cat.RecordRun(ctx, catalog.FailedRun(name, err, time.Since(start))); rerr != nil {
				monitoring.Logf("lasinfo: %v", rerr)
			}
		}
		return fmt.Errorf("%s: %w", name, err)
	}

	limit := cfg.GetMaxPoints()
	if opts.Limit >= 0 {
		limit = uint64(opts.Limit)
	}
	pc, err := las.ExtractContext(ctx, data, hdr, las.ExtractOptions{
		Limit:               limit,
		CancelCheckInterval: cfg.GetCancelCheckInterval(),
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	warnings := hdr.Warnings(len(data))
	monitoring.LogWarnings(name, warnings)
	if pc.Partial() {
		monitoring.Logf("lasinfo: %s: decoded %d of %d points, input is truncated", name, pc.Count, pc.Expected)
	}
	if n := pc.NonFinite(); n > 0 {
		monitoring.Logf("lasinfo: %s: %d points have non-finite coordinates and are left out of statistics, plots and charts", name, n)
	}

	centered := opts.Center || cfg.GetCenterCloud()
	if centered {
		pc = pc.Centered()
	}

	report := Report{
		Source:   name,
		Header:   hdr.Summary(),
		Warnings: warnings,
		Centered: centered,
		Stats:    lasstats.Compute(pc),
	}
	if report.Warnings == nil {
		report.Warnings = []string{}
	}

	if opts.PlotDir != "" {
		if err := os.MkdirAll(opts.PlotDir, 0755); err != nil {
			return fmt.Errorf("create plot directory: %w", err)
		}
		p := lasplot.NewPlotter(opts.PlotDir, cfg.GetPlotWidthInches(), cfg.GetPlotHeightInches(), cfg.GetHistogramBins())
		p.UseIntensityAsGrayscale = cfg.GetUseIntensityAsGrayscale()
		if report.Plots, err = p.Render(name, pc); err != nil {
			return err
		}
	}

	if opts.ChartPath != "" {
		err := lascharts.WriteReport(opts.ChartPath, name, pc, lascharts.ReportOptions{
			MaxPoints: cfg.GetChartMaxPoints(),
			Bins:      cfg.GetHistogramBins(),
		})
		if err != nil {
			return err
		}
		report.Chart = opts.ChartPath
	}

	if cat != nil {
		stored, err := cat.RecordRun(ctx, catalog.NewRun(name, hdr, pc, warnings, elapsed))
		if err != nil {
			return err
		}
		report.RunID = stored.ID
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printSummary(out, hdr, report)
	return nil
}

// load returns a display name and the raw bytes for -file or -url.
func load(ctx context.Context, opts Options, cfg *config.LasviewConfig) (string, []byte, error) {
	if opts.URL != "" {
		client := &http.Client{Timeout: cfg.GetFetchTimeout()}
		data, err := source.Fetch(ctx, client, opts.URL, cfg.GetMaxFileBytes())
		if err != nil {
			return "", nil, err
		}
		return path.Base(opts.URL), data, nil
	}
	data, err := source.ReadFile(fsutil.OSFileSystem{}, opts.File, cfg.GetMaxFileBytes())
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(opts.File), data, nil
}

func printSummary(out io.Writer, hdr las.Header, r Report) {
	s := r.Stats
	fmt.Fprintln(out, "========== LAS Summary ==========")
	fmt.Fprintf(out, "Source: %s\n", r.Source)
	fmt.Fprintf(out, "Version: %s  Format: %s  Record length: %d\n", hdr.Version(), hdr.PointDataRecordFormat, hdr.PointDataRecordLength)
	fmt.Fprintf(out, "System: %q  Software: %q\n", hdr.SystemIdentifier, hdr.GeneratingSoftware)
	fmt.Fprintf(out, "Created: day %d of %d\n", hdr.FileCreationDayOfYear, hdr.FileCreationYear)
	fmt.Fprintf(out, "Header bounds: X [%.3f, %.3f]  Y [%.3f, %.3f]  Z [%.3f, %.3f]\n",
		hdr.MinX, hdr.MaxX, hdr.MinY, hdr.MaxY, hdr.MinZ, hdr.MaxZ)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Points: %d decoded of %d declared", s.Count, hdr.PointCount())
	if s.Partial {
		fmt.Fprintf(out, " (truncated, expected %d)", s.Expected)
	}
	fmt.Fprintln(out)
	if r.Centered {
		fmt.Fprintln(out, "Coordinates: centred on the bounding box")
	}
	if s.NonFinite > 0 {
		fmt.Fprintf(out, "Non-finite: %d points skipped (check scale factors and offsets)\n", s.NonFinite)
	}
	if s.HasColor {
		fmt.Fprintln(out, "Colour: RGB")
	} else {
		fmt.Fprintln(out, "Colour: intensity grey")
	}
	fmt.Fprintf(out, "  X: min %.3f  max %.3f  mean %.3f\n", s.X.Min, s.X.Max, s.X.Mean)
	fmt.Fprintf(out, "  Y: min %.3f  max %.3f  mean %.3f\n", s.Y.Min, s.Y.Max, s.Y.Mean)
	fmt.Fprintf(out, "  Z: min %.3f  max %.3f  mean %.3f  p95 %.3f\n", s.Z.Min, s.Z.Max, s.Z.Mean, s.Z.P95)
	fmt.Fprintf(out, "  Intensity: mean %.1f  median %.1f\n", s.Intensity.Mean, s.Intensity.Median)

	if len(s.Classes) > 0 {
		fmt.Fprintln(out, "\nClasses:")
		for _, c := range s.Classes {
			pct := 100 * float64(c.Count) / float64(s.Count)
			fmt.Fprintf(out, "  %3d %-26s %d (%.1f%%)\n", c.Code, c.Name, c.Count, pct)
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range r.Warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
	for _, p := range r.Plots {
		fmt.Fprintf(out, "Plot: %s\n", p)
	}
	if r.Chart != "" {
		fmt.Fprintf(out, "Chart: %s\n", r.Chart)
	}
	if r.RunID != "" {
		fmt.Fprintf(out, "Run: %s\n", r.RunID)
	}
	fmt.Fprintln(out, "=================================")
}
