package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/banshee-data/lasview/internal/httputil"
	"github.com/banshee-data/lasview/internal/las"
	"github.com/banshee-data/lasview/internal/lascharts"
	"github.com/banshee-data/lasview/internal/lasstats"
	"github.com/banshee-data/lasview/internal/monitoring"
	"github.com/banshee-data/lasview/internal/source"
	"github.com/banshee-data/lasview/internal/version"
)

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	files, err := source.ListLAS(s.fs, s.dataDir)
	if err != nil {
		monitoring.Logf("api: %v", err)
		httputil.InternalServerError(w, "failed to list data directory")
		return
	}
	if files == nil {
		files = []source.FileInfo{}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"files": files})
}

func (s *Server) showHeader(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	name, data := s.readRequested(w, r)
	if data == nil {
		return
	}
	hdr, err := las.ParseHeader(data)
	if err != nil {
		writeDecodeError(w, name, err)
		return
	}
	warnings := hdr.Warnings(len(data))
	if warnings == nil {
		warnings = []string{}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"file":              name,
		"size":              len(data),
		"header":            hdr.Summary(),
		"point_format":      hdr.PointDataRecordFormat.String(),
		"records_in_buffer": hdr.RecordsInBuffer(len(data)),
		"warnings":          warnings,
	})
}

// pointsResponse is the JSON shape of /api/points.
type pointsResponse struct {
	File           string       `json:"file"`
	Count          uint64       `json:"count"`
	Expected       uint64       `json:"expected"`
	Partial        bool         `json:"partial"`
	HasColor       bool         `json:"has_color"`
	Centered       bool         `json:"centered"`
	Center         [3]float64   `json:"center"`
	Position       [][3]float64 `json:"position"`
	Color          [][3]float32 `json:"color"`
	Intensity      []uint16     `json:"intensity"`
	Classification []uint8      `json:"classification"`
}

func (s *Server) showPoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	center := s.cfg.GetCenterCloud()
	if raw := r.URL.Query().Get("center"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.BadRequest(w, "invalid 'center' parameter")
			return
		}
		center = v
	}

	d := s.decodeRequested(w, r)
	if d == nil {
		return
	}

	pc := d.cloud
	resp := pointsResponse{File: d.name, Center: pc.Center(), Centered: center}
	if center {
		pc = pc.Centered()
	}
	resp.Count = pc.Count
	resp.Expected = pc.Expected
	resp.Partial = pc.Partial()
	resp.HasColor = pc.HasColor
	resp.Position = pc.Position
	resp.Color = pc.Color
	resp.Intensity = pc.Intensity
	resp.Classification = pc.Classification
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	d := s.decodeRequested(w, r)
	if d == nil {
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"file":                d.name,
		"summary":             lasstats.Compute(d.cloud),
		"elevation_histogram": lasstats.ElevationHistogram(d.cloud, s.cfg.GetHistogramBins()),
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.catalog == nil {
		httputil.NotFound(w, "no catalog configured")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = n
	}
	runs, err := s.catalog.ListRuns(r.Context(), limit)
	if err != nil {
		monitoring.Logf("api: %v", err)
		httputil.InternalServerError(w, "failed to list runs")
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"runs": runs})
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

func (s *Server) planChart(w http.ResponseWriter, r *http.Request) {
	d := s.decodeRequested(w, r)
	if d == nil {
		return
	}
	chart := lascharts.PlanChart(d.name, d.cloud, s.cfg.GetChartMaxPoints())
	httputil.WriteHTML(w, func(out io.Writer) error {
		return lascharts.RenderPage(out, chart)
	})
}

func (s *Server) classChart(w http.ResponseWriter, r *http.Request) {
	d := s.decodeRequested(w, r)
	if d == nil {
		return
	}
	chart := lascharts.ClassChart(d.name, lasstats.ClassCounts(d.cloud))
	httputil.WriteHTML(w, func(out io.Writer) error {
		return lascharts.RenderPage(out, chart)
	})
}
