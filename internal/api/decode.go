package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/lasview/internal/catalog"
	"github.com/banshee-data/lasview/internal/httputil"
	"github.com/banshee-data/lasview/internal/las"
	"github.com/banshee-data/lasview/internal/monitoring"
	"github.com/banshee-data/lasview/internal/security"
	"github.com/banshee-data/lasview/internal/source"
)

// decoded is one file decoded on behalf of a request.
type decoded struct {
	name     string
	header   las.Header
	cloud    *las.PointCloud
	warnings []string
}

// readRequested resolves the "file" query parameter and reads it. On
// failure it writes the error response and returns nil.
func (s *Server) readRequested(w http.ResponseWriter, r *http.Request) (string, []byte) {
	name := r.URL.Query().Get("file")
	if name == "" {
		httputil.BadRequest(w, "missing 'file' parameter")
		return "", nil
	}
	path, err := security.ResolveDataFile(s.dataDir, name)
	if err != nil {
		httputil.BadRequest(w, "invalid 'file' parameter")
		return "", nil
	}
	data, err := source.ReadFile(s.fs, path, s.cfg.GetMaxFileBytes())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		httputil.NotFound(w, fmt.Sprintf("file %q not found", name))
		return "", nil
	case errors.Is(err, source.ErrTooLarge):
		httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file %q exceeds %d bytes", name, s.cfg.GetMaxFileBytes()))
		return "", nil
	case err != nil:
		monitoring.Logf("api: read %s: %v", path, err)
		httputil.InternalServerError(w, "failed to read file")
		return "", nil
	}
	return name, data
}

// parseLimit reads the "limit" query parameter, capped by max_points.
func (s *Server) parseLimit(r *http.Request) (uint64, error) {
	limit := s.cfg.GetMaxPoints()
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return limit, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid 'limit' parameter %q", raw)
	}
	return min(n, limit), nil
}

// decodeRequested reads, parses and extracts the requested file and records
// the outcome in the catalog. A cloud with NaN or infinite coordinates is
// rejected with 422 since none of the endpoints can encode it. On failure
// it writes the error response and returns nil.
func (s *Server) decodeRequested(w http.ResponseWriter, r *http.Request) *decoded {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return nil
	}
	limit, err := s.parseLimit(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return nil
	}
	name, data := s.readRequested(w, r)
	if data == nil {
		return nil
	}

	start := time.Now()
	hdr, err := las.ParseHeader(data)
	if err != nil {
		s.recordRun(r.Context(), catalog.FailedRun(name, err, time.Since(start)))
		writeDecodeError(w, name, err)
		return nil
	}

	pc, err := las.ExtractContext(r.Context(), data, hdr, las.ExtractOptions{
		Limit:               limit,
		CancelCheckInterval: s.cfg.GetCancelCheckInterval(),
	})
	if err != nil {
		// The client went away; nobody is left to read a response
		monitoring.Logf("api: decode %s abandoned: %v", name, err)
		return nil
	}

	if n := pc.NonFinite(); n > 0 {
		err := fmt.Errorf("%d of %d points have non-finite coordinates (check the header scale factors and offsets)", n, pc.Count)
		s.recordRun(r.Context(), catalog.FailedRun(name, err, time.Since(start)))
		httputil.UnprocessableEntity(w, fmt.Sprintf("%s: %v", name, err))
		return nil
	}

	d := &decoded{name: name, header: hdr, cloud: pc, warnings: hdr.Warnings(len(data))}
	monitoring.LogWarnings(name, d.warnings)
	s.recordRun(r.Context(), catalog.NewRun(name, hdr, pc, d.warnings, time.Since(start)))
	return d
}

// writeDecodeError maps LAS decode failures to 422.
func writeDecodeError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, las.ErrFormat), errors.Is(err, las.ErrTruncatedHeader):
		httputil.UnprocessableEntity(w, fmt.Sprintf("%s: %v", name, err))
	default:
		httputil.InternalServerError(w, fmt.Sprintf("%s: %v", name, err))
	}
}

func (s *Server) recordRun(ctx context.Context, run catalog.Run) {
	if s.catalog == nil {
		return
	}
	// Recording outlives a cancelled request
	if _, err := s.catalog.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		monitoring.Logf("api: failed to record decode run for %s: %v", run.Source, err)
	}
}
