package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lasview/internal/catalog"
	"github.com/banshee-data/lasview/internal/config"
	"github.com/banshee-data/lasview/internal/fsutil"
	"github.com/banshee-data/lasview/internal/monitoring"
	"github.com/banshee-data/lasview/internal/testutil"
)

func quietLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(original) })
}

func surveyLAS() []byte {
	b := testutil.NewLASBuilder(1, 2, 3)
	b.AddPoint(testutil.LASPoint{X: 0, Y: 0, Z: 100, Intensity: 10, Classification: 2, Red: 65535}).
		AddPoint(testutil.LASPoint{X: 200, Y: 0, Z: 200, Intensity: 20, Classification: 2, Green: 65535}).
		AddPoint(testutil.LASPoint{X: 0, Y: 400, Z: 300, Intensity: 30, Classification: 6, Blue: 65535})
	return b.Build()
}

type fixture struct {
	dir     string
	server  *Server
	handler http.Handler
	catalog *catalog.Catalog
}

func newFixture(t *testing.T, cfg *config.LasviewConfig, withCatalog bool) *fixture {
	t.Helper()
	quietLogs(t)

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "survey.las", surveyLAS())
	testutil.WriteFile(t, dir, "notlas.las", []byte("PK\x03\x04 zip archive, not a point cloud"))
	testutil.WriteFile(t, dir, "short.las", []byte("LASF"+string(make([]byte, 100))))
	testutil.WriteFile(t, dir, "readme.txt", []byte("ignore me"))

	f := &fixture{dir: dir}
	if withCatalog {
		cat, err := catalog.Open(filepath.Join(t.TempDir(), "runs.db"))
		require.NoError(t, err)
		t.Cleanup(func() { cat.Close() })
		f.catalog = cat
	}
	f.server = NewServer(fsutil.OSFileSystem{}, dir, cfg, f.catalog)
	f.handler = f.server.Handler()
	return f
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, testutil.NewTestRequest(path))
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v), "body: %s", rec.Body.String())
}

func TestListFiles(t *testing.T) {
	f := newFixture(t, nil, false)

	rec := f.get(t, "/api/files")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp struct {
		Files []struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
		} `json:"files"`
	}
	decodeJSON(t, rec, &resp)
	var names []string
	for _, file := range resp.Files {
		names = append(names, file.Name)
	}
	assert.Equal(t, []string{"notlas.las", "short.las", "survey.las"}, names)
}

func TestShowHeader(t *testing.T) {
	f := newFixture(t, nil, false)

	rec := f.get(t, "/api/header?file=survey.las")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp struct {
		File     string                 `json:"file"`
		Header   map[string]interface{} `json:"header"`
		Format   string                 `json:"point_format"`
		Records  uint64                 `json:"records_in_buffer"`
		Warnings []string               `json:"warnings"`
	}
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "survey.las", resp.File)
	assert.Equal(t, "1.2", resp.Header["version"])
	assert.Equal(t, float64(3), resp.Header["point_count"])
	assert.Equal(t, "PDRF 3", resp.Format)
	assert.Equal(t, uint64(3), resp.Records)
	assert.Empty(t, resp.Warnings)
}

func TestShowPoints(t *testing.T) {
	f := newFixture(t, nil, false)

	rec := f.get(t, "/api/points?file=survey.las&limit=2")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp pointsResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, uint64(2), resp.Count)
	assert.Equal(t, uint64(2), resp.Expected)
	assert.False(t, resp.Partial)
	assert.True(t, resp.HasColor)
	assert.False(t, resp.Centered)
	assert.Equal(t, [][3]float64{{0, 0, 1}, {2, 0, 2}}, resp.Position)
	assert.Equal(t, [][3]float32{{1, 0, 0}, {0, 1, 0}}, resp.Color)
	assert.Equal(t, []uint16{10, 20}, resp.Intensity)
	assert.Equal(t, []uint8{2, 2}, resp.Classification)
}

func TestShowPointsCentered(t *testing.T) {
	f := newFixture(t, nil, false)

	rec := f.get(t, "/api/points?file=survey.las&center=true")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp pointsResponse
	decodeJSON(t, rec, &resp)
	assert.True(t, resp.Centered)
	assert.Equal(t, [3]float64{1, 2, 2}, resp.Center)
	assert.Equal(t, [][3]float64{{-1, -2, -1}, {1, -2, 0}, {-1, 2, 1}}, resp.Position)
}

func TestShowPointsLimitCappedByConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	one := uint64(1)
	cfg.MaxPoints = &one
	f := newFixture(t, cfg, false)

	rec := f.get(t, "/api/points?file=survey.las&limit=100")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp pointsResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, uint64(1), resp.Count)
}

func TestShowStats(t *testing.T) {
	f := newFixture(t, nil, false)

	rec := f.get(t, "/api/stats?file=survey.las")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp struct {
		Summary struct {
			Count   uint64 `json:"count"`
			Classes []struct {
				Code  uint8 `json:"code"`
				Count int   `json:"count"`
			} `json:"classes"`
			Z struct {
				Mean float64 `json:"mean"`
			} `json:"z"`
		} `json:"summary"`
		Histogram struct {
			Counts []float64 `json:"counts"`
		} `json:"elevation_histogram"`
	}
	decodeJSON(t, rec, &resp)
	assert.Equal(t, uint64(3), resp.Summary.Count)
	assert.InDelta(t, 2.0, resp.Summary.Z.Mean, 1e-9)
	require.Len(t, resp.Summary.Classes, 2)
	assert.Equal(t, 2, resp.Summary.Classes[0].Count)
	assert.Len(t, resp.Histogram.Counts, config.DEFAULT_HISTOGRAM_BINS)
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t, nil, false)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing file param", "/api/points", http.StatusBadRequest},
		{"traversal", "/api/points?file=../etc/passwd", http.StatusBadRequest},
		{"nested path", "/api/header?file=sub/x.las", http.StatusBadRequest},
		{"not found", "/api/points?file=missing.las", http.StatusNotFound},
		{"bad signature", "/api/points?file=notlas.las", http.StatusUnprocessableEntity},
		{"truncated header", "/api/header?file=short.las", http.StatusUnprocessableEntity},
		{"bad limit", "/api/points?file=survey.las&limit=-3", http.StatusBadRequest},
		{"bad center", "/api/points?file=survey.las&center=maybe", http.StatusBadRequest},
		{"runs without catalog", "/api/runs", http.StatusNotFound},
		{"unknown route", "/api/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.get(t, tt.path)
			testutil.AssertStatusCode(t, rec.Code, tt.status)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil, true)

	for _, path := range []string{
		"/api/files", "/api/header?file=survey.las", "/api/points?file=survey.las",
		"/api/stats?file=survey.las", "/api/runs", "/api/version", "/charts/plan?file=survey.las",
	} {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}

func TestFileTooLarge(t *testing.T) {
	cfg := config.DefaultConfig()
	tiny := int64(100)
	cfg.MaxFileBytes = &tiny
	f := newFixture(t, cfg, false)

	rec := f.get(t, "/api/points?file=survey.las")
	testutil.AssertStatusCode(t, rec.Code, http.StatusRequestEntityTooLarge)
}

func TestRunsRecordedInCatalog(t *testing.T) {
	f := newFixture(t, nil, true)

	testutil.AssertStatusCode(t, f.get(t, "/api/points?file=survey.las").Code, http.StatusOK)
	testutil.AssertStatusCode(t, f.get(t, "/api/stats?file=notlas.las").Code, http.StatusUnprocessableEntity)
	// Header-only requests do not extract points and are not recorded
	testutil.AssertStatusCode(t, f.get(t, "/api/header?file=survey.las").Code, http.StatusOK)

	rec := f.get(t, "/api/runs?limit=10")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp struct {
		Runs []catalog.Run `json:"runs"`
	}
	decodeJSON(t, rec, &resp)
	require.Len(t, resp.Runs, 2)

	bySource := map[string]catalog.Run{}
	for _, run := range resp.Runs {
		bySource[run.Source] = run
	}
	assert.Equal(t, uint64(3), bySource["survey.las"].DecodedPoints)
	assert.Empty(t, bySource["survey.las"].Error)
	assert.Contains(t, bySource["notlas.las"].Error, "invalid file signature")

	testutil.AssertStatusCode(t, f.get(t, "/api/runs?limit=0").Code, http.StatusBadRequest)
}

func TestCharts(t *testing.T) {
	f := newFixture(t, nil, false)

	for _, path := range []string{"/charts/plan?file=survey.las", "/charts/classes?file=survey.las"} {
		rec := f.get(t, path)
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
		assert.Contains(t, rec.Body.String(), "survey.las", path)
	}

	rec := f.get(t, "/charts/plan?file=notlas.las")
	testutil.AssertStatusCode(t, rec.Code, http.StatusUnprocessableEntity)
}

func TestShowVersion(t *testing.T) {
	f := newFixture(t, nil, false)
	rec := f.get(t, "/api/version")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp map[string]string
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "dev", resp["version"])
}

func TestNonFiniteCoordinatesRejected(t *testing.T) {
	f := newFixture(t, nil, true)

	// Raw Z of 5 at a scale of 1e308 decodes to +Inf
	b := testutil.NewLASBuilder(1, 2, 1)
	b.Scale = [3]float64{0.01, 0.01, 1e308}
	b.AddPoint(testutil.LASPoint{Z: 0}).AddPoint(testutil.LASPoint{Z: 5})
	testutil.WriteFile(t, f.dir, "big.las", b.Build())

	for _, path := range []string{
		"/api/points?file=big.las",
		"/api/stats?file=big.las",
		"/charts/plan?file=big.las",
		"/charts/classes?file=big.las",
	} {
		t.Run(path, func(t *testing.T) {
			rec := f.get(t, path)
			testutil.AssertStatusCode(t, rec.Code, http.StatusUnprocessableEntity)
			var resp map[string]string
			decodeJSON(t, rec, &resp)
			assert.Contains(t, resp["error"], "1 of 2 points have non-finite coordinates")
		})
	}

	rec := f.get(t, "/api/header?file=big.las")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	runs, err := f.catalog.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 4)
	for _, run := range runs {
		assert.Equal(t, "big.las", run.Source)
		assert.Contains(t, run.Error, "non-finite")
	}
}

func TestListenAndServe_ShutsDownOnCancel(t *testing.T) {
	f := newFixture(t, nil, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * SHUTDOWN_TIMEOUT):
		t.Fatal("server did not stop within the shutdown timeout")
	}
}

func TestListenAndServe_BadAddress(t *testing.T) {
	f := newFixture(t, nil, false)
	err := f.server.ListenAndServe(context.Background(), "127.0.0.1:-1")
	assert.ErrorContains(t, err, "listen on 127.0.0.1:-1")
}
