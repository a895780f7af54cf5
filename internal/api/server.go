// Package api serves decoded LAS files from a data directory over HTTP:
// header summaries, point arrays, statistics, charts and the decode-run
// catalog.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/banshee-data/lasview/internal/catalog"
	"github.com/banshee-data/lasview/internal/config"
	"github.com/banshee-data/lasview/internal/fsutil"
	"github.com/banshee-data/lasview/internal/monitoring"
)

// SHUTDOWN_TIMEOUT bounds how long ListenAndServe waits for in-flight
// requests after its context is cancelled.
const SHUTDOWN_TIMEOUT = 5 * time.Second

// Server holds the dependencies shared by every handler.
type Server struct {
	fs      fsutil.FileSystem
	dataDir string
	cfg     *config.LasviewConfig
	catalog *catalog.Catalog // nil disables run recording and /api/runs
}

// NewServer creates a Server over dataDir. cfg may be nil for defaults and
// cat may be nil to run without a catalog.
func NewServer(fsys fsutil.FileSystem, dataDir string, cfg *config.LasviewConfig, cat *catalog.Catalog) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		fs:      fsys,
		dataDir: dataDir,
		cfg:     cfg,
		catalog: cat,
	}
}

// ServeMux registers every route.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/files", s.listFiles)
	mux.HandleFunc("/api/header", s.showHeader)
	mux.HandleFunc("/api/points", s.showPoints)
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/version", s.showVersion)
	mux.HandleFunc("/charts/plan", s.planChart)
	mux.HandleFunc("/charts/classes", s.classChart)
	return mux
}

// Handler returns the mux wrapped in LoggingMiddleware.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(s.ServeMux())
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("lasview: serving %s on %s", s.dataDir, addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	monitoring.Logf("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}
