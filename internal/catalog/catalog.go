// Package catalog records decode runs in a sqlite database so the CLI and
// the HTTP server can list what was decoded, when, and with what outcome.
package catalog

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lasview/internal/las"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DEFAULT_LIST_LIMIT caps ListRuns when the caller passes a non-positive limit.
const DEFAULT_LIST_LIMIT = 100

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("catalog: run not found")

// Run is one recorded decode.
type Run struct {
	ID             string        `json:"run_id"`
	Source         string        `json:"source"`
	Version        string        `json:"version"`
	PointFormat    uint8         `json:"point_format"`
	DeclaredPoints uint64        `json:"declared_points"`
	DecodedPoints  uint64        `json:"decoded_points"`
	Partial        bool          `json:"partial"`
	Warnings       []string      `json:"warnings"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
	Min            [3]float64    `json:"min"`
	Max            [3]float64    `json:"max"`
	CreatedAt      time.Time     `json:"created_at"`
}

// NewRun describes a successful decode of source.
func NewRun(source string, hdr las.Header, pc *las.PointCloud, warnings []string, elapsed time.Duration) Run {
	lo, hi := pc.Bounds()
	return Run{
		Source:         source,
		Version:        hdr.Version(),
		PointFormat:    uint8(hdr.PointDataRecordFormat),
		DeclaredPoints: hdr.PointCount(),
		DecodedPoints:  pc.Count,
		Partial:        pc.Partial(),
		Warnings:       warnings,
		Duration:       elapsed,
		Min:            lo,
		Max:            hi,
	}
}

// FailedRun describes a decode of source that ended in err.
func FailedRun(source string, err error, elapsed time.Duration) Run {
	return Run{Source: source, Error: err.Error(), Duration: elapsed}
}

// Catalog is a sqlite-backed store of decode runs. It is safe for
// concurrent use.
type Catalog struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path and applies any
// pending migrations. Use ":memory:" for a throwaway catalog.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases coherent and serialises writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure catalog: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// RecordRun stores run, assigning an ID and creation time when unset, and
// returns the stored value.
func (c *Catalog) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Warnings == nil {
		run.Warnings = []string{}
	}
	warnings, err := json.Marshal(run.Warnings)
	if err != nil {
		return Run{}, fmt.Errorf("encode warnings: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO decode_runs (
			run_id, source, version, point_format, declared_points, decoded_points,
			partial, warnings_json, error, duration_ms,
			min_x, min_y, min_z, max_x, max_y, max_z, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Version, run.PointFormat, int64(run.DeclaredPoints), int64(run.DecodedPoints),
		run.Partial, string(warnings), run.Error, float64(run.Duration)/float64(time.Millisecond),
		run.Min[0], run.Min[1], run.Min[2], run.Max[0], run.Max[1], run.Max[2], run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert decode run: %w", err)
	}
	return run, nil
}

const selectRun = `
	SELECT run_id, source, version, point_format, declared_points, decoded_points,
		partial, warnings_json, error, duration_ms,
		min_x, min_y, min_z, max_x, max_y, max_z, created_unix_nanos
	FROM decode_runs`

// GetRun returns the run with the given ID, or ErrRunNotFound.
func (c *Catalog) GetRun(ctx context.Context, id string) (Run, error) {
	row := c.db.QueryRowContext(ctx, selectRun+` WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns returns up to limit runs, newest first.
func (c *Catalog) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DEFAULT_LIST_LIMIT
	}
	rows, err := c.db.QueryContext(ctx, selectRun+` ORDER BY created_unix_nanos DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query decode runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decode runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run          Run
		declared     int64
		decoded      int64
		warningsJSON string
		durationMs   float64
		createdNanos int64
	)
	err := s.Scan(
		&run.ID, &run.Source, &run.Version, &run.PointFormat, &declared, &decoded,
		&run.Partial, &warningsJSON, &run.Error, &durationMs,
		&run.Min[0], &run.Min[1], &run.Min[2], &run.Max[0], &run.Max[1], &run.Max[2], &createdNanos,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan decode run: %w", err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &run.Warnings); err != nil {
		return Run{}, fmt.Errorf("decode warnings for run %s: %w", run.ID, err)
	}
	run.DeclaredPoints = uint64(declared)
	run.DecodedPoints = uint64(decoded)
	run.Duration = time.Duration(durationMs * float64(time.Millisecond))
	run.CreatedAt = time.Unix(0, createdNanos).UTC()
	return run, nil
}
