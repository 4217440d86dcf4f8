// Package rundb indexes finished simulation runs in SQLite.
package rundb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one row of the runs table.
type Run struct {
	ID                 string
	Seed               int64
	Ticks              int
	Guards             int
	Detections         int
	Broadcasts         int
	Catches            int
	Coverage           float64
	FirstDetectionTick int // -1 when the target was never seen
	RecordedAt         time.Time
}

type Index struct {
	db *sql.DB
}

// Open creates or opens the index at path.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			guards INTEGER NOT NULL,
			detections INTEGER NOT NULL,
			broadcasts INTEGER NOT NULL,
			catches INTEGER NOT NULL,
			coverage REAL NOT NULL,
			first_detection_tick INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun inserts r. A missing ID is filled with a new UUID and a zero
// RecordedAt with the current time; the stored row is returned.
func (ix *Index) RecordRun(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}
	_, err := ix.db.ExecContext(ctx,
		`INSERT INTO runs (id, seed, ticks, guards, detections, broadcasts, catches, coverage, first_detection_tick, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Seed, r.Ticks, r.Guards, r.Detections, r.Broadcasts, r.Catches, r.Coverage,
		r.FirstDetectionTick, r.RecordedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return r, fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return r, nil
}

// Runs returns every run, oldest first.
func (ix *Index) Runs(ctx context.Context) ([]Run, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT id, seed, ticks, guards, detections, broadcasts, catches, coverage, first_detection_tick, recorded_at
		 FROM runs ORDER BY recorded_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var at string
		if err := rows.Scan(&r.ID, &r.Seed, &r.Ticks, &r.Guards, &r.Detections, &r.Broadcasts,
			&r.Catches, &r.Coverage, &r.FirstDetectionTick, &at); err != nil {
			return nil, err
		}
		r.RecordedAt, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("run %s recorded_at %q: %w", r.ID, at, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}
