package rundb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIndex_RecordAndList(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "idx", "runs.sqlite")
	ix, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ix.Close()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	first, err := ix.RecordRun(ctx, Run{Seed: 1, Ticks: 600, Guards: 4, Detections: 3, Broadcasts: 3, Catches: 1, Coverage: 0.25, FirstDetectionTick: 120, RecordedAt: base})
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if _, err := uuid.Parse(first.ID); err != nil {
		t.Fatalf("generated id %q is not a uuid: %v", first.ID, err)
	}
	if _, err := ix.RecordRun(ctx, Run{ID: "fixed", Seed: 2, FirstDetectionTick: -1, RecordedAt: base.Add(time.Second)}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if _, err := ix.RecordRun(ctx, Run{ID: "fixed"}); err == nil {
		t.Fatal("duplicate id should fail")
	}

	runs, err := ix.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	got := runs[0]
	if !got.RecordedAt.Equal(first.RecordedAt) {
		t.Fatalf("recorded_at = %v, want %v", got.RecordedAt, first.RecordedAt)
	}
	got.RecordedAt = first.RecordedAt
	if got != first {
		t.Fatalf("first row = %+v, want %+v", got, first)
	}
	if runs[1].ID != "fixed" || runs[1].FirstDetectionTick != -1 {
		t.Fatalf("second row = %+v", runs[1])
	}
}

func TestOpen_CreatesRunsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.sqlite")
	ix, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := ix.RecordRun(context.Background(), Run{Seed: 9}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := ix.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs WHERE seed = 9`).Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
