package tuning

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brefaltsimon/AI-MazeGame/internal/game"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefault_MatchesGameDefaults(t *testing.T) {
	if got, want := Default().Config(), game.DefaultConfig(); got != want {
		t.Fatalf("Default().Config() = %+v\nwant %+v", got, want)
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoad_ShippedFileMatchesDefaults(t *testing.T) {
	tu, err := Load(filepath.Join("..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu != Default() {
		t.Fatalf("configs/tuning.yaml drifted from Default():\n%+v\n%+v", tu, Default())
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	tu, err := Load(writeFile(t, "guard:\n  count: 7\nmaze:\n  braiding: 0.9\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.Guard.Count != 7 || tu.Maze.Braiding != 0.9 {
		t.Fatalf("overrides not applied: %+v", tu)
	}
	if tu.Scent.MaxTrail != Default().Scent.MaxTrail || tu.Guard.Speed != Default().Guard.Speed {
		t.Fatal("unset keys lost their defaults")
	}
	if cfg := tu.Config(); cfg.Guards != 7 || cfg.Maze.TileSize != tu.TileSize {
		t.Fatalf("Config() = %+v", cfg)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	_, err := Load(writeFile(t, "tick_rate_hz: 0\nscent:\n  max_trail: -1\n"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeFile(t, "guard: [1, 2\n")); err == nil {
		t.Fatal("expected a parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
