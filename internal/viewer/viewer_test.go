package viewer

import (
	"errors"
	"strings"
	"testing"

	"github.com/brefaltsimon/AI-MazeGame/internal/game"
)

func newTestViewer(t *testing.T) *Game {
	t.Helper()
	g, err := New(
		game.WithSeed(3),
		game.WithLayout(
			"#######",
			"#G...G#",
			"#.....#",
			"#..T..#",
			"#######",
		),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestNew_AttachesAsSink(t *testing.T) {
	g := newTestViewer(t)
	for _, p := range g.poses {
		if p.seen {
			t.Fatalf("pose recorded before any step")
		}
	}
	g.Sim().RunTicks(5)
	if len(g.poses) != 2 {
		t.Fatalf("poses = %d, want 2", len(g.poses))
	}
	for i, p := range g.poses {
		if !p.seen {
			t.Fatalf("guard %d never reported", i)
		}
		if p.pos != g.Sim().Guards[i].Position() {
			t.Fatalf("guard %d pose %v, guard at %v", i, p.pos, g.Sim().Guards[i].Position())
		}
	}
}

func TestSize_FitsMazeAndPanel(t *testing.T) {
	g := newTestViewer(t)
	w, h := g.Layout(0, 0)
	if w != 7*16+2*borderWidth+panelWidth {
		t.Fatalf("width %d", w)
	}
	if h != 480 {
		t.Fatalf("height %d, want the 480 minimum", h)
	}
}

func TestCopyLog(t *testing.T) {
	g := newTestViewer(t)
	g.Sim().RunTicks(30)
	var got string
	g.copyText = func(s string) error { got = s; return nil }
	g.copyLog()
	if got != g.Sim().SimLog.Format() {
		t.Fatalf("clipboard text does not match the run log")
	}
	if !strings.HasPrefix(g.status, "copied") {
		t.Fatalf("status = %q", g.status)
	}

	g.copyText = func(string) error { return errors.New("no clipboard") }
	g.copyLog()
	if !strings.Contains(g.status, "no clipboard") {
		t.Fatalf("status = %q", g.status)
	}
}

func TestTrailColor(t *testing.T) {
	if c := trailColor(0, 10); c.A != 0 {
		t.Fatalf("empty tile should be transparent, got %v", c)
	}
	low, high := trailColor(2, 10), trailColor(10, 10)
	if low.A >= high.A {
		t.Fatalf("fuller trail should be more opaque: %v vs %v", low, high)
	}
	if over := trailColor(50, 10); over != high {
		t.Fatalf("levels above max should clamp: %v vs %v", over, high)
	}
}

func TestStateColorDistinct(t *testing.T) {
	seen := map[[4]uint8]game.GuardState{}
	for _, s := range []game.GuardState{game.GuardPatrol, game.GuardPursue, game.GuardSearch} {
		c := stateColor(s)
		k := [4]uint8{c.R, c.G, c.B, c.A}
		if prev, dup := seen[k]; dup {
			t.Fatalf("%s and %s share a colour", prev, s)
		}
		seen[k] = s
	}
}
