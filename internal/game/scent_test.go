package game

import (
	"math"
	"testing"
)

func newTestScent(t *testing.T, maxTrail float64) (*ScentField, *TileMap) {
	t.Helper()
	tm := NewTileMap(8, 8, 16)
	return NewScentField(tm, maxTrail), tm
}

func TestScent_AbsentReadsZero(t *testing.T) {
	sf, _ := newTestScent(t, 10)
	if got := sf.Level(Tile{3, 3}); got != 0 {
		t.Fatalf("absent tile level = %v, want 0", got)
	}
	if got := sf.Weight(Tile{3, 3}); got != 1 {
		t.Fatalf("absent tile weight = %v, want 1", got)
	}
}

func TestScent_DepositIsAdditiveAndClamped(t *testing.T) {
	sf, tm := newTestScent(t, 10)
	pos := tm.CenterOf(Tile{2, 2})
	sf.Deposit(pos, 3)
	sf.Deposit(pos, 4)
	if got := sf.Level(Tile{2, 2}); got != 7 {
		t.Fatalf("after 3+4 level = %v, want 7", got)
	}
	sf.Deposit(pos, 100)
	if got := sf.Level(Tile{2, 2}); got != 10 {
		t.Fatalf("level should clamp to max 10, got %v", got)
	}
	if w := sf.Weight(Tile{2, 2}); w != 0 {
		t.Fatalf("saturated weight = %v, want 0", w)
	}
}

func TestScent_NegativeDepositRemoves(t *testing.T) {
	sf, _ := newTestScent(t, 10)
	sf.DepositTile(Tile{1, 1}, 2)
	sf.DepositTile(Tile{1, 1}, -5)
	if sf.Len() != 0 {
		t.Fatalf("entry should be removed, len=%d", sf.Len())
	}
	sf.DepositTile(Tile{1, 1}, -1)
	if sf.Len() != 0 {
		t.Fatal("a negative deposit on an absent tile must not create an entry")
	}
}

func TestScent_DecayRemovesExhaustedTiles(t *testing.T) {
	sf, _ := newTestScent(t, 10)
	sf.DepositTile(Tile{0, 0}, 1)
	sf.DepositTile(Tile{1, 0}, 2.5)
	sf.DepositTile(Tile{2, 0}, 10)

	sf.Decay(1)
	if sf.Len() != 2 {
		t.Fatalf("after one decay len=%d, want 2", sf.Len())
	}
	if got := sf.Level(Tile{1, 0}); math.Abs(got-1.5) > 1e-9 {
		t.Fatalf("level = %v, want 1.5", got)
	}

	sf.Decay(1)
	sf.Decay(1)
	if sf.Len() != 1 {
		t.Fatalf("after three decays len=%d, want 1", sf.Len())
	}
	if got := sf.Level(Tile{2, 0}); got != 7 {
		t.Fatalf("level = %v, want 7", got)
	}
}

func TestScent_LevelsStayInBounds(t *testing.T) {
	sf, _ := newTestScent(t, 5)
	amounts := []float64{3, -1, 9, -2, 0.5, -20, 4, 4}
	for i, a := range amounts {
		sf.DepositTile(Tile{i % 3, 0}, a)
		if i%2 == 0 {
			sf.Decay(0.75)
		}
		for tile, v := range sf.Snapshot() {
			if v <= 0 || v > sf.MaxTrail() {
				t.Fatalf("step %d: tile %v level %v out of (0, %v]", i, tile, v, sf.MaxTrail())
			}
		}
	}
}

func TestScent_SnapshotIsCopy(t *testing.T) {
	sf, _ := newTestScent(t, 10)
	sf.DepositTile(Tile{4, 4}, 5)
	snap := sf.Snapshot()
	snap[Tile{4, 4}] = 0
	if sf.Level(Tile{4, 4}) != 5 {
		t.Fatal("mutating a snapshot must not touch the field")
	}
}
