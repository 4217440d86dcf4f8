package game

import (
	"math/rand"
	"sort"
)

// MazeConfig controls GenerateMaze.
type MazeConfig struct {
	Cols, Rows int     // rounded down to odd, minimum 5
	Braiding   float64 // 0 = perfect maze, 1 = every dead end opened into a loop
	TileSize   float64
}

// GenerateMaze carves a connected maze with an iterative recursive
// backtracker, then knocks through dead ends with probability Braiding so
// guards have loops to patrol.
func GenerateMaze(cfg MazeConfig, rng *rand.Rand) *TileMap {
	cols := max(oddFloor(cfg.Cols), 5)
	rows := max(oddFloor(cfg.Rows), 5)
	tm := NewTileMap(cols, rows, cfg.TileSize)
	for i := range tm.kinds {
		tm.kinds[i] = TileWall
	}

	jumps := [4][2]int{{0, -2}, {2, 0}, {0, 2}, {-2, 0}}
	inner := func(x, y int) bool { return x > 0 && x < cols-1 && y > 0 && y < rows-1 }

	start := Tile{X: 1, Y: 1}
	tm.SetKind(start, TileFloor)
	stack := []Tile{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		var cands [4]int
		n := 0
		for i, j := range jumps {
			nx, ny := cur.X+j[0], cur.Y+j[1]
			if inner(nx, ny) && tm.Kind(Tile{X: nx, Y: ny}) == TileWall {
				cands[n] = i
				n++
			}
		}
		if n == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		j := jumps[cands[rng.Intn(n)]]
		tm.SetKind(Tile{X: cur.X + j[0]/2, Y: cur.Y + j[1]/2}, TileFloor)
		next := Tile{X: cur.X + j[0], Y: cur.Y + j[1]}
		tm.SetKind(next, TileFloor)
		stack = append(stack, next)
	}

	if cfg.Braiding > 0 {
		braid(tm, cfg.Braiding, rng)
	}
	return tm
}

// braid opens a wall next to each dead-end room with probability p. Only
// walls between two rooms are removed, so no open 2x2 areas appear.
func braid(tm *TileMap, p float64, rng *rand.Rand) {
	for y := 1; y < tm.Rows-1; y += 2 {
		for x := 1; x < tm.Cols-1; x += 2 {
			room := Tile{X: x, Y: y}
			if tm.IsBlocked(room) || len(tm.OpenDirections(room)) != 1 {
				continue
			}
			if rng.Float64() >= p {
				continue
			}
			var walls []Tile
			for _, d := range Directions {
				wall := room.Step(d)
				beyond := wall.Step(d)
				if tm.IsBlocked(wall) && tm.inBounds(beyond) && !tm.IsBlocked(beyond) &&
					beyond.X > 0 && beyond.Y > 0 && beyond.X < tm.Cols-1 && beyond.Y < tm.Rows-1 {
					walls = append(walls, wall)
				}
			}
			if len(walls) > 0 {
				tm.SetKind(walls[rng.Intn(len(walls))], TileFloor)
			}
		}
	}
}

func oddFloor(n int) int {
	if n%2 == 0 {
		return n - 1
	}
	return n
}

// PlaceSpawns picks distinct floor tiles for guards and puts the intruder on
// the floor tile farthest from every guard.
func PlaceSpawns(tm *TileMap, guards int, rng *rand.Rand) Layout {
	floor := tm.FloorTiles()
	rng.Shuffle(len(floor), func(i, j int) { floor[i], floor[j] = floor[j], floor[i] })

	var layout Layout
	guards = min(guards, len(floor))
	layout.Guards = append(layout.Guards, floor[:guards]...)
	sort.Slice(layout.Guards, func(i, j int) bool {
		a, b := layout.Guards[i], layout.Guards[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	best := -1
	for _, t := range floor[guards:] {
		nearest := tm.Cols + tm.Rows
		for _, g := range layout.Guards {
			nearest = min(nearest, Manhattan(t, g))
		}
		if nearest > best {
			best = nearest
			layout.Intruder = t
			layout.HasIntruder = true
		}
	}
	return layout
}
