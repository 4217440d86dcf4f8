package game

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// ErrBadLayout is returned when an ASCII layout cannot be turned into a maze.
var ErrBadLayout = errors.New("bad layout")

// TileKind identifies what occupies a maze cell.
type TileKind uint8

const (
	TileFloor TileKind = iota // walkable corridor
	TileWall                  // impassable
)

func (k TileKind) String() string {
	switch k {
	case TileFloor:
		return "floor"
	case TileWall:
		return "wall"
	default:
		return "unknown"
	}
}

// Tile is an integer cell coordinate. Comparable, usable as a map key.
type Tile struct {
	X, Y int
}

// Step returns the neighbouring tile in direction d.
func (t Tile) Step(d Direction) Tile {
	dx, dy := d.Offset()
	return Tile{X: t.X + dx, Y: t.Y + dy}
}

func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.X, t.Y)
}

// Manhattan returns |ax-bx| + |ay-by|.
func Manhattan(a, b Tile) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// TileMap is the authoritative walkability grid of the maze.
type TileMap struct {
	Cols     int
	Rows     int
	TileSize float64    // world units per tile edge
	kinds    []TileKind // row-major: index = y*Cols + x
}

// NewTileMap creates an all-floor map.
func NewTileMap(cols, rows int, tileSize float64) *TileMap {
	if tileSize <= 0 {
		tileSize = 1
	}
	return &TileMap{
		Cols:     cols,
		Rows:     rows,
		TileSize: tileSize,
		kinds:    make([]TileKind, cols*rows),
	}
}

// inBounds returns true if t lies inside the map.
func (tm *TileMap) inBounds(t Tile) bool {
	return t.X >= 0 && t.X < tm.Cols && t.Y >= 0 && t.Y < tm.Rows
}

// Kind returns the tile kind at t. Out-of-bounds reads as wall.
func (tm *TileMap) Kind(t Tile) TileKind {
	if !tm.inBounds(t) {
		return TileWall
	}
	return tm.kinds[t.Y*tm.Cols+t.X]
}

// SetKind changes the tile kind at t. Out-of-bounds writes are ignored.
func (tm *TileMap) SetKind(t Tile, k TileKind) {
	if !tm.inBounds(t) {
		return
	}
	tm.kinds[t.Y*tm.Cols+t.X] = k
}

// SetWall marks t as a wall.
func (tm *TileMap) SetWall(t Tile) { tm.SetKind(t, TileWall) }

// IsBlocked returns true if t cannot be walked on.
func (tm *TileMap) IsBlocked(t Tile) bool {
	return tm.Kind(t) == TileWall
}

// TileOf converts a world position to the tile containing it.
func (tm *TileMap) TileOf(p orb.Point) Tile {
	return Tile{
		X: int(math.Floor(p[0] / tm.TileSize)),
		Y: int(math.Floor(p[1] / tm.TileSize)),
	}
}

// CenterOf returns the world-space centre of t.
func (tm *TileMap) CenterOf(t Tile) orb.Point {
	return orb.Point{
		(float64(t.X) + 0.5) * tm.TileSize,
		(float64(t.Y) + 0.5) * tm.TileSize,
	}
}

// OpenDirections lists the directions whose neighbour is walkable, in
// enumeration order.
func (tm *TileMap) OpenDirections(t Tile) []Direction {
	out := make([]Direction, 0, directionCount)
	for _, d := range Directions {
		if !tm.IsBlocked(t.Step(d)) {
			out = append(out, d)
		}
	}
	return out
}

// FloorTiles returns every walkable tile in row-major order.
func (tm *TileMap) FloorTiles() []Tile {
	var out []Tile
	for y := 0; y < tm.Rows; y++ {
		for x := 0; x < tm.Cols; x++ {
			if tm.kinds[y*tm.Cols+x] == TileFloor {
				out = append(out, Tile{X: x, Y: y})
			}
		}
	}
	return out
}

// Walls returns every wall tile in row-major order.
func (tm *TileMap) Walls() []Tile {
	var out []Tile
	for y := 0; y < tm.Rows; y++ {
		for x := 0; x < tm.Cols; x++ {
			if tm.kinds[y*tm.Cols+x] == TileWall {
				out = append(out, Tile{X: x, Y: y})
			}
		}
	}
	return out
}

// String renders the map as ASCII, '#' for walls and '.' for floor.
func (tm *TileMap) String() string {
	var sb strings.Builder
	for y := 0; y < tm.Rows; y++ {
		for x := 0; x < tm.Cols; x++ {
			if tm.kinds[y*tm.Cols+x] == TileWall {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Layout carries the spawn state read from an ASCII map.
type Layout struct {
	Guards      []Tile // in reading order
	Intruder    Tile
	HasIntruder bool
}

// ParseLayout builds a map from ASCII rows.
//
//	'#'      wall
//	'.', ' ' floor
//	'G'      floor with a guard spawn
//	'T'      floor with the intruder spawn
//
// Rows shorter than the widest row are padded with wall.
func ParseLayout(rows []string, tileSize float64) (*TileMap, Layout, error) {
	var layout Layout
	if len(rows) == 0 {
		return nil, layout, fmt.Errorf("empty layout: %w", ErrBadLayout)
	}
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return nil, layout, fmt.Errorf("layout has no columns: %w", ErrBadLayout)
	}

	tm := NewTileMap(cols, len(rows), tileSize)
	for y, r := range rows {
		for x := 0; x < cols; x++ {
			t := Tile{X: x, Y: y}
			if x >= len(r) {
				tm.SetWall(t)
				continue
			}
			switch r[x] {
			case '#':
				tm.SetWall(t)
			case '.', ' ':
			case 'G':
				layout.Guards = append(layout.Guards, t)
			case 'T':
				if layout.HasIntruder {
					return nil, layout, fmt.Errorf("second intruder at %s: %w", t, ErrBadLayout)
				}
				layout.Intruder = t
				layout.HasIntruder = true
			default:
				return nil, layout, fmt.Errorf("unknown glyph %q at %s: %w", r[x], t, ErrBadLayout)
			}
		}
	}
	return tm, layout, nil
}
