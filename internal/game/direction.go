package game

import "github.com/paulmach/orb"

// Direction is one of the four cardinal directions a guard can walk.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
	directionCount // sentinel
)

// Directions lists the cardinal directions in enumeration order.
var Directions = [directionCount]Direction{North, East, South, West}

// Tile offsets per direction. Rows grow downward, so North is -Y.
var dirOffsets = [directionCount][2]int{
	{0, -1}, {1, 0}, {0, 1}, {-1, 0},
}

var dirOpposite = [directionCount]Direction{South, West, North, East}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	if d >= directionCount {
		return North
	}
	return dirOpposite[d]
}

// Offset returns the tile delta for one step in d.
func (d Direction) Offset() (dx, dy int) {
	if d >= directionCount {
		return 0, 0
	}
	o := dirOffsets[d]
	return o[0], o[1]
}

// Vector returns the unit world-space vector for d.
func (d Direction) Vector() orb.Point {
	dx, dy := d.Offset()
	return orb.Point{float64(dx), float64(dy)}
}
