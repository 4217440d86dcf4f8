package game

import (
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Intruder is the target the guards hunt. It wanders between random floor
// tiles and respawns where it started when caught.
type Intruder struct {
	grid  *TileMap
	paths *Pathfinder
	rng   *rand.Rand
	speed float64 // tiles per second; 0 holds still

	spawn   Tile
	pos     orb.Point
	route   []Tile // walking order
	Defeats int
}

// NewIntruder places an intruder at the centre of spawn.
func NewIntruder(spawn Tile, grid *TileMap, paths *Pathfinder, rng *rand.Rand, speed float64) *Intruder {
	return &Intruder{
		grid:  grid,
		paths: paths,
		rng:   rng,
		speed: speed,
		spawn: spawn,
		pos:   grid.CenterOf(spawn),
	}
}

// Position returns the intruder's world position.
func (in *Intruder) Position() orb.Point { return in.pos }

// CurrentTile returns the tile under the intruder.
func (in *Intruder) CurrentTile() Tile { return in.grid.TileOf(in.pos) }

// Spawn returns the respawn tile.
func (in *Intruder) Spawn() Tile { return in.spawn }

// Defeat sends the intruder back to its spawn.
func (in *Intruder) Defeat() {
	in.Defeats++
	in.pos = in.grid.CenterOf(in.spawn)
	in.route = in.route[:0]
}

// Tick moves the intruder dt seconds along its route, planning a new one when
// the old one is used up.
func (in *Intruder) Tick(dt float64) {
	if in.speed <= 0 {
		return
	}
	if len(in.route) == 0 {
		in.plan()
		if len(in.route) == 0 {
			return
		}
	}
	target := in.grid.CenterOf(in.route[0])
	step := in.speed * in.grid.TileSize * dt
	d := planar.Distance(in.pos, target)
	if d <= step {
		in.pos = target
		in.route = in.route[1:]
		return
	}
	in.pos = orb.Point{
		in.pos[0] + (target[0]-in.pos[0])/d*step,
		in.pos[1] + (target[1]-in.pos[1])/d*step,
	}
}

func (in *Intruder) plan() {
	floor := in.grid.FloorTiles()
	if len(floor) < 2 || in.rng == nil {
		return
	}
	cur := in.CurrentTile()
	dest := floor[in.rng.Intn(len(floor))]
	if dest == cur {
		return
	}
	route, err := in.paths.FindPath(cur, dest)
	if err != nil {
		return
	}
	in.route = route
}
