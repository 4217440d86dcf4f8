package game

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// GuardState is the high-level behaviour state of a guard.
type GuardState uint8

const (
	GuardPatrol GuardState = iota // wandering the maze
	GuardPursue                   // chasing a target it saw itself
	GuardSearch                   // heading to a tile reported by a peer
	guardStateCount
)

func (gs GuardState) String() string {
	switch gs {
	case GuardPatrol:
		return "patrol"
	case GuardPursue:
		return "pursue"
	case GuardSearch:
		return "search"
	default:
		return "unknown"
	}
}

// guardTransitions[from][to] lists legal state changes. A guard pursuing on
// first-hand contact never downgrades to a peer's search. A searching guard
// that sees the target itself switches to Pursue, so it chases where the
// target is now rather than where a peer last reported it.
var guardTransitions = [guardStateCount][guardStateCount]bool{
	GuardPatrol: {GuardPursue: true, GuardSearch: true},
	GuardPursue: {GuardPatrol: true},
	GuardSearch: {GuardPatrol: true, GuardPursue: true},
}

// GuardConfig holds per-guard movement and perception tuning.
type GuardConfig struct {
	Speed            float64 // tiles per second
	CenterTolerance  float64 // fraction of a tile that counts as "at the centre"
	VisionDepth      int     // tiles ahead of the guard it can see
	VisionHalfWidth  int     // tiles to either side of the line of travel
	DirectionEpsilon float64 // weights at or below this are ignored
}

// DefaultGuardConfig returns the stock guard tuning.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Speed:            2,
		CenterTolerance:  0.05,
		VisionDepth:      4,
		VisionHalfWidth:  1,
		DirectionEpsilon: 1e-6,
	}
}

// GuardEnv is the shared world a guard reads from.
type GuardEnv struct {
	Grid     *TileMap
	Scent    *ScentField
	Paths    *Pathfinder
	Thoughts *ThoughtLog
	Rng      *rand.Rand
	Tick     *int // current simulation tick, owned by the driver
}

// Guard is one maze patrol agent.
type Guard struct {
	id    int
	label string
	env   GuardEnv
	cfg   GuardConfig

	pos    orb.Point
	facing orb.Point
	dir    Direction
	state  GuardState

	// Pending route, most imminent tile last.
	path        []Tile
	pathUpdated bool
	goal        Tile
	hasGoal     bool

	waypoint       Tile
	previousTile   Tile
	reachedNewTile bool
}

// NewGuard creates a guard standing at the centre of spawn in Patrol, facing
// a scent-weighted random open direction.
func NewGuard(id int, spawn Tile, env GuardEnv, cfg GuardConfig) *Guard {
	if env.Rng == nil {
		env.Rng = rand.New(rand.NewSource(int64(id) + 1)) // #nosec G404 -- simulation only
	}
	if env.Tick == nil {
		env.Tick = new(int)
	}
	g := &Guard{
		id:             id,
		label:          fmt.Sprintf("G%d", id),
		env:            env,
		cfg:            cfg,
		pos:            env.Grid.CenterOf(spawn),
		state:          GuardPatrol,
		waypoint:       spawn,
		previousTile:   spawn,
		reachedNewTile: true,
	}
	g.dir = North
	g.chooseDirection(spawn)
	return g
}

// --- accessors ---

func (g *Guard) ID() int                    { return g.id }
func (g *Guard) Label() string              { return g.label }
func (g *Guard) Position() orb.Point        { return g.pos }
func (g *Guard) Facing() orb.Point          { return g.facing }
func (g *Guard) State() GuardState          { return g.state }
func (g *Guard) TravelDirection() Direction { return g.dir }
func (g *Guard) Waypoint() Tile             { return g.waypoint }
func (g *Guard) PathLen() int               { return len(g.path) }
func (g *Guard) CurrentTile() Tile          { return g.env.Grid.TileOf(g.pos) }

// Goal returns the tile currently being walked to in Pursue or Search.
func (g *Guard) Goal() (Tile, bool) { return g.goal, g.hasGoal }

// Route returns the remaining tiles in walking order, starting with the tile
// currently being walked to.
func (g *Guard) Route() []Tile {
	out := make([]Tile, 0, len(g.path)+1)
	if g.hasGoal {
		out = append(out, g.goal)
	}
	for i := len(g.path) - 1; i >= 0; i-- {
		out = append(out, g.path[i])
	}
	return out
}

func (g *Guard) think(format string, args ...any) {
	g.env.Thoughts.Add(*g.env.Tick, g.label, g.state, fmt.Sprintf(format, args...))
}

// transition is the only place state changes. Illegal requests are refused
// and reported.
func (g *Guard) transition(to GuardState) bool {
	if to == g.state {
		return true
	}
	if !guardTransitions[g.state][to] {
		g.think("refused %s -> %s", g.state, to)
		return false
	}
	g.think("%s -> %s", g.state, to)
	g.state = to
	return true
}

// --- tick ---

// Tick advances the guard by dt seconds.
func (g *Guard) Tick(dt float64) {
	if g.CurrentTile() != g.previousTile {
		g.reachedNewTile = true
	}
	switch g.state {
	case GuardPatrol:
		g.tickPatrol(dt)
	default:
		g.tickRoute(dt)
	}
}

func (g *Guard) tickPatrol(dt float64) {
	if !g.moveToward(g.env.Grid.CenterOf(g.waypoint), dt) {
		return
	}
	cur := g.waypoint
	if cur != g.previousTile {
		g.reachedNewTile = true
	}
	blockedAhead := g.env.Grid.IsBlocked(cur.Step(g.dir))
	switch {
	case g.reachedNewTile && (blockedAhead || g.isIntersection(cur)):
		g.chooseDirection(cur)
		g.previousTile = cur
		g.reachedNewTile = false
	case blockedAhead:
		g.chooseDirection(cur)
	}
	g.advanceWaypoint(cur)
}

func (g *Guard) advanceWaypoint(from Tile) {
	next := from.Step(g.dir)
	if g.env.Grid.IsBlocked(next) {
		g.waypoint = from
		return
	}
	g.waypoint = next
}

func (g *Guard) tickRoute(dt float64) {
	if g.pathUpdated {
		g.pathUpdated = false
		g.popGoal()
	}
	if g.hasGoal && g.atCenterOf(g.goal) {
		if len(g.path) == 0 {
			g.finishRoute()
			return
		}
		g.previousTile = g.goal
		g.popGoal()
	}
	if !g.hasGoal {
		g.finishRoute()
		return
	}
	g.moveToward(g.env.Grid.CenterOf(g.goal), dt)
}

func (g *Guard) popGoal() {
	if len(g.path) == 0 {
		g.hasGoal = false
		return
	}
	last := len(g.path) - 1
	g.goal = g.path[last]
	g.path = g.path[:last]
	g.hasGoal = true

	cur := g.CurrentTile()
	for _, d := range Directions {
		if cur.Step(d) == g.goal {
			g.dir = d
			break
		}
	}
	g.faceToward(g.env.Grid.CenterOf(g.goal))
}

// finishRoute ends a Pursue or Search and resumes patrolling from here.
func (g *Guard) finishRoute() {
	g.clearRoute()
	cur := g.CurrentTile()
	g.transition(GuardPatrol)
	g.chooseDirection(cur)
	g.previousTile = cur
	g.reachedNewTile = false
	g.waypoint = cur
}

func (g *Guard) clearRoute() {
	g.path = g.path[:0]
	g.hasGoal = false
	g.pathUpdated = false
}

// setRoute replaces the pending route with one in walking order.
func (g *Guard) setRoute(walk []Tile) {
	g.path = g.path[:0]
	for i := len(walk) - 1; i >= 0; i-- {
		g.path = append(g.path, walk[i])
	}
	g.hasGoal = false
	g.pathUpdated = true
}

// --- movement ---

// moveToward steps toward target and reports whether it is now there.
func (g *Guard) moveToward(target orb.Point, dt float64) bool {
	ts := g.env.Grid.TileSize
	d := planar.Distance(g.pos, target)
	step := g.cfg.Speed * ts * dt
	if d <= step || d <= g.cfg.CenterTolerance*ts {
		g.pos = target
		return true
	}
	g.pos = orb.Point{
		g.pos[0] + (target[0]-g.pos[0])/d*step,
		g.pos[1] + (target[1]-g.pos[1])/d*step,
	}
	return false
}

func (g *Guard) atCenterOf(t Tile) bool {
	return planar.Distance(g.pos, g.env.Grid.CenterOf(t)) <= g.cfg.CenterTolerance*g.env.Grid.TileSize
}

func (g *Guard) faceToward(p orb.Point) {
	d := planar.Distance(g.pos, p)
	if d == 0 {
		g.facing = g.dir.Vector()
		return
	}
	g.facing = orb.Point{(p[0] - g.pos[0]) / d, (p[1] - g.pos[1]) / d}
}

// --- patrol decisions ---

// isIntersection compares the exits here with the exits of the tile behind.
func (g *Guard) isIntersection(cur Tile) bool {
	here := g.env.Grid.OpenDirections(cur)
	behind := g.env.Grid.OpenDirections(cur.Step(g.dir.Opposite()))
	if len(here) != len(behind) {
		return len(behind) > 1
	}
	for i := range here {
		if here[i] != behind[i] {
			return true
		}
	}
	return false
}

// chooseDirection picks the least-scented open exit from cur. Ties are broken
// uniformly at random; with no usable exit the guard turns around.
func (g *Guard) chooseDirection(cur Tile) {
	best := math.Inf(-1)
	var ties []Direction
	for _, d := range g.env.Grid.OpenDirections(cur) {
		w := 1.0
		if g.env.Scent != nil {
			w = g.env.Scent.Weight(cur.Step(d))
		}
		if math.Abs(w) <= g.cfg.DirectionEpsilon {
			continue
		}
		switch {
		case w > best:
			best = w
			ties = append(ties[:0], d)
		case w == best:
			ties = append(ties, d)
		}
	}
	switch len(ties) {
	case 0:
		g.dir = g.dir.Opposite()
	case 1:
		g.dir = ties[0]
	default:
		g.dir = ties[g.env.Rng.Intn(len(ties))]
	}
	g.facing = g.dir.Vector()
}

// --- events ---

// OnTargetDetected reacts to the target being seen at tile. It acts at most
// once per newly reached tile and returns true when the sighting should be
// broadcast to peers.
func (g *Guard) OnTargetDetected(target Tile) bool {
	if !g.reachedNewTile {
		return false
	}
	cur := g.CurrentTile()
	switch g.state {
	case GuardPursue:
		g.think("replanning to %s", target)
	case GuardPatrol, GuardSearch:
		g.think("target at %s", target)
		g.transition(GuardPursue)
	}
	g.planRoute(func() ([]Tile, error) { return g.env.Paths.FindPath(cur, target) })
	g.reachedNewTile = false
	g.previousTile = cur
	return true
}

// HandleMessage applies a coordination message. It returns false when the
// message was ignored.
func (g *Guard) HandleMessage(msg Message) bool {
	switch msg.Kind {
	case MsgResetToPatrol:
		g.resetToPatrol()
		return true
	case MsgTargetSpottedWithDirection:
		if g.state == GuardPursue {
			g.think("ignoring %s, already pursuing", msg.FromLabel)
			return false
		}
		cur := g.CurrentTile()
		dest := msg.Target.Step(msg.Dir)
		g.think("%s reports %s, covering %s", msg.FromLabel, msg.Target, msg.Dir)
		g.transition(GuardSearch)
		g.planRoute(func() ([]Tile, error) { return g.env.Paths.FindPathAvoiding(cur, dest, msg.Target) })
		return true
	case MsgTargetSpotted:
		if g.state == GuardPursue {
			g.think("ignoring %s, already pursuing", msg.FromLabel)
			return false
		}
		cur := g.CurrentTile()
		g.think("%s reports %s", msg.FromLabel, msg.Target)
		g.transition(GuardSearch)
		g.planRoute(func() ([]Tile, error) { return g.env.Paths.FindPath(cur, msg.Target) })
		return true
	}
	return false
}

func (g *Guard) planRoute(find func() ([]Tile, error)) {
	walk, err := find()
	if err != nil {
		g.think("no route: %v", err)
		g.resetToPatrol()
		return
	}
	g.setRoute(walk)
}

// OnCaughtTarget is called when this guard touched the target.
func (g *Guard) OnCaughtTarget() {
	g.think("caught target")
	g.resetToPatrol()
}

func (g *Guard) resetToPatrol() {
	g.clearRoute()
	if g.state == GuardPatrol {
		return
	}
	cur := g.CurrentTile()
	g.transition(GuardPatrol)
	g.chooseDirection(cur)
	g.waypoint = cur
}

// OnGuardCollision turns a patrolling guard around after bumping a peer.
func (g *Guard) OnGuardCollision() {
	if g.state != GuardPatrol {
		return
	}
	g.dir = g.dir.Opposite()
	g.facing = g.dir.Vector()
	if next := g.waypoint.Step(g.dir); !g.env.Grid.IsBlocked(next) {
		g.waypoint = next
	}
}

// --- perception ---

// TriggerRegion is the world-space box the guard watches: VisionDepth tiles
// ahead of its current tile and VisionHalfWidth tiles to each side.
func (g *Guard) TriggerRegion() orb.Bound {
	cur := g.CurrentTile()
	ahead := g.dir
	side := Direction((uint8(g.dir) + 1) % uint8(directionCount))
	sx, sy := side.Offset()
	ax, ay := ahead.Offset()
	hw, depth := g.cfg.VisionHalfWidth, g.cfg.VisionDepth

	a := Tile{X: cur.X - sx*hw, Y: cur.Y - sy*hw}
	b := Tile{X: cur.X + ax*depth + sx*hw, Y: cur.Y + ay*depth + sy*hw}
	ts := g.env.Grid.TileSize
	return orb.MultiPoint{
		{float64(min(a.X, b.X)) * ts, float64(min(a.Y, b.Y)) * ts},
		{float64(max(a.X, b.X)+1) * ts, float64(max(a.Y, b.Y)+1) * ts},
	}.Bound()
}

// Sees reports whether t is inside the trigger region with an open line of
// tiles from the guard: straight ahead first, then sideways.
func (g *Guard) Sees(t Tile) bool {
	if !g.TriggerRegion().Contains(g.env.Grid.CenterOf(t)) {
		return false
	}
	cur := g.CurrentTile()
	ax, ay := g.dir.Offset()
	forward := (t.X-cur.X)*ax + (t.Y-cur.Y)*ay
	p := cur
	for i := 0; i < forward; i++ {
		p = p.Step(g.dir)
		if g.env.Grid.IsBlocked(p) {
			return false
		}
	}
	for p != t {
		var d Direction
		switch {
		case t.X > p.X:
			d = East
		case t.X < p.X:
			d = West
		case t.Y > p.Y:
			d = South
		default:
			d = North
		}
		p = p.Step(d)
		if g.env.Grid.IsBlocked(p) {
			return false
		}
	}
	return true
}
