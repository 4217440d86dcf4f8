package game

import (
	"fmt"
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Config gathers every tunable of a simulation.
type Config struct {
	TickRate float64 // steps per simulated second
	TileSize float64 // world units per tile

	Guard       GuardConfig
	Guards      int     // guards spawned when no explicit spawns are given
	CatchRadius float64 // tiles; guard-intruder distance that counts as a catch
	BodyRadius  float64 // tiles; guards closer than twice this are touching

	MaxTrail      float64
	TrailLeave    float64 // scent deposited per trail tick
	TrailInterval float64 // seconds between deposits
	DecayAmount   float64
	DecayInterval float64 // seconds between decay passes

	IntruderSpeed float64 // tiles per second, 0 holds still

	Maze            MazeConfig
	ThoughtCapacity int
}

// DefaultConfig returns the stock simulation tuning.
func DefaultConfig() Config {
	return Config{
		TickRate:        60,
		TileSize:        16,
		Guard:           DefaultGuardConfig(),
		Guards:          4,
		CatchRadius:     0.5,
		BodyRadius:      0.3,
		MaxTrail:        10,
		TrailLeave:      10,
		TrailInterval:   0.5,
		DecayAmount:     1,
		DecayInterval:   1,
		IntruderSpeed:   1.5,
		Maze:            MazeConfig{Cols: 31, Rows: 21, Braiding: 0.3, TileSize: 16},
		ThoughtCapacity: DefaultThoughtCapacity,
	}
}

// MotionSink receives every guard's pose once per step.
type MotionSink interface {
	GuardMoved(id int, pos, facing orb.Point, state GuardState)
}

// SimStats are running totals for reports.
type SimStats struct {
	Detections         int
	Catches            int
	FirstDetectionTick int // -1 until the first sighting
	Radio              RadioStats
}

// Sim is the fixed-tick driver. Each Step runs detection and broadcasts,
// guard ticks, the intruder, collisions, scent decay and scent deposits, in
// that order.
type Sim struct {
	cfg  Config
	seed int64
	rng  *rand.Rand

	Grid     *TileMap
	Scent    *ScentField
	Paths    *Pathfinder
	Radio    *Coordinator
	Guards   []*Guard
	Intruder *Intruder // nil when the level has no target
	SimLog   *SimLog
	Thoughts *ThoughtLog

	tick     int
	decay    *Interval
	deposits []*Interval
	contacts map[[2]int]bool
	catching map[int]bool // guard index -> touching the intruder last tick
	visited  map[Tile]bool
	sinks    []MotionSink
	stats    SimStats

	// construction state
	layoutRows  []string
	layout      Layout
	guardSpawns []Tile
	targetSpawn *Tile
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // config, seed, verbose, sinks
	simOptMap                        // layout or generated maze
	simOptAgent                      // explicit guard/target spawns
)

// SimOption is a builder function applied to a Sim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*Sim)
}

// WithConfig replaces the default tuning.
func WithConfig(cfg Config) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.cfg = cfg
	}}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.seed = seed
		s.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation only
	}}
}

// WithVerbose enables per-tick movement logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.SimLog = NewSimLog(v)
	}}
}

// WithSink registers a motion sink.
func WithSink(sink MotionSink) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.sinks = append(s.sinks, sink)
	}}
}

// WithLayout builds the maze from ASCII rows (see ParseLayout). Spawn glyphs
// are used unless explicit spawns are given.
func WithLayout(rows ...string) SimOption {
	return SimOption{simOptMap, func(s *Sim) {
		s.layoutRows = rows
	}}
}

// WithTileMap uses a prebuilt map and spawn layout.
func WithTileMap(tm *TileMap, layout Layout) SimOption {
	return SimOption{simOptMap, func(s *Sim) {
		s.Grid = tm
		s.layout = layout
	}}
}

// WithGeneratedMaze carves a maze from the configured MazeConfig and places
// spawns at random.
func WithGeneratedMaze() SimOption {
	return SimOption{simOptMap, func(s *Sim) {
		s.generateMaze()
	}}
}

// WithGuardAt adds a guard spawn. Any explicit guard spawn replaces the
// layout's guards.
func WithGuardAt(t Tile) SimOption {
	return SimOption{simOptAgent, func(s *Sim) {
		s.guardSpawns = append(s.guardSpawns, t)
	}}
}

// WithTargetAt places the intruder spawn.
func WithTargetAt(t Tile) SimOption {
	return SimOption{simOptAgent, func(s *Sim) {
		s.targetSpawn = &t
	}}
}

// NewSim constructs a Sim from the given options in ordered passes:
//  1. Infrastructure (config, seed, verbose, sinks)
//  2. Map (layout, prebuilt map or generated maze)
//  3. Spawns
func NewSim(opts ...SimOption) (*Sim, error) {
	s := &Sim{
		cfg:      DefaultConfig(),
		seed:     1,
		rng:      rand.New(rand.NewSource(1)), // #nosec G404 -- simulation default
		SimLog:   NewSimLog(false),
		contacts: make(map[[2]int]bool),
		catching: make(map[int]bool),
		visited:  make(map[Tile]bool),
		stats:    SimStats{FirstDetectionTick: -1},
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(s)
		}
	}
	for _, o := range opts {
		if o.kind == simOptMap {
			o.fn(s)
		}
	}
	if s.layoutRows != nil {
		tm, layout, err := ParseLayout(s.layoutRows, s.cfg.TileSize)
		if err != nil {
			return nil, err
		}
		s.Grid, s.layout = tm, layout
	}
	if s.Grid == nil {
		s.generateMaze()
	}
	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(s)
		}
	}
	if err := s.spawn(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sim) generateMaze() {
	mc := s.cfg.Maze
	mc.TileSize = s.cfg.TileSize
	s.Grid = GenerateMaze(mc, s.rng)
	s.layout = PlaceSpawns(s.Grid, s.cfg.Guards, s.rng)
}

func (s *Sim) spawn() error {
	s.Scent = NewScentField(s.Grid, s.cfg.MaxTrail)
	s.Paths = NewPathfinder(s.Grid)
	s.Thoughts = NewThoughtLog(s.cfg.ThoughtCapacity)
	s.Radio = NewCoordinator(s.Grid, s.SimLog, s.Thoughts, &s.tick)
	s.decay = NewInterval(s.cfg.DecayInterval, false)

	spawns := s.guardSpawns
	if len(spawns) == 0 {
		spawns = s.layout.Guards
	}
	for i, t := range spawns {
		if s.Grid.IsBlocked(t) {
			return fmt.Errorf("guard %d spawn %s is a wall: %w", i, t, ErrBadLayout)
		}
		g := NewGuard(i, t, GuardEnv{
			Grid:     s.Grid,
			Scent:    s.Scent,
			Paths:    s.Paths,
			Thoughts: s.Thoughts,
			Rng:      s.rng,
			Tick:     &s.tick,
		}, s.cfg.Guard)
		s.Guards = append(s.Guards, g)
		s.Radio.Register(g)
		s.deposits = append(s.deposits, NewInterval(s.cfg.TrailInterval, true))
		s.visited[t] = true
	}

	target, ok := s.layout.Intruder, s.layout.HasIntruder
	if s.targetSpawn != nil {
		target, ok = *s.targetSpawn, true
	}
	if ok {
		if s.Grid.IsBlocked(target) {
			return fmt.Errorf("intruder spawn %s is a wall: %w", target, ErrBadLayout)
		}
		s.Intruder = NewIntruder(target, s.Grid, s.Paths, s.rng, s.cfg.IntruderSpeed)
	}
	return nil
}

// Config returns the tuning in effect.
func (s *Sim) Config() Config { return s.cfg }

// Seed returns the RNG seed.
func (s *Sim) Seed() int64 { return s.seed }

// CurrentTick returns the current simulation tick.
func (s *Sim) CurrentTick() int { return s.tick }

// Stats returns running totals.
func (s *Sim) Stats() SimStats {
	st := s.stats
	st.Radio = s.Radio.Stats()
	return st
}

// Coverage is the fraction of floor tiles any guard has stood on.
func (s *Sim) Coverage() float64 {
	floor := len(s.Grid.FloorTiles())
	if floor == 0 {
		return 0
	}
	return float64(len(s.visited)) / float64(floor)
}

// GuardByLabel returns the guard with label, or nil.
func (s *Sim) GuardByLabel(label string) *Guard {
	for _, g := range s.Guards {
		if g.Label() == label {
			return g
		}
	}
	return nil
}

// RunTicks advances the simulation n steps.
func (s *Sim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// RunUntil advances up to maxTicks, stopping early when predicate returns
// true. Returns the tick at which the predicate was satisfied, or -1.
func (s *Sim) RunUntil(predicate func(*Sim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		s.Step()
		if predicate(s) {
			return s.tick
		}
	}
	return -1
}

// Step advances the simulation by one fixed tick.
func (s *Sim) Step() {
	s.tick++
	tick := s.tick
	dt := 1 / s.cfg.TickRate

	prevStates := make([]GuardState, len(s.Guards))
	prevGoals := make([]Tile, len(s.Guards))
	prevHasGoal := make([]bool, len(s.Guards))
	for i, g := range s.Guards {
		prevStates[i] = g.State()
		prevGoals[i], prevHasGoal[i] = g.Goal()
	}

	// 1. SENSE + RADIO
	if s.Intruder != nil {
		at := s.Intruder.CurrentTile()
		for _, g := range s.Guards {
			if !g.Sees(at) || !g.OnTargetDetected(at) {
				continue
			}
			s.stats.Detections++
			if s.stats.FirstDetectionTick < 0 {
				s.stats.FirstDetectionTick = tick
			}
			s.SimLog.Add(tick, g.Label(), "detect", "target", at.String(), float64(Manhattan(g.CurrentTile(), at)))
			s.Radio.BroadcastSpotted(g, at)
		}
	}

	// 2. ACT
	for _, g := range s.Guards {
		g.Tick(dt)
		s.visited[g.CurrentTile()] = true
	}
	if s.Intruder != nil {
		s.Intruder.Tick(dt)
	}

	// 3. COLLISIONS
	s.resolveCatch(tick)
	s.resolveContacts(tick)

	// 4. SCENT
	for n := s.decay.Advance(dt); n > 0; n-- {
		s.Scent.Decay(s.cfg.DecayAmount)
	}
	for i, g := range s.Guards {
		for n := s.deposits[i].Advance(dt); n > 0; n-- {
			s.Scent.Deposit(g.Position(), s.cfg.TrailLeave)
		}
	}

	// --- Post-tick logging ---
	for i, g := range s.Guards {
		if st := g.State(); st != prevStates[i] {
			s.SimLog.Add(tick, g.Label(), "state", "change",
				fmt.Sprintf("%s -> %s", prevStates[i], st), 0)
		}
		if goal, ok := g.Goal(); ok && (!prevHasGoal[i] || goal != prevGoals[i]) {
			s.SimLog.Add(tick, g.Label(), "goal", "set", goal.String(), float64(g.PathLen()))
		}
		pos := g.Position()
		s.SimLog.AddVerbose(tick, g.Label(), "move", "position",
			fmt.Sprintf("(%.1f,%.1f)", pos[0], pos[1]), 0)
		for _, sink := range s.sinks {
			sink.GuardMoved(g.ID(), pos, g.Facing(), g.State())
		}
	}
	s.SimLog.AddVerbose(tick, "--", "scent", "tiles", "", float64(s.Scent.Len()))
}

// resolveCatch defeats the intruder on the first tick a guard touches it.
// Only the first new contact per tick counts.
func (s *Sim) resolveCatch(tick int) {
	if s.Intruder == nil {
		return
	}
	reach := s.cfg.CatchRadius * s.cfg.TileSize
	var catcher *Guard
	for i, g := range s.Guards {
		touching := planar.Distance(g.Position(), s.Intruder.Position()) < reach
		if touching && !s.catching[i] && catcher == nil {
			catcher = g
		}
		s.catching[i] = touching
	}
	if catcher == nil {
		return
	}
	s.stats.Catches++
	s.SimLog.Add(tick, catcher.Label(), "catch", "target", s.Intruder.CurrentTile().String(), 0)
	s.Intruder.Defeat()
	catcher.OnCaughtTarget()
	s.Radio.BroadcastReset(catcher)

	// A guard already standing on the respawn point has not caught anything.
	for i, g := range s.Guards {
		s.catching[i] = planar.Distance(g.Position(), s.Intruder.Position()) < reach
	}
}

// resolveContacts turns patrolling guards around on the first tick two of
// them touch.
func (s *Sim) resolveContacts(tick int) {
	reach := 2 * s.cfg.BodyRadius * s.cfg.TileSize
	for i := 0; i < len(s.Guards); i++ {
		for j := i + 1; j < len(s.Guards); j++ {
			a, b := s.Guards[i], s.Guards[j]
			key := [2]int{i, j}
			touching := planar.Distance(a.Position(), b.Position()) < reach
			if touching && !s.contacts[key] {
				s.SimLog.Add(tick, a.Label(), "contact", "guard", b.Label(), 0)
				a.OnGuardCollision()
				b.OnGuardCollision()
			}
			s.contacts[key] = touching
		}
	}
}
