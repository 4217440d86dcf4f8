package game

import (
	"math/rand"
	"testing"
)

// guardRig wires guards to a shared map without the full Sim driver.
type guardRig struct {
	tm       *TileMap
	scent    *ScentField
	paths    *Pathfinder
	thoughts *ThoughtLog
	tick     int
	rng      *rand.Rand
}

func newGuardRig(t *testing.T, rows ...string) *guardRig {
	t.Helper()
	tm, _ := mustLayout(t, rows...)
	return &guardRig{
		tm:       tm,
		scent:    NewScentField(tm, 10),
		paths:    NewPathfinder(tm),
		thoughts: NewThoughtLog(200),
		rng:      rand.New(rand.NewSource(7)), // #nosec G404 -- test
	}
}

func (r *guardRig) env() GuardEnv {
	return GuardEnv{
		Grid:     r.tm,
		Scent:    r.scent,
		Paths:    r.paths,
		Thoughts: r.thoughts,
		Rng:      r.rng,
		Tick:     &r.tick,
	}
}

func (r *guardRig) guard(id int, at Tile) *Guard {
	return NewGuard(id, at, r.env(), DefaultGuardConfig())
}

var junctionRows = []string{
	"#########",
	"####.####",
	"#.......#",
	"####.####",
	"#########",
}

func TestIsIntersection_CorridorVsJunction(t *testing.T) {
	r := newGuardRig(t, junctionRows...)
	g := r.guard(0, Tile{1, 2})
	g.dir = East

	if g.isIntersection(Tile{3, 2}) {
		t.Fatal("straight corridor tile reported as intersection")
	}
	if !g.isIntersection(Tile{4, 2}) {
		t.Fatal("four-way junction not reported as intersection")
	}
	if g.isIntersection(Tile{2, 2}) {
		t.Fatal("tile after a dead end (one exit behind) should not count")
	}
}

func TestChooseDirection_PrefersFreshGround(t *testing.T) {
	r := newGuardRig(t, junctionRows...)
	g := r.guard(0, Tile{4, 2})
	junction := Tile{4, 2}
	for _, d := range []Direction{North, East, West} {
		r.scent.DepositTile(junction.Step(d), 6)
	}
	g.chooseDirection(junction)
	if g.TravelDirection() != South {
		t.Fatalf("expected south (unscented), got %s", g.TravelDirection())
	}
	if f := g.Facing(); f != South.Vector() {
		t.Fatalf("facing %v does not match travel direction", f)
	}
}

func TestChooseDirection_AllSaturatedReverses(t *testing.T) {
	r := newGuardRig(t, junctionRows...)
	g := r.guard(0, Tile{4, 2})
	junction := Tile{4, 2}
	for _, d := range Directions {
		r.scent.DepositTile(junction.Step(d), 10)
	}
	g.dir = East
	g.chooseDirection(junction)
	if g.TravelDirection() != West {
		t.Fatalf("expected reverse (west), got %s", g.TravelDirection())
	}
}

func TestChooseDirection_TiesStayAmongMaxima(t *testing.T) {
	r := newGuardRig(t, junctionRows...)
	g := r.guard(0, Tile{4, 2})
	junction := Tile{4, 2}
	r.scent.DepositTile(junction.Step(North), 3)
	r.scent.DepositTile(junction.Step(South), 3)
	for i := 0; i < 50; i++ {
		g.chooseDirection(junction)
		if d := g.TravelDirection(); d != East && d != West {
			t.Fatalf("pick %d chose scented direction %s", i, d)
		}
	}
}

func TestGuard_PatrolStaysOnFloor(t *testing.T) {
	r := newGuardRig(t,
		"#########",
		"#...#...#",
		"#.#.#.#.#",
		"#.......#",
		"#########",
	)
	g := r.guard(0, Tile{1, 1})
	for i := 0; i < 2000; i++ {
		r.tick++
		g.Tick(1.0 / 60.0)
		if r.tm.IsBlocked(g.CurrentTile()) {
			t.Fatalf("tick %d: guard inside wall at %v", i, g.CurrentTile())
		}
		if g.State() != GuardPatrol {
			t.Fatalf("tick %d: left patrol without a stimulus", i)
		}
		if i%30 == 0 {
			r.scent.Deposit(g.Position(), 10)
		}
	}
}

func TestGuard_PursuitOnOpenGrid(t *testing.T) {
	r := newGuardRig(t,
		".....",
		".....",
		".....",
		".....",
		".....",
	)
	g := r.guard(0, Tile{0, 0})
	if !g.OnTargetDetected(Tile{4, 4}) {
		t.Fatal("first detection should request a broadcast")
	}
	if g.OnTargetDetected(Tile{4, 4}) {
		t.Fatal("second detection on the same tile must be suppressed")
	}
	if g.State() != GuardPursue {
		t.Fatalf("state = %s, want pursue", g.State())
	}
	if got := len(g.Route()); got != 8 {
		t.Fatalf("route length %d, want 8", got)
	}

	transitions := 0
	prev := g.CurrentTile()
	for i := 0; i < 1000 && g.State() != GuardPatrol; i++ {
		r.tick++
		g.Tick(1.0 / 60.0)
		if cur := g.CurrentTile(); cur != prev {
			if Manhattan(cur, prev) != 1 {
				t.Fatalf("jumped from %v to %v", prev, cur)
			}
			transitions++
			prev = cur
		}
	}
	if g.State() != GuardPatrol {
		t.Fatal("guard never returned to patrol")
	}
	if transitions > 8 {
		t.Fatalf("took %d tile transitions, want <= 8", transitions)
	}
	if g.CurrentTile() != (Tile{4, 4}) {
		t.Fatalf("ended at %v, want (4,4)", g.CurrentTile())
	}
}

func TestGuard_PursueRefusesSearch(t *testing.T) {
	r := newGuardRig(t, junctionRows...)
	g := r.guard(0, Tile{1, 2})
	g.OnTargetDetected(Tile{7, 2})
	if g.transition(GuardSearch) {
		t.Fatal("pursue -> search must be refused")
	}
	if handled := g.HandleMessage(Message{Kind: MsgTargetSpotted, Target: Tile{4, 1}}); handled {
		t.Fatal("pursuing guard should ignore spotted messages")
	}
	if g.State() != GuardPursue {
		t.Fatalf("state = %s, want pursue", g.State())
	}
}

func TestGuard_SearchDetectionUpgradesToPursue(t *testing.T) {
	r := newGuardRig(t, junctionRows...)
	g := r.guard(0, Tile{1, 2})
	g.HandleMessage(Message{Kind: MsgTargetSpotted, Target: Tile{7, 2}})
	if g.State() != GuardSearch {
		t.Fatalf("state = %s, want search", g.State())
	}
	if !g.OnTargetDetected(Tile{6, 2}) {
		t.Fatal("detection while searching should broadcast")
	}
	if g.State() != GuardPursue {
		t.Fatalf("state = %s, want pursue", g.State())
	}
}

func TestGuard_DirectedMessageAvoidsTarget(t *testing.T) {
	r := newGuardRig(t,
		"#######",
		"#.....#",
		"#.###.#",
		"#.....#",
		"#######",
	)
	g := r.guard(0, Tile{1, 1})
	target := Tile{3, 1}
	g.HandleMessage(Message{Kind: MsgTargetSpottedWithDirection, Target: target, Dir: East})
	if g.State() != GuardSearch {
		t.Fatalf("state = %s, want search", g.State())
	}
	route := g.Route()
	if len(route) == 0 || route[len(route)-1] != (Tile{4, 1}) {
		t.Fatalf("route %v should end east of the target", route)
	}
	for _, step := range route {
		if step == target {
			t.Fatalf("route %v walks through the target tile", route)
		}
	}
}

func TestGuard_UnreachableReportFallsBackToPatrol(t *testing.T) {
	r := newGuardRig(t,
		"#######",
		"#..#..#",
		"#######",
	)
	g := r.guard(0, Tile{1, 1})
	g.HandleMessage(Message{Kind: MsgTargetSpotted, Target: Tile{5, 1}})
	if g.State() != GuardPatrol {
		t.Fatalf("state = %s, want patrol", g.State())
	}
	if g.PathLen() != 0 {
		t.Fatal("route should be empty")
	}
}

func TestGuard_ResetClearsRoute(t *testing.T) {
	r := newGuardRig(t, junctionRows...)
	g := r.guard(0, Tile{1, 2})
	g.HandleMessage(Message{Kind: MsgTargetSpotted, Target: Tile{7, 2}})
	g.HandleMessage(Message{Kind: MsgResetToPatrol})
	if g.State() != GuardPatrol {
		t.Fatalf("state = %s, want patrol", g.State())
	}
	if len(g.Route()) != 0 {
		t.Fatalf("route not cleared: %v", g.Route())
	}
}

func TestGuard_CollisionReversesOnlyInPatrol(t *testing.T) {
	r := newGuardRig(t, junctionRows...)
	g := r.guard(0, Tile{2, 2})
	g.dir = East
	g.waypoint = Tile{3, 2}
	g.OnGuardCollision()
	if g.TravelDirection() != West {
		t.Fatalf("direction = %s, want west", g.TravelDirection())
	}
	if g.Waypoint() != (Tile{2, 2}) {
		t.Fatalf("waypoint = %v, want (2,2)", g.Waypoint())
	}

	g.HandleMessage(Message{Kind: MsgTargetSpotted, Target: Tile{7, 2}})
	before := g.TravelDirection()
	g.OnGuardCollision()
	if g.TravelDirection() != before {
		t.Fatal("collision must not turn a searching guard")
	}
}

func TestGuard_SeesAlongCorridorNotThroughWalls(t *testing.T) {
	r := newGuardRig(t, junctionRows...)
	g := r.guard(0, Tile{1, 2})
	g.dir = East
	if !g.Sees(Tile{4, 2}) {
		t.Fatal("target three tiles down the corridor should be visible")
	}
	if g.Sees(Tile{7, 2}) {
		t.Fatal("target beyond vision depth should not be visible")
	}
	if g.Sees(Tile{2, 1}) {
		t.Fatal("wall tile beside the guard cannot hold a visible target")
	}
	g.dir = West
	if g.Sees(Tile{3, 2}) {
		t.Fatal("target behind the guard should not be visible")
	}
}
