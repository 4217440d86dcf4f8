package observer

import (
	"sort"

	"github.com/brefaltsimon/AI-MazeGame/internal/game"
)

// ProtocolVersion is sent in every bootstrap and frame.
const ProtocolVersion = "1.0"

// Bootstrap is the static part of a session: the maze itself.
type Bootstrap struct {
	ProtocolVersion string   `json:"protocol_version"`
	Cols            int      `json:"cols"`
	Rows            int      `json:"rows"`
	TileSize        float64  `json:"tile_size"`
	TickRateHz      float64  `json:"tick_rate_hz"`
	Walls           [][2]int `json:"walls"`
}

// GuardView is one guard's pose and state in world units. Goal is the tile
// being walked to, when there is one.
type GuardView struct {
	ID      int     `json:"id"`
	Label   string  `json:"label"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	FacingX float64 `json:"facing_x"`
	FacingY float64 `json:"facing_y"`
	State   string  `json:"state"`
	Goal    *[2]int `json:"goal,omitempty"`
}

// IntruderView is the target's position and how often it was caught.
type IntruderView struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Defeats int     `json:"defeats"`
}

// TrailView is the scent level on one tile.
type TrailView struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Level float64 `json:"level"`
}

// Frame is one tick of dynamic state.
type Frame struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Tick            int           `json:"tick"`
	Guards          []GuardView   `json:"guards"`
	Intruder        *IntruderView `json:"intruder,omitempty"`
	Trails          []TrailView   `json:"trails"`
}

// BootstrapOf describes the maze of s.
func BootstrapOf(s *game.Sim) Bootstrap {
	b := Bootstrap{
		ProtocolVersion: ProtocolVersion,
		Cols:            s.Grid.Cols,
		Rows:            s.Grid.Rows,
		TileSize:        s.Grid.TileSize,
		TickRateHz:      s.Config().TickRate,
		Walls:           [][2]int{},
	}
	for _, w := range s.Grid.Walls() {
		b.Walls = append(b.Walls, [2]int{w.X, w.Y})
	}
	return b
}

// FrameOf captures the current tick of s. Trails are ordered by row, then
// column.
func FrameOf(s *game.Sim) Frame {
	f := Frame{
		Type:            "FRAME",
		ProtocolVersion: ProtocolVersion,
		Tick:            s.CurrentTick(),
		Guards:          make([]GuardView, 0, len(s.Guards)),
		Trails:          []TrailView{},
	}
	for _, g := range s.Guards {
		pos, facing := g.Position(), g.Facing()
		v := GuardView{
			ID:      g.ID(),
			Label:   g.Label(),
			X:       pos[0],
			Y:       pos[1],
			FacingX: facing[0],
			FacingY: facing[1],
			State:   g.State().String(),
		}
		if goal, ok := g.Goal(); ok {
			v.Goal = &[2]int{goal.X, goal.Y}
		}
		f.Guards = append(f.Guards, v)
	}
	if in := s.Intruder; in != nil {
		p := in.Position()
		f.Intruder = &IntruderView{X: p[0], Y: p[1], Defeats: in.Defeats}
	}
	for t, lvl := range s.Scent.Snapshot() {
		f.Trails = append(f.Trails, TrailView{X: t.X, Y: t.Y, Level: lvl})
	}
	sort.Slice(f.Trails, func(i, j int) bool {
		a, b := f.Trails[i], f.Trails[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return f
}
