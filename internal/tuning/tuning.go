package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brefaltsimon/AI-MazeGame/internal/game"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid tuning")

// Tuning is the on-disk form of a simulation's settings. Distances are in
// tiles and times in seconds.
type Tuning struct {
	TickRateHz float64 `yaml:"tick_rate_hz"`
	TileSize   float64 `yaml:"tile_size"`

	Guard    Guard    `yaml:"guard"`
	Scent    Scent    `yaml:"scent"`
	Maze     Maze     `yaml:"maze"`
	Intruder Intruder `yaml:"intruder"`

	ThoughtLogSize int `yaml:"thought_log_size"`
}

// Guard holds guard count, movement and perception settings.
type Guard struct {
	Count           int     `yaml:"count"`
	Speed           float64 `yaml:"speed"`
	CenterTolerance float64 `yaml:"center_tolerance"`
	VisionDepth     int     `yaml:"vision_depth"`
	VisionHalfWidth int     `yaml:"vision_half_width"`
	CatchRadius     float64 `yaml:"catch_radius"`
	BodyRadius      float64 `yaml:"body_radius"`
	WeightEpsilon   float64 `yaml:"weight_epsilon"`
}

// Scent holds trail deposit and decay settings.
type Scent struct {
	MaxTrail      float64 `yaml:"max_trail"`
	LeaveAmount   float64 `yaml:"leave_amount"`
	LeaveInterval float64 `yaml:"leave_interval"`
	DecayAmount   float64 `yaml:"decay_amount"`
	DecayInterval float64 `yaml:"decay_interval"`
}

// Maze sizes the generated maze.
type Maze struct {
	Cols     int     `yaml:"cols"`
	Rows     int     `yaml:"rows"`
	Braiding float64 `yaml:"braiding"`
}

// Intruder holds the target's settings.
type Intruder struct {
	Speed float64 `yaml:"speed"`
}

// Default mirrors game.DefaultConfig.
func Default() Tuning {
	c := game.DefaultConfig()
	return Tuning{
		TickRateHz: c.TickRate,
		TileSize:   c.TileSize,
		Guard: Guard{
			Count:           c.Guards,
			Speed:           c.Guard.Speed,
			CenterTolerance: c.Guard.CenterTolerance,
			VisionDepth:     c.Guard.VisionDepth,
			VisionHalfWidth: c.Guard.VisionHalfWidth,
			CatchRadius:     c.CatchRadius,
			BodyRadius:      c.BodyRadius,
			WeightEpsilon:   c.Guard.DirectionEpsilon,
		},
		Scent: Scent{
			MaxTrail:      c.MaxTrail,
			LeaveAmount:   c.TrailLeave,
			LeaveInterval: c.TrailInterval,
			DecayAmount:   c.DecayAmount,
			DecayInterval: c.DecayInterval,
		},
		Maze: Maze{
			Cols:     c.Maze.Cols,
			Rows:     c.Maze.Rows,
			Braiding: c.Maze.Braiding,
		},
		Intruder:       Intruder{Speed: c.IntruderSpeed},
		ThoughtLogSize: c.ThoughtCapacity,
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys it
// changes. The result is validated.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Validate rejects values the simulation cannot run with.
func (t Tuning) Validate() error {
	var errs []error
	check := func(ok bool, field string, v any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s = %v: %w", field, v, ErrInvalid))
		}
	}
	check(t.TickRateHz > 0, "tick_rate_hz", t.TickRateHz)
	check(t.TileSize > 0, "tile_size", t.TileSize)
	check(t.Guard.Count >= 0, "guard.count", t.Guard.Count)
	check(t.Guard.Speed > 0, "guard.speed", t.Guard.Speed)
	check(t.Guard.CenterTolerance > 0 && t.Guard.CenterTolerance < 0.5, "guard.center_tolerance", t.Guard.CenterTolerance)
	check(t.Guard.VisionDepth >= 0, "guard.vision_depth", t.Guard.VisionDepth)
	check(t.Guard.VisionHalfWidth >= 0, "guard.vision_half_width", t.Guard.VisionHalfWidth)
	check(t.Guard.CatchRadius > 0, "guard.catch_radius", t.Guard.CatchRadius)
	check(t.Guard.BodyRadius >= 0, "guard.body_radius", t.Guard.BodyRadius)
	check(t.Guard.WeightEpsilon >= 0, "guard.weight_epsilon", t.Guard.WeightEpsilon)
	check(t.Scent.MaxTrail > 0, "scent.max_trail", t.Scent.MaxTrail)
	check(t.Scent.LeaveAmount >= 0, "scent.leave_amount", t.Scent.LeaveAmount)
	check(t.Scent.LeaveInterval > 0, "scent.leave_interval", t.Scent.LeaveInterval)
	check(t.Scent.DecayAmount >= 0, "scent.decay_amount", t.Scent.DecayAmount)
	check(t.Scent.DecayInterval > 0, "scent.decay_interval", t.Scent.DecayInterval)
	check(t.Maze.Cols >= 5, "maze.cols", t.Maze.Cols)
	check(t.Maze.Rows >= 5, "maze.rows", t.Maze.Rows)
	check(t.Maze.Braiding >= 0 && t.Maze.Braiding <= 1, "maze.braiding", t.Maze.Braiding)
	check(t.Intruder.Speed >= 0, "intruder.speed", t.Intruder.Speed)
	return errors.Join(errs...)
}

// Config converts the tuning into simulation settings.
func (t Tuning) Config() game.Config {
	return game.Config{
		TickRate: t.TickRateHz,
		TileSize: t.TileSize,
		Guard: game.GuardConfig{
			Speed:            t.Guard.Speed,
			CenterTolerance:  t.Guard.CenterTolerance,
			VisionDepth:      t.Guard.VisionDepth,
			VisionHalfWidth:  t.Guard.VisionHalfWidth,
			DirectionEpsilon: t.Guard.WeightEpsilon,
		},
		Guards:        t.Guard.Count,
		CatchRadius:   t.Guard.CatchRadius,
		BodyRadius:    t.Guard.BodyRadius,
		MaxTrail:      t.Scent.MaxTrail,
		TrailLeave:    t.Scent.LeaveAmount,
		TrailInterval: t.Scent.LeaveInterval,
		DecayAmount:   t.Scent.DecayAmount,
		DecayInterval: t.Scent.DecayInterval,
		IntruderSpeed: t.Intruder.Speed,
		Maze: game.MazeConfig{
			Cols:     t.Maze.Cols,
			Rows:     t.Maze.Rows,
			Braiding: t.Maze.Braiding,
			TileSize: t.TileSize,
		},
		ThoughtCapacity: t.ThoughtLogSize,
	}
}
