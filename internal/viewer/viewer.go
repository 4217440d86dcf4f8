// Package viewer draws a running guard simulation in an ebiten window.
package viewer

import (
	"fmt"
	"image/color"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/paulmach/orb"
	"golang.org/x/image/font/basicfont"

	"github.com/brefaltsimon/AI-MazeGame/internal/game"
)

// borderWidth is the pixel gap between the window edge and the maze.
const borderWidth = 16

// panelWidth is the width of the thought log column right of the maze.
const panelWidth = 420

// lineHeight matches basicfont.Face7x13.
const lineHeight = 14

// statusTicks is how long a status line stays up (one second at 60 TPS).
const statusTicks = 60

var (
	floorColor  = color.RGBA{R: 34, G: 36, B: 40, A: 255}
	wallColor   = color.RGBA{R: 92, G: 86, B: 78, A: 255}
	wallLight   = color.RGBA{R: 120, G: 114, B: 104, A: 255}
	panelColor  = color.RGBA{R: 14, G: 14, B: 18, A: 235}
	pathColor   = color.RGBA{R: 240, G: 240, B: 240, A: 90}
	targetColor = color.RGBA{R: 250, G: 210, B: 40, A: 255}
	textColor   = color.RGBA{R: 210, G: 210, B: 210, A: 255}
)

// stateColors maps each GuardState to its render colour.
var stateColors = map[game.GuardState]color.RGBA{
	game.GuardPatrol: {R: 70, G: 170, B: 255, A: 255}, // blue
	game.GuardPursue: {R: 255, G: 60, B: 60, A: 255},  // red
	game.GuardSearch: {R: 255, G: 150, B: 30, A: 255}, // orange
}

func stateColor(s game.GuardState) color.RGBA {
	if c, ok := stateColors[s]; ok {
		return c
	}
	return color.RGBA{R: 200, G: 200, B: 200, A: 255}
}

// trailColor shades a scent level; fuller trails are more opaque.
func trailColor(level, maxTrail float64) color.RGBA {
	if maxTrail <= 0 || level <= 0 {
		return color.RGBA{}
	}
	f := level / maxTrail
	if f > 1 {
		f = 1
	}
	return color.RGBA{R: 40, G: uint8(60 + 120*f), B: 60, A: uint8(30 + 150*f)}
}

type pose struct {
	pos    orb.Point
	facing orb.Point
	state  game.GuardState
	seen   bool
}

// Game implements ebiten.Game around a *game.Sim.
type Game struct {
	sim   *game.Sim
	poses []pose

	paused     bool
	showTrails bool
	showPaths  bool
	prevKeys   map[ebiten.Key]bool

	face        text.Face
	copyText    func(string) error
	status      string
	statusUntil int
	frames      int

	mazeW, mazeH int
}

// New builds a simulation from opts with the viewer attached as its motion
// sink.
func New(opts ...game.SimOption) (*Game, error) {
	g := &Game{
		showTrails: true,
		showPaths:  true,
		prevKeys:   make(map[ebiten.Key]bool),
		face:       text.NewGoXFace(basicfont.Face7x13),
		copyText:   clipboard.WriteAll,
	}
	sim, err := game.NewSim(append(opts, game.WithSink(g))...)
	if err != nil {
		return nil, err
	}
	g.sim = sim
	g.poses = make([]pose, len(sim.Guards))
	g.mazeW = int(float64(sim.Grid.Cols) * sim.Grid.TileSize)
	g.mazeH = int(float64(sim.Grid.Rows) * sim.Grid.TileSize)
	return g, nil
}

// Sim exposes the running simulation.
func (g *Game) Sim() *game.Sim { return g.sim }

// Size returns the window size that fits the maze and the log panel.
func (g *Game) Size() (int, int) {
	h := g.mazeH + 2*borderWidth
	if h < 480 {
		h = 480
	}
	return g.mazeW + 2*borderWidth + panelWidth, h
}

// GuardMoved records the latest pose reported by the simulation.
func (g *Game) GuardMoved(id int, pos, facing orb.Point, state game.GuardState) {
	for id >= len(g.poses) {
		g.poses = append(g.poses, pose{})
	}
	g.poses[id] = pose{pos: pos, facing: facing, state: state, seen: true}
}

func (g *Game) Update() error {
	g.frames++
	g.handleInput()
	if !g.paused {
		g.sim.Step()
	}
	return nil
}

// pressed reports a key edge: down now, up last frame.
func (g *Game) pressed(cur map[ebiten.Key]bool, k ebiten.Key) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !g.prevKeys[k]
}

func (g *Game) handleInput() {
	cur := map[ebiten.Key]bool{}
	if g.pressed(cur, ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if g.pressed(cur, ebiten.KeyT) {
		g.showTrails = !g.showTrails
	}
	if g.pressed(cur, ebiten.KeyP) {
		g.showPaths = !g.showPaths
	}
	if g.pressed(cur, ebiten.KeyC) {
		g.copyLog()
	}
	g.prevKeys = cur
}

// copyLog puts the formatted run log on the system clipboard.
func (g *Game) copyLog() {
	if err := g.copyText(g.sim.SimLog.Format()); err != nil {
		g.setStatus("clipboard: " + err.Error())
		return
	}
	g.setStatus(fmt.Sprintf("copied %d log entries", g.sim.SimLog.Len()))
}

func (g *Game) setStatus(s string) {
	g.status = s
	g.statusUntil = g.frames + statusTicks
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 8, G: 8, B: 10, A: 255})
	g.drawTiles(screen)
	if g.showTrails {
		g.drawTrails(screen)
	}
	if g.showPaths {
		g.drawPaths(screen)
	}
	g.drawIntruder(screen)
	g.drawGuards(screen)
	g.drawPanel(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.Size()
}

// toScreen maps a world point into window pixels.
func toScreen(p orb.Point) (float32, float32) {
	return float32(p[0]) + borderWidth, float32(p[1]) + borderWidth
}

func (g *Game) drawTiles(screen *ebiten.Image) {
	grid := g.sim.Grid
	ts := float32(grid.TileSize)
	vector.FillRect(screen, borderWidth, borderWidth, float32(g.mazeW), float32(g.mazeH), floorColor, false)
	for _, w := range grid.Walls() {
		x := borderWidth + float32(w.X)*ts
		y := borderWidth + float32(w.Y)*ts
		vector.FillRect(screen, x, y, ts, ts, wallColor, false)
		vector.StrokeLine(screen, x, y, x+ts, y, 1, wallLight, false)
	}
}

func (g *Game) drawTrails(screen *ebiten.Image) {
	ts := float32(g.sim.Grid.TileSize)
	maxTrail := g.sim.Scent.MaxTrail()
	for t, lvl := range g.sim.Scent.Snapshot() {
		x := borderWidth + float32(t.X)*ts
		y := borderWidth + float32(t.Y)*ts
		vector.FillRect(screen, x+1, y+1, ts-2, ts-2, trailColor(lvl, maxTrail), false)
	}
}

func (g *Game) drawPaths(screen *ebiten.Image) {
	grid := g.sim.Grid
	for _, gd := range g.sim.Guards {
		x0, y0 := toScreen(gd.Position())
		for _, t := range gd.Route() {
			x1, y1 := toScreen(grid.CenterOf(t))
			vector.StrokeLine(screen, x0, y0, x1, y1, 2, pathColor, true)
			x0, y0 = x1, y1
		}
	}
}

func (g *Game) drawGuards(screen *ebiten.Image) {
	r := float32(g.sim.Grid.TileSize) * 0.35
	for i, p := range g.poses {
		if !p.seen {
			// Before the first step draw from the guard itself.
			gd := g.sim.Guards[i]
			p = pose{pos: gd.Position(), facing: gd.Facing(), state: gd.State()}
		}
		x, y := toScreen(p.pos)
		c := stateColor(p.state)
		vector.FillCircle(screen, x, y, r, c, true)
		fx := x + float32(p.facing[0])*r*1.8
		fy := y + float32(p.facing[1])*r*1.8
		vector.StrokeLine(screen, x, y, fx, fy, 2, c, true)
		g.drawText(screen, g.sim.Guards[i].Label(), float64(x+r), float64(y-r-lineHeight), textColor)
	}
}

func (g *Game) drawIntruder(screen *ebiten.Image) {
	in := g.sim.Intruder
	if in == nil {
		return
	}
	x, y := toScreen(in.Position())
	r := float32(g.sim.Grid.TileSize) * 0.3
	vector.FillRect(screen, x-r, y-r, 2*r, 2*r, targetColor, false)
}

func (g *Game) drawPanel(screen *ebiten.Image) {
	w, h := g.Size()
	px := float32(w - panelWidth)
	vector.FillRect(screen, px, 0, panelWidth, float32(h), panelColor, false)

	x := float64(px) + 10
	y := 8.0
	st := g.sim.Stats()
	header := []string{
		fmt.Sprintf("tick %d  seed %d", g.sim.CurrentTick(), g.sim.Seed()),
		fmt.Sprintf("detections %d  catches %d  coverage %.0f%%", st.Detections, st.Catches, 100*g.sim.Coverage()),
		fmt.Sprintf("radio: %d broadcasts, %d ignored", st.Radio.Broadcasts, st.Radio.Ignored),
		"[Space] pause  [T] trails  [P] paths  [C] copy log",
	}
	if g.paused {
		header[0] += "  PAUSED"
	}
	for _, l := range header {
		g.drawText(screen, l, x, y, textColor)
		y += lineHeight
	}
	if g.status != "" && g.frames < g.statusUntil {
		g.drawText(screen, g.status, x, y, targetColor)
	}
	y += lineHeight * 1.5

	entries := g.sim.Thoughts.Recent()
	fit := int((float64(h) - y) / lineHeight)
	if fit < len(entries) {
		entries = entries[len(entries)-fit:]
	}
	for _, e := range entries {
		g.drawText(screen, fmt.Sprintf("[%03d] %-3s %s", e.Tick, e.Label, e.Message), x, y, stateColor(e.State))
		y += lineHeight
	}
}

func (g *Game) drawText(screen *ebiten.Image, s string, x, y float64, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, g.face, op)
}
