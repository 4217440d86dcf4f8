package game

import (
	"sync"

	"github.com/paulmach/orb"
)

// TileLocator maps a world position onto the grid.
type TileLocator interface {
	TileOf(p orb.Point) Tile
}

// ScentField stores the decaying trail guards leave behind. Each present
// tile holds a level in (0, maxTrail]; absent tiles read as 0.
type ScentField struct {
	mu       sync.RWMutex
	grid     TileLocator
	maxTrail float64
	levels   map[Tile]float64
}

// NewScentField creates an empty field. maxTrail must be positive.
func NewScentField(grid TileLocator, maxTrail float64) *ScentField {
	if maxTrail <= 0 {
		maxTrail = 1
	}
	return &ScentField{
		grid:     grid,
		maxTrail: maxTrail,
		levels:   make(map[Tile]float64),
	}
}

// MaxTrail returns the saturation level.
func (sf *ScentField) MaxTrail() float64 { return sf.maxTrail }

// Deposit adds amount to the tile under pos.
func (sf *ScentField) Deposit(pos orb.Point, amount float64) {
	sf.DepositTile(sf.grid.TileOf(pos), amount)
}

// DepositTile adds amount to t, clamping to [0, maxTrail]. A result of 0 or
// less removes the entry.
func (sf *ScentField) DepositTile(t Tile, amount float64) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.addLocked(t, amount)
}

func (sf *ScentField) addLocked(t Tile, amount float64) {
	v := sf.levels[t] + amount
	if v <= 0 {
		delete(sf.levels, t)
		return
	}
	if v > sf.maxTrail {
		v = sf.maxTrail
	}
	sf.levels[t] = v
}

// Level returns the stored level at t, or 0.
func (sf *ScentField) Level(t Tile) float64 {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return sf.levels[t]
}

// Weight is the patrol preference for t: 1 on fresh ground, 0 on a saturated
// trail.
func (sf *ScentField) Weight(t Tile) float64 {
	return 1 - sf.Level(t)/sf.maxTrail
}

// Decay subtracts amount from every present tile. Tiles reaching 0 are
// removed.
func (sf *ScentField) Decay(amount float64) {
	if amount <= 0 {
		return
	}
	sf.mu.Lock()
	defer sf.mu.Unlock()
	keys := make([]Tile, 0, len(sf.levels))
	for t := range sf.levels {
		keys = append(keys, t)
	}
	for _, t := range keys {
		sf.addLocked(t, -amount)
	}
}

// Len returns the number of tiles holding scent.
func (sf *ScentField) Len() int {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return len(sf.levels)
}

// Snapshot returns a copy of every present level.
func (sf *ScentField) Snapshot() map[Tile]float64 {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	out := make(map[Tile]float64, len(sf.levels))
	for t, v := range sf.levels {
		out[t] = v
	}
	return out
}
