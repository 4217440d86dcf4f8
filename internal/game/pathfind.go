package game

import (
	"container/heap"
	"errors"
	"fmt"
)

// ErrNoPath is returned when the target cannot be reached from the start.
var ErrNoPath = errors.New("no path")

// Walkable answers tile walkability queries.
type Walkable interface {
	IsBlocked(t Tile) bool
}

// Pathfinder runs a best-first search over a tile grid. The score of a tile
// is its Manhattan distance to the target plus its distance to the start, so
// every tile inside the start/target bounding box ties at the minimum and the
// search walks greedily toward the target.
type Pathfinder struct {
	grid Walkable
}

// NewPathfinder creates a pathfinder bound to grid.
func NewPathfinder(grid Walkable) *Pathfinder {
	return &Pathfinder{grid: grid}
}

// --- open list ---

type pathNode struct {
	tile      Tile
	score     int
	secondary int // distance to target
	seq       int // insertion order
	parent    *pathNode
	closed    bool
	index     int // heap index
}

type openList []*pathNode

func (ol openList) Len() int { return len(ol) }

func (ol openList) Less(i, j int) bool {
	a, b := ol[i], ol[j]
	if a.score != b.score {
		return a.score < b.score
	}
	if a.secondary != b.secondary {
		return a.secondary < b.secondary
	}
	return a.seq < b.seq
}

func (ol openList) Swap(i, j int) {
	ol[i], ol[j] = ol[j], ol[i]
	ol[i].index = i
	ol[j].index = j
}

func (ol *openList) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*ol)
	*ol = append(*ol, n)
}

func (ol *openList) Pop() any {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*ol = old[:len(old)-1]
	return n
}

// FindPath returns the tiles to walk from start to target in order. The start
// tile is excluded and the last element is target. The path is empty when
// start == target.
func (pf *Pathfinder) FindPath(start, target Tile) ([]Tile, error) {
	path, ok := pf.search(start, target, nil)
	if !ok {
		return nil, fmt.Errorf("%s -> %s: %w", start, target, ErrNoPath)
	}
	return path, nil
}

// FindPathAvoiding is FindPath with blocked treated as a wall. If that makes
// the target unreachable the search is retried once without the restriction.
func (pf *Pathfinder) FindPathAvoiding(start, target, blocked Tile) ([]Tile, error) {
	if path, ok := pf.search(start, target, &blocked); ok {
		return path, nil
	}
	path, ok := pf.search(start, target, nil)
	if !ok {
		return nil, fmt.Errorf("%s -> %s avoiding %s: %w", start, target, blocked, ErrNoPath)
	}
	return path, nil
}

func (pf *Pathfinder) search(start, target Tile, blocked *Tile) ([]Tile, bool) {
	if start == target {
		return []Tile{}, true
	}

	seq := 0
	newNode := func(t Tile, parent *pathNode) *pathNode {
		n := &pathNode{
			tile:      t,
			score:     Manhattan(t, target) + Manhattan(t, start),
			secondary: Manhattan(t, target),
			seq:       seq,
			parent:    parent,
		}
		seq++
		return n
	}

	nodes := make(map[Tile]*pathNode)
	root := newNode(start, nil)
	nodes[start] = root
	ol := &openList{root}
	heap.Init(ol)

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.tile == target {
			return reconstruct(cur, start), true
		}
		cur.closed = true

		for _, d := range Directions {
			nt := cur.tile.Step(d)
			if pf.grid.IsBlocked(nt) {
				continue
			}
			if blocked != nil && nt == *blocked {
				continue
			}
			prev, seen := nodes[nt]
			if !seen {
				n := newNode(nt, cur)
				nodes[nt] = n
				heap.Push(ol, n)
				continue
			}
			if prev.closed {
				continue
			}
			score := Manhattan(nt, target) + Manhattan(nt, start)
			if score < prev.score {
				prev.score = score
				prev.parent = cur
				heap.Fix(ol, prev.index)
			}
		}
	}
	return nil, false
}

// reconstruct follows parents back to start and reverses the walk. A repeated
// tile ends the walk early.
func reconstruct(end *pathNode, start Tile) []Tile {
	var rev []Tile
	seen := make(map[Tile]bool)
	for n := end; n != nil && n.tile != start; n = n.parent {
		if seen[n.tile] {
			break
		}
		seen[n.tile] = true
		rev = append(rev, n.tile)
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
