package game

import "fmt"

// MessageKind categorises guard coordination traffic.
type MessageKind uint8

const (
	MsgResetToPatrol MessageKind = iota
	MsgTargetSpottedWithDirection
	MsgTargetSpotted
)

func (k MessageKind) String() string {
	switch k {
	case MsgResetToPatrol:
		return "reset"
	case MsgTargetSpottedWithDirection:
		return "spotted_dir"
	case MsgTargetSpotted:
		return "spotted"
	default:
		return "unknown"
	}
}

// Message is one coordination packet from a guard to a peer. Target and Dir
// are meaningful only for the spotted kinds.
type Message struct {
	Kind      MessageKind
	Target    Tile
	Dir       Direction
	From      int
	FromLabel string
	Tick      int
}

func (m Message) String() string {
	switch m.Kind {
	case MsgTargetSpottedWithDirection:
		return fmt.Sprintf("%s: target %s, cover %s", m.FromLabel, m.Target, m.Dir)
	case MsgTargetSpotted:
		return fmt.Sprintf("%s: target %s", m.FromLabel, m.Target)
	default:
		return fmt.Sprintf("%s: %s", m.FromLabel, m.Kind)
	}
}

// RadioStats counts coordination traffic.
type RadioStats struct {
	Broadcasts int // spotted broadcasts sent
	Directed   int // messages carrying a direction
	Bare       int // spotted messages without a direction
	Ignored    int // spotted messages dropped by pursuing guards
	Resets     int // reset messages delivered
}

// Coordinator delivers messages between registered guards. Guards are kept in
// registration order, which fixes who gets which search direction.
type Coordinator struct {
	guards   []*Guard
	grid     Walkable
	log      *SimLog
	thoughts *ThoughtLog
	tick     *int
	stats    RadioStats
}

// NewCoordinator creates an empty registry. log and thoughts may be nil.
func NewCoordinator(grid Walkable, log *SimLog, thoughts *ThoughtLog, tick *int) *Coordinator {
	if tick == nil {
		tick = new(int)
	}
	return &Coordinator{grid: grid, log: log, thoughts: thoughts, tick: tick}
}

// Register adds g to the registry.
func (c *Coordinator) Register(g *Guard) {
	c.guards = append(c.guards, g)
}

// Guards returns the registry in order.
func (c *Coordinator) Guards() []*Guard { return c.guards }

// Stats returns the traffic counters.
func (c *Coordinator) Stats() RadioStats { return c.stats }

// BroadcastSpotted tells every other guard the target was seen at target.
// Peers in registry order are handed the directions West, South, East, North
// to cover; a direction whose neighbouring tile is a wall is used up and that
// peer gets the bare sighting instead. Once the directions run out, remaining
// peers get the bare sighting.
func (c *Coordinator) BroadcastSpotted(from *Guard, target Tile) {
	c.stats.Broadcasts++
	tick := *c.tick
	peers := len(c.guards) - 1
	if c.log != nil {
		c.log.Add(tick, from.Label(), "radio", "broadcast",
			fmt.Sprintf("target at %s", target), float64(peers))
	}
	c.thoughts.Add(tick, from.Label(), from.State(), fmt.Sprintf("radio: target at %s", target))

	stack := []Direction{North, East, South, West}
	for _, g := range c.guards {
		if g == from {
			continue
		}
		msg := Message{
			Kind:      MsgTargetSpotted,
			Target:    target,
			From:      from.ID(),
			FromLabel: from.Label(),
			Tick:      tick,
		}
		if n := len(stack); n > 0 {
			d := stack[n-1]
			stack = stack[:n-1]
			if !c.grid.IsBlocked(target.Step(d)) {
				msg.Kind = MsgTargetSpottedWithDirection
				msg.Dir = d
			}
		}
		c.deliver(g, msg)
	}
}

// BroadcastReset sends every other guard back to patrol.
func (c *Coordinator) BroadcastReset(from *Guard) {
	tick := *c.tick
	if c.log != nil {
		c.log.Add(tick, from.Label(), "radio", "reset_all", "back to patrol", 0)
	}
	for _, g := range c.guards {
		if g == from {
			continue
		}
		c.deliver(g, Message{
			Kind:      MsgResetToPatrol,
			From:      from.ID(),
			FromLabel: from.Label(),
			Tick:      tick,
		})
	}
}

func (c *Coordinator) deliver(to *Guard, msg Message) {
	handled := to.HandleMessage(msg)
	switch {
	case !handled:
		c.stats.Ignored++
	case msg.Kind == MsgResetToPatrol:
		c.stats.Resets++
	case msg.Kind == MsgTargetSpottedWithDirection:
		c.stats.Directed++
	default:
		c.stats.Bare++
	}
	if c.log == nil {
		return
	}
	key := msg.Kind.String()
	if !handled {
		key = "ignored"
	}
	c.log.Add(msg.Tick, to.Label(), "radio", key, msg.String(), 0)
}
