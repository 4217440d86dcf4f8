package game

// DefaultThoughtCapacity is how many decisions the viewer keeps on screen.
const DefaultThoughtCapacity = 60

// ThoughtEntry is a single guard decision.
type ThoughtEntry struct {
	Tick    int
	Label   string // e.g. "G0"
	State   GuardState
	Message string
}

// ThoughtLog is a fixed-size ring buffer of guard decisions.
type ThoughtLog struct {
	entries []ThoughtEntry
	head    int
	count   int
}

// NewThoughtLog creates a thought log holding at most capacity entries.
func NewThoughtLog(capacity int) *ThoughtLog {
	if capacity <= 0 {
		capacity = DefaultThoughtCapacity
	}
	return &ThoughtLog{
		entries: make([]ThoughtEntry, capacity),
	}
}

// Add appends an entry, overwriting the oldest when full.
func (tl *ThoughtLog) Add(tick int, label string, state GuardState, msg string) {
	if tl == nil {
		return
	}
	size := len(tl.entries)
	tl.entries[tl.head] = ThoughtEntry{
		Tick:    tick,
		Label:   label,
		State:   state,
		Message: msg,
	}
	tl.head = (tl.head + 1) % size
	if tl.count < size {
		tl.count++
	}
}

// Len returns the number of stored entries.
func (tl *ThoughtLog) Len() int { return tl.count }

// Recent returns entries in chronological order (oldest first).
func (tl *ThoughtLog) Recent() []ThoughtEntry {
	size := len(tl.entries)
	result := make([]ThoughtEntry, tl.count)
	for i := 0; i < tl.count; i++ {
		idx := (tl.head - tl.count + i + size) % size
		result[i] = tl.entries[idx]
	}
	return result
}
