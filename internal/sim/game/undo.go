package game

import "time"

// Snapshot is an immutable, fixed-shape capture of the observable session
// state, taken before any player-driven mutation. Restoring one is an exact
// rollback of player fields, sim time, order states and inventory
// membership.
type Snapshot struct {
	PlayerPosition  Coord
	PlayerStamina   float64
	InventoryWeight float64
	TotalEarnings   int
	SimTime         float64
	LastMoveTime    float64

	OrderStates  map[string]OrderState
	InventoryIDs []string

	CapturedAt time.Time
}

const defaultUndoDepth = 20

// UndoHistory is a bounded snapshot stack with ring semantics: pops are LIFO
// but eviction past capacity drops the oldest entry first.
type UndoHistory struct {
	snaps []Snapshot
	max   int
}

func NewUndoHistory(max int) *UndoHistory {
	if max <= 0 {
		max = defaultUndoDepth
	}
	return &UndoHistory{max: max}
}

func (h *UndoHistory) Push(s Snapshot) {
	h.snaps = append(h.snaps, s)
	if len(h.snaps) > h.max {
		h.snaps = h.snaps[1:]
	}
}

func (h *UndoHistory) Pop() (Snapshot, bool) {
	if len(h.snaps) == 0 {
		return Snapshot{}, false
	}
	s := h.snaps[len(h.snaps)-1]
	h.snaps = h.snaps[:len(h.snaps)-1]
	return s, true
}

// Discard drops the most recent snapshot, if any. Used when a saved-ahead
// snapshot turns out to precede a refused action.
func (h *UndoHistory) Discard() {
	if len(h.snaps) > 0 {
		h.snaps = h.snaps[:len(h.snaps)-1]
	}
}

func (h *UndoHistory) Len() int      { return len(h.snaps) }
func (h *UndoHistory) CanUndo() bool { return len(h.snaps) > 0 }
func (h *UndoHistory) Clear()        { h.snaps = nil }
