package game

import "errors"

// State violations are refused before any field is written; callers can rely
// on shared order/inventory state being unchanged when one of these comes
// back.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotAvailable = errors.New("order is not available")
	ErrActiveOrderExists = errors.New("another order is already active")
	ErrOverCapacity      = errors.New("inventory capacity exceeded")
	ErrDuplicateOrder    = errors.New("order already in inventory")
	ErrTerminalState     = errors.New("order is in a terminal state")
	ErrExhausted         = errors.New("player is exhausted")
	ErrBlockedTile       = errors.New("tile is blocked")
	ErrOutOfBounds       = errors.New("position outside the grid")
	ErrNoCurrentOrder    = errors.New("no current order selected")
	ErrSessionOver       = errors.New("session has ended")
)
