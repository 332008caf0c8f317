package protocol

const (
	// Payload validation.
	ErrValidation = "E_VALIDATION"

	// Rule/state layer.
	ErrNotFound     = "E_NOT_FOUND"
	ErrNotAvailable = "E_NOT_AVAILABLE"
	ErrActiveOrder  = "E_ACTIVE_ORDER"
	ErrOverCapacity = "E_OVER_CAPACITY"
	ErrDuplicate    = "E_DUPLICATE"
	ErrTerminal     = "E_TERMINAL_STATE"
	ErrExhausted    = "E_EXHAUSTED"
	ErrBlocked      = "E_BLOCKED"

	// Resource layer.
	ErrUnavailable = "E_UNAVAILABLE"

	// Programming-contract violations (asserted in tests, never user-facing).
	ErrEmpty = "E_EMPTY"
)

var knownCodes = map[string]struct{}{
	ErrValidation:   {},
	ErrNotFound:     {},
	ErrNotAvailable: {},
	ErrActiveOrder:  {},
	ErrOverCapacity: {},
	ErrDuplicate:    {},
	ErrTerminal:     {},
	ErrExhausted:    {},
	ErrBlocked:      {},
	ErrUnavailable:  {},
	ErrEmpty:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
