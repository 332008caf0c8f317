package protocol

// Command types accepted over the observer socket.
const (
	CmdMove      = "MOVE"
	CmdAccept    = "ACCEPT"
	CmdPickup    = "PICKUP"
	CmdDeliver   = "DELIVER"
	CmdCancel    = "CANCEL"
	CmdUndo      = "UNDO"
	CmdSort      = "SORT"
	CmdSave      = "SAVE"
	CmdNextOrder = "NEXT_ORDER"
	CmdPrevOrder = "PREV_ORDER"
)

// Command is one client action. Fields beyond Type are read per command:
// MOVE uses dx/dy, ACCEPT uses order_id, SORT uses mode.
type Command struct {
	Type    string `json:"type"`
	DX      int    `json:"dx,omitempty"`
	DY      int    `json:"dy,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Mode    string `json:"mode,omitempty"`
}
