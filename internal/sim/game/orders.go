package game

import (
	"fmt"
	"time"

	"tigercity/internal/protocol"
	"tigercity/internal/sim/pqueue"
)

// Stale fixture payloads routinely carry deadlines that are already in the
// past. LoadOrders rebases those so a fresh batch always has a spread of live
// deadlines. This is load-time policy for compatibility with the upstream
// fixtures, not a general deadline rule: it silently alters supplied data.
const (
	rebaseBaseOffset = 120 * time.Second
	rebaseStagger    = 30 * time.Second
)

// OrderManager is the single source of truth for all orders and for which
// orders are currently offerable.
type OrderManager struct {
	queue  *pqueue.Queue[*Order]
	orders map[string]*Order
}

func NewOrderManager() *OrderManager {
	return &OrderManager{
		queue:  pqueue.New[*Order](),
		orders: map[string]*Order{},
	}
}

// LoadOrders replaces all order state from a jobs payload. now anchors the
// deadline rebasing.
func (m *OrderManager) LoadOrders(payloads []protocol.OrderPayload, now time.Time) error {
	orders := make(map[string]*Order, len(payloads))
	for i, p := range payloads {
		if p.ID == "" {
			return fmt.Errorf("order %d: missing id", i)
		}
		if _, dup := orders[p.ID]; dup {
			return fmt.Errorf("order %q: duplicate id", p.ID)
		}
		if p.Weight <= 0 {
			return fmt.Errorf("order %q: weight must be positive, got %v", p.ID, p.Weight)
		}
		deadline, err := time.Parse(time.RFC3339, p.Deadline)
		if err != nil {
			return fmt.Errorf("order %q: bad deadline: %w", p.ID, err)
		}
		if !deadline.After(now) {
			deadline = now.Add(rebaseBaseOffset + time.Duration(i)*rebaseStagger)
		}
		orders[p.ID] = &Order{
			ID:          p.ID,
			Pickup:      Coord{X: p.Pickup[0], Y: p.Pickup[1]},
			Dropoff:     Coord{X: p.Dropoff[0], Y: p.Dropoff[1]},
			Payout:      p.Payout,
			Deadline:    deadline,
			Weight:      p.Weight,
			Priority:    p.Priority,
			ReleaseTime: p.ReleaseTime,
			State:       StateAvailable,
		}
	}

	m.orders = orders
	m.queue = pqueue.New[*Order]()
	return nil
}

// UpdateAvailable pushes every released AVAILABLE order into the priority
// queue. Idempotent: orders already queued are skipped.
func (m *OrderManager) UpdateAvailable(simTime float64) {
	queued := m.queue.IDs()
	for _, o := range m.sortedAll() {
		if !o.IsAvailable(simTime) {
			continue
		}
		if _, ok := queued[o.ID]; ok {
			continue
		}
		m.queue.Push(o.ID, o, o.Priority)
	}
}

// Accept reserves an order for the player. At most one order system-wide may
// be ACCEPTED or PICKED_UP; a second accept is refused outright.
//
// The returned order is still AVAILABLE: the accept is two-phase, and the
// inventory add is what commits the ACCEPTED state. A failed add can then
// cleanly re-enqueue the untouched order.
func (m *OrderManager) Accept(id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if active := m.ActiveOrder(); active != nil {
		return nil, fmt.Errorf("%w: %s", ErrActiveOrderExists, active.ID)
	}
	if o.State != StateAvailable {
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderNotAvailable, id, o.State)
	}
	m.queue.RemoveByID(id)
	return o, nil
}

// Reenqueue reverses a reservation made by Accept after a failed inventory
// add: the order goes back to AVAILABLE and rejoins the queue.
func (m *OrderManager) Reenqueue(o *Order) {
	o.State = StateAvailable
	m.queue.Push(o.ID, o, o.Priority)
}

// Pickup stamps the pickup time. Valid only from ACCEPTED.
func (m *OrderManager) Pickup(id string, now time.Time) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if o.State != StateAccepted {
		return fmt.Errorf("pickup %s: %w (state %s)", id, ErrOrderNotAvailable, o.State)
	}
	o.State = StatePickedUp
	t := now
	o.PickupTime = &t
	return nil
}

// Deliver completes an order. Direct delivery from ACCEPTED, without a pickup
// stamp, is permitted.
func (m *OrderManager) Deliver(id string, now time.Time) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if o.State != StateAccepted && o.State != StatePickedUp {
		return nil, fmt.Errorf("deliver %s: %w (state %s)", id, ErrOrderNotAvailable, o.State)
	}
	o.State = StateDelivered
	t := now
	o.DeliveryTime = &t
	return o, nil
}

// Cancel moves an active order to CANCELLED. It is not re-enqueued.
func (m *OrderManager) Cancel(id string) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if o.State != StateAccepted && o.State != StatePickedUp {
		if o.State.Terminal() {
			return fmt.Errorf("cancel %s: %w", id, ErrTerminalState)
		}
		return fmt.Errorf("cancel %s: %w (state %s)", id, ErrOrderNotAvailable, o.State)
	}
	o.State = StateCancelled
	return nil
}

// UpdateExpired transitions every live order past its deadline to EXPIRED and
// returns the just-expired batch. The caller owns the follow-up: reputation
// penalty and inventory cleanup.
func (m *OrderManager) UpdateExpired(now time.Time) []*Order {
	var batch []*Order
	for _, o := range m.sortedAll() {
		if o.State.Terminal() {
			continue
		}
		if !o.IsExpired(now) {
			continue
		}
		o.State = StateExpired
		m.queue.RemoveByID(o.ID)
		batch = append(batch, o)
	}
	return batch
}

func (m *OrderManager) Get(id string) (*Order, bool) {
	o, ok := m.orders[id]
	return o, ok
}

// ActiveOrder returns the single ACCEPTED or PICKED_UP order, if any.
func (m *OrderManager) ActiveOrder() *Order {
	for _, o := range m.orders {
		if o.State == StateAccepted || o.State == StatePickedUp {
			return o
		}
	}
	return nil
}

// AvailableSorted returns the offerable orders in the requested presentation
// order. Priority mode is the queue's own order; the others re-sort a copy.
func (m *OrderManager) AvailableSorted(mode SortMode) []*Order {
	list := m.queue.ToList()
	avail := list[:0]
	for _, o := range list {
		if o.State == StateAvailable {
			avail = append(avail, o)
		}
	}
	if mode == SortByPriority {
		return avail
	}
	return sortedOrders(avail, mode)
}

// Statistics are computed fresh on every call so they always reflect current
// truth. Everything derives from the live state table; undo can rewind any
// non-terminal transition, so nothing here may be cached across calls.
type Statistics struct {
	Total     int
	Available int
	Completed int
	Expired   int
	Cancelled int
	ByState   map[OrderState]int
}

func (m *OrderManager) Statistics() Statistics {
	st := Statistics{
		Total:     len(m.orders),
		Available: m.queue.Len(),
		ByState:   map[OrderState]int{},
	}
	for _, o := range m.orders {
		st.ByState[o.State]++
	}
	st.Completed = st.ByState[StateDelivered]
	st.Expired = st.ByState[StateExpired]
	st.Cancelled = st.ByState[StateCancelled]
	return st
}

// replaceAll swaps in a fully formed order table, keeping the states the
// caller set. The queue is rebuilt empty; UpdateAvailable re-offers whatever
// the states allow.
func (m *OrderManager) replaceAll(orders map[string]*Order) {
	m.queue = pqueue.New[*Order]()
	m.orders = orders
}

// sortedAll iterates the table in a stable order so per-tick scans stay
// deterministic across runs.
func (m *OrderManager) sortedAll() []*Order {
	out := make([]*Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sortByID(out)
	return out
}
