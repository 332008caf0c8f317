package game

import "container/list"

// Inventory holds references to the orders the player is carrying, in a
// navigable order with a bidirectional cursor. It never copies orders; the
// OrderManager stays the owner.
type Inventory struct {
	orders    *list.List // of *Order
	byID      map[string]*list.Element
	cursor    *list.Element
	maxWeight float64
	curWeight float64
}

func NewInventory(maxWeight float64) *Inventory {
	return &Inventory{
		orders:    list.New(),
		byID:      map[string]*list.Element{},
		maxWeight: maxWeight,
	}
}

func (inv *Inventory) CanAdd(o *Order) bool {
	return inv.curWeight+o.Weight <= inv.maxWeight
}

// Add appends the order and commits the ACCEPTED state; this is where an
// accepted offer becomes durable.
func (inv *Inventory) Add(o *Order) error {
	if !inv.CanAdd(o) {
		return ErrOverCapacity
	}
	if _, dup := inv.byID[o.ID]; dup {
		return ErrDuplicateOrder
	}
	inv.attach(o)
	if o.State != StateAccepted {
		o.State = StateAccepted
	}
	return nil
}

// attach appends without capacity or state checks. Restore paths use it to
// rebuild membership from an id list while leaving restored states alone.
func (inv *Inventory) attach(o *Order) {
	el := inv.orders.PushBack(o)
	inv.byID[o.ID] = el
	inv.curWeight += o.Weight
	if inv.cursor == nil {
		inv.cursor = el
	}
}

// Remove drops the order from both the collection and the index. Returns nil
// if the id is not held. Removing the cursor's order moves the cursor to its
// neighbor.
func (inv *Inventory) Remove(id string) *Order {
	el, ok := inv.byID[id]
	if !ok {
		return nil
	}
	if el == inv.cursor {
		if next := el.Next(); next != nil {
			inv.cursor = next
		} else {
			inv.cursor = el.Prev()
		}
	}
	o := el.Value.(*Order)
	inv.orders.Remove(el)
	delete(inv.byID, id)
	inv.curWeight -= o.Weight
	return o
}

// Next moves the cursor one order forward. No-op at the tail; never wraps.
func (inv *Inventory) Next() *Order {
	if inv.cursor != nil && inv.cursor.Next() != nil {
		inv.cursor = inv.cursor.Next()
		return inv.cursor.Value.(*Order)
	}
	return nil
}

// Prev moves the cursor one order back. No-op at the head; never wraps.
func (inv *Inventory) Prev() *Order {
	if inv.cursor != nil && inv.cursor.Prev() != nil {
		inv.cursor = inv.cursor.Prev()
		return inv.cursor.Value.(*Order)
	}
	return nil
}

func (inv *Inventory) Current() *Order {
	if inv.cursor == nil {
		return nil
	}
	return inv.cursor.Value.(*Order)
}

func (inv *Inventory) ResetCursor() {
	inv.cursor = inv.orders.Front()
}

// Orders returns the held orders in collection order.
func (inv *Inventory) Orders() []*Order {
	out := make([]*Order, 0, inv.orders.Len())
	for el := inv.orders.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Order))
	}
	return out
}

// Sorted returns a presentation ordering over the held orders without
// touching the collection itself.
func (inv *Inventory) Sorted(mode SortMode) []*Order {
	return sortedOrders(inv.Orders(), mode)
}

// Rebuild reconstructs the collection in the given sort order and resets the
// cursor to the head. This is the one place the actual navigation order
// changes.
func (inv *Inventory) Rebuild(mode SortMode) {
	sorted := inv.Sorted(mode)
	inv.orders = list.New()
	inv.byID = map[string]*list.Element{}
	inv.curWeight = 0
	for _, o := range sorted {
		el := inv.orders.PushBack(o)
		inv.byID[o.ID] = el
		inv.curWeight += o.Weight
	}
	inv.ResetCursor()
}

func (inv *Inventory) Contains(id string) bool {
	_, ok := inv.byID[id]
	return ok
}

func (inv *Inventory) Count() int               { return inv.orders.Len() }
func (inv *Inventory) IsEmpty() bool            { return inv.orders.Len() == 0 }
func (inv *Inventory) Weight() float64          { return inv.curWeight }
func (inv *Inventory) MaxWeight() float64       { return inv.maxWeight }
func (inv *Inventory) AvailableWeight() float64 { return inv.maxWeight - inv.curWeight }

// IDs returns the held order ids in collection order.
func (inv *Inventory) IDs() []string {
	out := make([]string, 0, inv.orders.Len())
	for el := inv.orders.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Order).ID)
	}
	return out
}

// Clear empties the inventory without touching order states. Used by undo
// restore and save loading, which rebuild membership from an id list.
func (inv *Inventory) Clear() {
	inv.orders = list.New()
	inv.byID = map[string]*list.Element{}
	inv.cursor = nil
	inv.curWeight = 0
}
