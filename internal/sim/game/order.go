package game

import (
	"fmt"
	"time"
)

// Coord is a city grid position.
type Coord struct {
	X int
	Y int
}

// OrderState is the closed set of order lifecycle states. The string form is
// the stable persistence encoding.
type OrderState string

const (
	StateAvailable OrderState = "available"
	StateAccepted  OrderState = "accepted"
	StatePickedUp  OrderState = "picked_up"
	StateDelivered OrderState = "delivered"
	StateExpired   OrderState = "expired"
	StateCancelled OrderState = "cancelled"
)

func ParseOrderState(s string) (OrderState, error) {
	switch OrderState(s) {
	case StateAvailable, StateAccepted, StatePickedUp, StateDelivered, StateExpired, StateCancelled:
		return OrderState(s), nil
	}
	return "", fmt.Errorf("unknown order state %q", s)
}

func (s OrderState) String() string { return string(s) }

// Terminal states are absorbing: no transition ever leaves them.
func (s OrderState) Terminal() bool {
	switch s {
	case StateDelivered, StateExpired, StateCancelled:
		return true
	}
	return false
}

// Deliveries are graded against a fixed per-order allotment; "early" means at
// least 20% of it remains at delivery time.
const orderAllotmentSeconds = 3600.0

// Order is a delivery job. The OrderManager holds the canonical instance per
// id; the queue and inventory only hold references into that table.
type Order struct {
	ID          string
	Pickup      Coord
	Dropoff     Coord
	Payout      int
	Deadline    time.Time
	Weight      float64
	Priority    int
	ReleaseTime float64 // sim seconds before which the order is not offered

	State        OrderState
	PickupTime   *time.Time
	DeliveryTime *time.Time
}

// IsAvailable reports whether the order can be offered at the given sim time.
func (o *Order) IsAvailable(simTime float64) bool {
	return simTime >= o.ReleaseTime && o.State == StateAvailable
}

// IsExpired reports whether the deadline has passed for a live order.
func (o *Order) IsExpired(now time.Time) bool {
	return now.After(o.Deadline) && o.State != StateDelivered && o.State != StateCancelled
}

// Delay returns seconds past the deadline at the given delivery time.
// Negative means delivered before the deadline.
func (o *Order) Delay(deliveredAt time.Time) float64 {
	return deliveredAt.Sub(o.Deadline).Seconds()
}

// IsEarly reports whether at least 20% of the allotted time remained at
// delivery.
func (o *Order) IsEarly(deliveredAt time.Time) bool {
	remaining := o.Deadline.Sub(deliveredAt).Seconds()
	return remaining >= orderAllotmentSeconds*0.2
}
