package game

import (
	"fmt"
	"sort"
)

// SortMode selects the presentation ordering for order lists.
type SortMode string

const (
	SortByPriority SortMode = "priority"
	SortByDeadline SortMode = "deadline"
	SortByPayout   SortMode = "payout"
)

// Next cycles priority -> deadline -> payout -> priority.
func (m SortMode) Next() SortMode {
	switch m {
	case SortByPriority:
		return SortByDeadline
	case SortByDeadline:
		return SortByPayout
	default:
		return SortByPriority
	}
}

// ParseSortMode validates an externally supplied mode name.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(s); m {
	case SortByPriority, SortByDeadline, SortByPayout:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q", s)
	}
}

func sortByID(orders []*Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
}

// sortedOrders returns a stably sorted copy; the input slice is not touched.
// Stability matters so equal keys keep their original relative order.
func sortedOrders(in []*Order, mode SortMode) []*Order {
	out := make([]*Order, len(in))
	copy(out, in)
	switch mode {
	case SortByDeadline:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	case SortByPayout:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Payout > out[j].Payout })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	}
	return out
}
