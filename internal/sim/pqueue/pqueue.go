// Package pqueue implements the max-priority queue backing the order
// availability list. Ties are broken by insertion order, so two pushes with
// equal priority always pop in FIFO order.
package pqueue

import (
	"container/heap"
	"errors"
)

var ErrEmpty = errors.New("pqueue: pop from empty queue")

type entry[T any] struct {
	id       string
	item     T
	priority int
	seq      uint64
}

type entryHeap[T any] []entry[T]

func (h entryHeap[T]) Len() int { return len(h) }

func (h entryHeap[T]) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap[T]) Push(x any) { *h = append(*h, x.(entry[T])) }

func (h *entryHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Queue is a binary max-heap keyed by priority. Not safe for concurrent use;
// the session loop is the only owner.
type Queue[T any] struct {
	heap entryHeap[T]
	seq  uint64
}

func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push adds an item under the given id. Higher priority pops first.
func (q *Queue[T]) Push(id string, item T, priority int) {
	heap.Push(&q.heap, entry[T]{id: id, item: item, priority: priority, seq: q.seq})
	q.seq++
}

// Pop removes and returns the highest-priority item.
func (q *Queue[T]) Pop() (T, error) {
	var zero T
	if len(q.heap) == 0 {
		return zero, ErrEmpty
	}
	e := heap.Pop(&q.heap).(entry[T])
	return e.item, nil
}

// Peek returns the highest-priority item without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	var zero T
	if len(q.heap) == 0 {
		return zero, false
	}
	return q.heap[0].item, true
}

func (q *Queue[T]) Len() int { return len(q.heap) }

// RemoveByID drops every entry with the given id and restores the heap
// invariant. Linear scan; queue sizes are bounded by the concurrently
// offered job count, so O(n) is fine here.
func (q *Queue[T]) RemoveByID(id string) bool {
	kept := q.heap[:0]
	removed := false
	for _, e := range q.heap {
		if e.id == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if removed {
		q.heap = kept
		heap.Init(&q.heap)
	}
	return removed
}

// ToList returns all items in full priority order without draining the queue.
func (q *Queue[T]) ToList() []T {
	tmp := make(entryHeap[T], len(q.heap))
	copy(tmp, q.heap)
	out := make([]T, 0, len(tmp))
	for tmp.Len() > 0 {
		e := heap.Pop(&tmp).(entry[T])
		out = append(out, e.item)
	}
	return out
}

// IDs returns the set of queued ids. Used to keep availability pushes
// idempotent per tick.
func (q *Queue[T]) IDs() map[string]struct{} {
	out := make(map[string]struct{}, len(q.heap))
	for _, e := range q.heap {
		out[e.id] = struct{}{}
	}
	return out
}
