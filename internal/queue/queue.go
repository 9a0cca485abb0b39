package queue

import (
	"container/heap"
	"errors"
)

// Queue is a worklist that pops the element with the lowest priority first.
// An element that is already queued is not queued again.
type Queue[E comparable] struct {
	h prioHeap[E]
	// Queued elements
	queued map[E]bool
}

// New returns an empty queue ordered by prio.
func New[E comparable](prio func(E) int) *Queue[E] {
	return &Queue[E]{h: prioHeap[E]{prio: prio}, queued: make(map[E]bool)}
}

// Push adds e unless it is already queued. It reports whether e was added.
func (q *Queue[E]) Push(e E) bool {
	if q.queued[e] {
		return false
	}
	q.queued[e] = true
	heap.Push(&q.h, e)
	return true
}

func (q *Queue[E]) Empty() bool {
	return q.h.Len() == 0
}

func (q *Queue[E]) Len() int {
	return q.h.Len()
}

var ErrEmpty = errors.New("Queue is empty")

func (q *Queue[E]) Pop() E {
	if q.Empty() {
		panic(ErrEmpty)
	}

	e := heap.Pop(&q.h).(E)
	delete(q.queued, e)
	return e
}

type prioHeap[E any] struct {
	elements []E
	prio     func(E) int
}

func (h prioHeap[E]) Len() int           { return len(h.elements) }
func (h prioHeap[E]) Less(i, j int) bool { return h.prio(h.elements[i]) < h.prio(h.elements[j]) }
func (h prioHeap[E]) Swap(i, j int)      { h.elements[i], h.elements[j] = h.elements[j], h.elements[i] }

func (h *prioHeap[E]) Push(x any) { h.elements = append(h.elements, x.(E)) }

func (h *prioHeap[E]) Pop() any {
	n := len(h.elements)
	e := h.elements[n-1]
	h.elements = h.elements[:n-1]
	return e
}
