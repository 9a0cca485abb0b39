package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue(t *testing.T) {
	q := New(func(x int) int { return x })
	assert.True(t, q.Empty())

	q.Push(1)
	assert.False(t, q.Empty())
	assert.Equal(t, 1, q.Pop())
	assert.True(t, q.Empty())

	q.Push(3)
	q.Push(2)

	assert.Equal(t, 2, q.Pop())
	assert.Equal(t, 3, q.Pop())
	assert.True(t, q.Empty())

	assert.Panics(t, func() { q.Pop() })
}

func TestQueueDeduplicates(t *testing.T) {
	q := New(func(s string) int { return len(s) })
	assert.True(t, q.Push("ccc"))
	assert.True(t, q.Push("a"))
	assert.False(t, q.Push("ccc"))
	assert.Equal(t, 2, q.Len())

	assert.Equal(t, "a", q.Pop())
	assert.Equal(t, "ccc", q.Pop())

	// Popped elements may be queued again.
	assert.True(t, q.Push("a"))
	assert.Equal(t, "a", q.Pop())
}

func TestQueueCustomOrder(t *testing.T) {
	rank := map[string]int{"entry": 0, "loop": 1, "body": 2, "exit": 3}
	q := New(func(s string) int { return rank[s] })
	for _, s := range []string{"exit", "body", "entry", "loop"} {
		q.Push(s)
	}

	var order []string
	for !q.Empty() {
		order = append(order, q.Pop())
	}
	assert.Equal(t, []string{"entry", "loop", "body", "exit"}, order)
}
