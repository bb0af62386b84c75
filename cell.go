package statehooks

import (
	"sync"
	"sync/atomic"
)

// Cell holds a value that is read synchronously and written through updaters.
// Every write notifies subscribers with the new value.
type Cell[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
	subs    map[uint64]func(T)
	nextSub atomic.Uint64
}

// NewCell creates a cell holding initial
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[uint64]func(T)),
	}
}

// Get returns the current value
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Version increases on every write
func (c *Cell[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Set replaces the value
func (c *Cell[T]) Set(val T) {
	c.Update(func(T) T { return val })
}

// Update applies fn to the current value and stores the result
func (c *Cell[T]) Update(fn func(T) T) T {
	notify := c.Commit(fn)
	return notify()
}

// Commit stores the new value without notifying anyone.
// The returned function notifies subscribers and returns the committed value.
func (c *Cell[T]) Commit(fn func(T) T) func() T {
	c.mu.Lock()
	c.value = fn(c.value)
	c.version++
	val := c.value
	subs := make([]func(T), 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	return func() T {
		for _, s := range subs {
			s(val)
		}
		return val
	}
}

// Subscribe registers fn for future writes and returns the cancel function
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	id := c.nextSub.Add(1)
	c.mu.Lock()
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
