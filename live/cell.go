package live

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/hostparty/stream"
)

// Cell holds one mutable value and wakes its waiters when the value
// actually changes. A Cell lives as long as the service that owns it; there
// is no teardown.
type Cell[T comparable] struct {
	mu      sync.Mutex
	value   T
	waiters mapset.Set[chan struct{}]
}

func NewCell[T comparable](initial T) *Cell[T] {
	return &Cell[T]{
		value:   initial,
		waiters: mapset.NewSet[chan struct{}](),
	}
}

func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the value. Setting an equal value is a no-op; otherwise every
// current waiter is woken exactly once and the waiter set is cleared.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	if c.value == v {
		c.mu.Unlock()
		return
	}
	c.value = v
	woken := c.waiters
	c.waiters = mapset.NewSet[chan struct{}]()
	c.mu.Unlock()

	for ch := range woken.Iter() {
		wake(ch)
	}
}

// Subscribe returns a conflating stream of the cell's value. The first pull
// yields the current value; each later pull blocks until the value changes.
func (c *Cell[T]) Subscribe() stream.Stream[T] {
	return newSubscription(
		func(ch chan struct{}) {
			c.mu.Lock()
			c.waiters.Add(ch)
			c.mu.Unlock()
		},
		func(ch chan struct{}) {
			c.mu.Lock()
			c.waiters.Remove(ch)
			c.mu.Unlock()
		},
		c.Get,
	)
}
