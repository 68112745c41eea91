package stream

import (
	"context"
	"errors"
	"sync"
)

// Constant returns a stream that yields v once and then suspends forever.
// It stands in for a real source that does not exist yet, typically as the
// initial inner stream of a Chain.
func Constant[T any](v T) Stream[T] {
	return &constant[T]{value: v, stop: make(chan struct{})}
}

type constant[T any] struct {
	mu      sync.Mutex
	value   T
	yielded bool
	stopped bool
	stop    chan struct{}
}

func (c *constant[T]) Next(ctx context.Context) (T, error) {
	var zero T
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return zero, ErrStopped
	}
	if !c.yielded {
		c.yielded = true
		v := c.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	select {
	case <-c.stop:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *constant[T]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stop)
}

// Map transforms each value of src through fn. When src completes naturally,
// the final payload goes through finalFn instead; a nil finalFn falls back
// to fn. Stopping the mapped stream stops src.
func Map[T, U any](src Stream[T], fn func(T) U, finalFn func(T) U) Stream[U] {
	return &mapped[T, U]{src: src, fn: fn, finalFn: finalFn}
}

type mapped[T, U any] struct {
	src     Stream[T]
	fn      func(T) U
	finalFn func(T) U
}

func (m *mapped[T, U]) Next(ctx context.Context) (U, error) {
	v, err := m.src.Next(ctx)
	switch {
	case err == nil:
		return m.fn(v), nil
	case errors.Is(err, ErrDone):
		final := m.finalFn
		if final == nil {
			final = m.fn
		}
		return final(v), err
	default:
		var zero U
		return zero, err
	}
}

func (m *mapped[T, U]) Stop() {
	m.src.Stop()
}
