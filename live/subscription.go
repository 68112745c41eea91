package live

import (
	"context"
	"sync"

	"github.com/delaneyj/hostparty/stream"
)

// subscription implements stream.Stream on top of a waiter-set container.
// The first pull registers a waiter and yields the current value
// immediately; each later pull waits for a wakeup, re-registers, and yields
// whatever the value is by then. Writes between two pulls conflate.
type subscription[T any] struct {
	register   func(ch chan struct{})
	deregister func(ch chan struct{})
	read       func() T

	mu      sync.Mutex
	wake    chan struct{}
	started bool
	stopped bool
	stop    chan struct{}
}

func newSubscription[T any](register, deregister func(chan struct{}), read func() T) *subscription[T] {
	return &subscription[T]{
		register:   register,
		deregister: deregister,
		read:       read,
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}
}

func (s *subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return zero, stream.ErrStopped
	}
	if !s.started {
		s.started = true
		s.register(s.wake)
		v := s.read()
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	select {
	case <-s.wake:
	case <-s.stop:
		return zero, stream.ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return zero, stream.ErrStopped
	}
	// Re-register before reading: a write landing between the read and
	// the next pull fills the wake buffer instead of being missed.
	s.register(s.wake)
	v := s.read()
	s.mu.Unlock()
	return v, nil
}

func (s *subscription[T]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stop)
	s.deregister(s.wake)
}
