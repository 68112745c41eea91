package stream

import (
	"context"
	"sync"
)

// Pusher is a manually driven stream: any call site can Push values into it
// or Finish it with a final payload. Values queue unboundedly in FIFO order
// until pulled. Chain uses a Pusher as its output; tests use it as a finite
// source.
type Pusher[T any] struct {
	mu        sync.Mutex
	queue     []T
	notify    chan struct{}
	finished  bool
	final     T
	finalSent bool
	stopped   bool
}

func NewPusher[T any]() *Pusher[T] {
	return &Pusher[T]{notify: make(chan struct{}, 1)}
}

// Push queues a value. Pushes after Finish or Stop are dropped.
func (p *Pusher[T]) Push(v T) {
	p.mu.Lock()
	if p.stopped || p.finished {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, v)
	p.mu.Unlock()
	p.signal()
}

// Finish marks the stream complete with a final payload. Queued values are
// still delivered first; then Next returns (final, ErrDone).
func (p *Pusher[T]) Finish(final T) {
	p.mu.Lock()
	if p.stopped || p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	p.final = final
	p.mu.Unlock()
	p.signal()
}

func (p *Pusher[T]) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Pusher[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		p.mu.Lock()
		switch {
		case p.stopped:
			p.mu.Unlock()
			return zero, ErrStopped
		case len(p.queue) > 0:
			v := p.queue[0]
			p.queue = p.queue[1:]
			p.mu.Unlock()
			return v, nil
		case p.finished:
			if !p.finalSent {
				p.finalSent = true
				v := p.final
				p.mu.Unlock()
				return v, ErrDone
			}
			p.mu.Unlock()
			return zero, ErrDone
		}
		p.mu.Unlock()

		select {
		case <-p.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

func (p *Pusher[T]) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.queue = nil
	p.mu.Unlock()
	p.signal()
}
