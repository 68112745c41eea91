package stream

import (
	"context"
	"sync"
)

// Chain consumes an outer stream whose values are themselves streams and
// forwards values from whichever inner stream is current. When the outer
// stream produces a new inner stream, the previous one is stopped and fully
// retired before the new one forwards anything: values from the old and new
// source never interleave across a switch.
//
// Stopping the chained stream stops the outer stream and whichever inner
// stream is live. If the outer stream completes, the last inner stream keeps
// forwarding. Forwarded values queue unboundedly, so a slow consumer sees
// every forwarded value in order.
func Chain[T any](outer Stream[Stream[T]]) Stream[T] {
	c := &chained[T]{
		out:   NewPusher[T](),
		outer: outer,
		stop:  make(chan struct{}),
	}
	go c.run()
	return c
}

// ChainMap subscribes to a new inner stream for every value of the outer
// stream: Chain(Map(outer, toInner, nil)). This is the re-pointing
// primitive: a consumer watches one output while the source of truth behind
// it is swapped out.
func ChainMap[T, U any](outer Stream[T], toInner func(T) Stream[U]) Stream[U] {
	return Chain(Map(outer, toInner, nil))
}

type chained[T any] struct {
	out   *Pusher[T]
	outer Stream[Stream[T]]

	stopOnce sync.Once
	stop     chan struct{}

	mu    sync.Mutex
	inner Stream[T] // currently live inner stream, for Stop propagation
}

func (c *chained[T]) Next(ctx context.Context) (T, error) {
	return c.out.Next(ctx)
}

func (c *chained[T]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
		c.outer.Stop()
		c.mu.Lock()
		inner := c.inner
		c.mu.Unlock()
		if inner != nil {
			inner.Stop()
		}
		c.out.Stop()
	})
}

// run drains the outer stream, switching the forwarder to each new inner
// stream as it arrives.
func (c *chained[T]) run() {
	// The chain context ends only when the output is stopped, not when
	// the outer stream runs out: a live inner stream outlasts the outer.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-c.stop
		cancel()
	}()

	var (
		retire  context.CancelFunc
		retired chan struct{}
	)
	for {
		inner, err := c.outer.Next(ctx)
		if err != nil {
			// Outer stopped, cancelled, or done. The current inner
			// keeps forwarding until it ends or the output stops.
			return
		}

		// Retire the previous forwarder completely before the new
		// inner delivers anything.
		if retire != nil {
			retire()
			<-retired
		}
		c.mu.Lock()
		previous := c.inner
		c.inner = inner
		c.mu.Unlock()
		if previous != nil {
			previous.Stop()
		}

		forwardCtx, cancelForward := context.WithCancel(ctx)
		done := make(chan struct{})
		retire, retired = cancelForward, done
		go c.forward(forwardCtx, inner, done)
	}
}

// forward pumps one inner stream into the output until the stream ends or
// its context is cancelled by a switch. Final payloads of inner streams are
// dropped: the chain's output only carries yielded values.
func (c *chained[T]) forward(ctx context.Context, inner Stream[T], done chan struct{}) {
	defer close(done)
	for {
		v, err := inner.Next(ctx)
		if err != nil {
			return
		}
		c.out.Push(v)
	}
}
