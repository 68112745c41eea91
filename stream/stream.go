// Package stream provides pull-based, conflating value streams and the
// operators that compose them: mapping a stream through a function, chaining
// a stream of streams into one output, and manually driven pushers.
//
// A stream yields the latest value at each pull. Slow consumers see updates
// conflated down to the most recent value, never a backlog. Subscription
// streams (package live) are infinite; Pusher streams can finish with a
// final payload.
package stream

import (
	"context"
	"errors"
)

// ErrStopped is returned by Next once Stop has been called. Pulling a
// stopped stream is a caller bug and fails fast rather than returning stale
// data.
var ErrStopped = errors.New("stream: next on stopped stream")

// ErrDone signals natural completion of a finite stream. The Next call that
// first returns ErrDone also carries the stream's final payload, following
// the io.Reader convention of a value delivered together with the terminal
// error. Later calls return ErrDone with the zero value.
var ErrDone = errors.New("stream: done")

// Stream is a restartable, lazily pulled sequence of values.
type Stream[T any] interface {
	// Next blocks until a value is available and returns it. It returns
	// ctx.Err() if the context is cancelled while waiting, ErrStopped
	// after Stop, and ErrDone once a finite stream completes.
	Next(ctx context.Context) (T, error)

	// Stop ends the subscription and releases whatever the stream holds
	// upstream. Safe to call more than once.
	Stop()
}
