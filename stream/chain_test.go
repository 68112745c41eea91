package stream_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/hostparty/stream"
)

func TestChainForwardsCurrentInner(t *testing.T) {
	outer := stream.NewPusher[stream.Stream[int]]()
	chained := stream.Chain[int](outer)
	defer chained.Stop()

	a := stream.NewPusher[int]()
	a.Push(1)
	a.Push(2)
	outer.Push(a)

	assert.Equal(t, 1, pull[int](t, chained))
	assert.Equal(t, 2, pull[int](t, chained))
}

func TestChainSwitchNeverInterleaves(t *testing.T) {
	outer := stream.NewPusher[stream.Stream[int]]()
	chained := stream.Chain[int](outer)
	defer chained.Stop()

	a := stream.NewPusher[int]()
	a.Push(1)
	a.Push(2)
	outer.Push(a)
	assert.Equal(t, 1, pull[int](t, chained))
	assert.Equal(t, 2, pull[int](t, chained))

	b := stream.NewPusher[int]()
	b.Push(9)
	outer.Push(b)

	// First value after the switch comes from the new source.
	assert.Equal(t, 9, pull[int](t, chained))

	// The replaced source keeps pushing but is no longer forwarded.
	a.Push(3)
	b.Push(10)
	assert.Equal(t, 10, pull[int](t, chained))
	pullBlocks[int](t, chained)
}

func TestChainStopPropagates(t *testing.T) {
	outer := stream.NewPusher[stream.Stream[int]]()
	chained := stream.Chain[int](outer)

	a := stream.NewPusher[int]()
	a.Push(1)
	outer.Push(a)
	assert.Equal(t, 1, pull[int](t, chained))

	chained.Stop()

	_, err := chained.Next(context.Background())
	require.ErrorIs(t, err, stream.ErrStopped)
	_, err = outer.Next(context.Background())
	require.ErrorIs(t, err, stream.ErrStopped)
	_, err = a.Next(context.Background())
	require.ErrorIs(t, err, stream.ErrStopped)
}

func TestChainInnerCompletionKeepsOutputOpen(t *testing.T) {
	outer := stream.NewPusher[stream.Stream[int]]()
	chained := stream.Chain[int](outer)
	defer chained.Stop()

	a := stream.NewPusher[int]()
	a.Push(1)
	a.Finish(42)
	outer.Push(a)

	// The yielded value arrives; the final payload does not.
	assert.Equal(t, 1, pull[int](t, chained))
	pullBlocks[int](t, chained)

	// A later source resumes the output.
	b := stream.NewPusher[int]()
	b.Push(5)
	outer.Push(b)
	assert.Equal(t, 5, pull[int](t, chained))
}

func TestChainMap(t *testing.T) {
	sources := map[string]*stream.Pusher[int]{
		"a": stream.NewPusher[int](),
		"b": stream.NewPusher[int](),
	}
	sources["a"].Push(1)
	sources["b"].Push(9)

	selector := stream.NewPusher[string]()
	chained := stream.ChainMap(selector, func(name string) stream.Stream[int] {
		return sources[name]
	})
	defer chained.Stop()

	selector.Push("a")
	assert.Equal(t, 1, pull[int](t, chained))

	selector.Push("b")
	assert.Equal(t, 9, pull[int](t, chained))

	sources["b"].Push(10)
	assert.Equal(t, 10, pull[int](t, chained))
}

func TestChainConstantPlaceholder(t *testing.T) {
	outer := stream.NewPusher[stream.Stream[string]]()
	chained := stream.Chain[string](outer)
	defer chained.Stop()

	// A constant stands in until a real source exists.
	outer.Push(stream.Constant("none"))
	assert.Equal(t, "none", pull[string](t, chained))
	pullBlocks[string](t, chained)

	real := stream.NewPusher[string]()
	real.Push("installed")
	outer.Push(real)
	assert.Equal(t, "installed", pull[string](t, chained))
}
