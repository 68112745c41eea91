package stream_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/hostparty/stream"
)

func pull[T any](t *testing.T, s stream.Stream[T]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := s.Next(ctx)
	require.NoError(t, err)
	return v
}

func pullBlocks[T any](t *testing.T, s stream.Stream[T]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPusherOrder(t *testing.T) {
	p := stream.NewPusher[int]()
	p.Push(1)
	p.Push(2)
	p.Push(3)

	assert.Equal(t, 1, pull[int](t, p))
	assert.Equal(t, 2, pull[int](t, p))
	assert.Equal(t, 3, pull[int](t, p))
	pullBlocks[int](t, p)
}

func TestPusherFinish(t *testing.T) {
	p := stream.NewPusher[int]()
	p.Push(1)
	p.Finish(99)
	p.Push(2) // dropped after finish

	assert.Equal(t, 1, pull[int](t, p))

	v, err := p.Next(context.Background())
	require.ErrorIs(t, err, stream.ErrDone)
	assert.Equal(t, 99, v)

	v, err = p.Next(context.Background())
	require.ErrorIs(t, err, stream.ErrDone)
	assert.Zero(t, v)
}

func TestPusherStop(t *testing.T) {
	p := stream.NewPusher[int]()
	p.Push(1)
	p.Stop()

	_, err := p.Next(context.Background())
	require.ErrorIs(t, err, stream.ErrStopped)
}

func TestConstant(t *testing.T) {
	c := stream.Constant("hello")
	assert.Equal(t, "hello", pull[string](t, c))
	pullBlocks[string](t, c)

	c.Stop()
	_, err := c.Next(context.Background())
	require.ErrorIs(t, err, stream.ErrStopped)
}

func TestMapValues(t *testing.T) {
	p := stream.NewPusher[int]()
	m := stream.Map[int, string](p, strconv.Itoa, nil)

	p.Push(7)
	p.Push(8)
	assert.Equal(t, "7", pull[string](t, m))
	assert.Equal(t, "8", pull[string](t, m))
}

func TestMapFinalResult(t *testing.T) {
	p := stream.NewPusher[int]()
	m := stream.Map[int, string](p, strconv.Itoa, func(v int) string {
		return "final:" + strconv.Itoa(v)
	})

	p.Push(1)
	p.Finish(2)

	assert.Equal(t, "1", pull[string](t, m))
	v, err := m.Next(context.Background())
	require.ErrorIs(t, err, stream.ErrDone)
	assert.Equal(t, "final:2", v)
}

func TestMapStopPropagates(t *testing.T) {
	p := stream.NewPusher[int]()
	m := stream.Map[int, int](p, func(v int) int { return v * 2 }, nil)
	m.Stop()

	_, err := p.Next(context.Background())
	require.ErrorIs(t, err, stream.ErrStopped)
}
