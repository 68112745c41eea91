package live_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/hostparty/live"
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

func TestCellGetSet(t *testing.T) {
	c := live.NewCell(1)
	assert.Equal(t, 1, c.Get())
	c.Set(2)
	assert.Equal(t, 2, c.Get())
}

func TestCellSubscribeYieldsCurrentFirst(t *testing.T) {
	c := live.NewCell("initial")
	sub := c.Subscribe()
	defer sub.Stop()

	assert.Equal(t, "initial", pull[string](t, sub))
}

func TestCellConflation(t *testing.T) {
	c := live.NewCell(0)
	sub := c.Subscribe()
	defer sub.Stop()

	assert.Equal(t, 0, pull[int](t, sub))

	// Rapid writes between two pulls collapse to the last one.
	c.Set(1)
	c.Set(2)
	c.Set(3)
	assert.Equal(t, 3, pull[int](t, sub))
	pullBlocks[int](t, sub)
}

func TestCellEqualWriteIsSilent(t *testing.T) {
	c := live.NewCell(7)
	sub := c.Subscribe()
	defer sub.Stop()

	assert.Equal(t, 7, pull[int](t, sub))
	c.Set(7)
	pullBlocks[int](t, sub)

	c.Set(8)
	assert.Equal(t, 8, pull[int](t, sub))
}

func TestCellInterleavedPullsSeeOrderedSubsequence(t *testing.T) {
	c := live.NewCell(0)
	sub := c.Subscribe()
	defer sub.Stop()

	writes := []int{1, 2, 3, 4, 5}
	observed := []int{pull[int](t, sub)}
	for _, v := range writes {
		c.Set(v)
		observed = append(observed, pull[int](t, sub))
	}

	// One pull per write sees every value in order, ending at the last.
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, observed)
}

func TestCellMultipleSubscribers(t *testing.T) {
	c := live.NewCell(0)
	first := c.Subscribe()
	second := c.Subscribe()
	defer first.Stop()
	defer second.Stop()

	assert.Equal(t, 0, pull[int](t, first))
	assert.Equal(t, 0, pull[int](t, second))

	c.Set(1)
	assert.Equal(t, 1, pull[int](t, first))
	assert.Equal(t, 1, pull[int](t, second))
}

func TestCellSubscriptionStop(t *testing.T) {
	c := live.NewCell(0)
	sub := c.Subscribe()
	assert.Equal(t, 0, pull[int](t, sub))

	sub.Stop()
	_, err := sub.Next(context.Background())
	require.ErrorIs(t, err, stream.ErrStopped)

	// A stopped subscription no longer holds a waiter; the cell still
	// serves others.
	other := c.Subscribe()
	defer other.Stop()
	c.Set(5)
	assert.Equal(t, 5, pull[int](t, other))
}

func TestCellRestartableSubscribe(t *testing.T) {
	c := live.NewCell(1)
	sub := c.Subscribe()
	sub.Stop()

	fresh := c.Subscribe()
	defer fresh.Stop()
	assert.Equal(t, 1, pull[int](t, fresh))
}
