package batch

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Map:
// - Results keep input order regardless of completion order
// - Concurrency never exceeds the worker limit
// - Empty input returns an empty result without calling fn
// - An error from fn is returned
// - A cancelled context is reported
// - Workers(0) resolves to GOMAXPROCS

func TestMap_PreservesOrder(t *testing.T) {
	t.Parallel()

	items := []int{5, 4, 3, 2, 1, 0}
	results, err := Map(context.Background(), items, 3, func(_ context.Context, i int, item int) (int, error) {
		return item * 10, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{50, 40, 30, 20, 10, 0}, results)
}

func TestMap_RespectsWorkerLimit(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	items := make([]int, 50)

	_, err := Map(context.Background(), items, 2, func(_ context.Context, _ int, _ int) (struct{}, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		runtime.Gosched()
		running.Add(-1)
		return struct{}{}, nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestMap_Empty(t *testing.T) {
	t.Parallel()

	called := false
	results, err := Map(context.Background(), []string{}, 4, func(context.Context, int, string) (string, error) {
		called = true
		return "", nil
	})

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, called)
}

func TestMap_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := Map(context.Background(), []int{1, 2, 3}, 1, func(_ context.Context, _ int, item int) (int, error) {
		if item == 2 {
			return 0, boom
		}
		return item, nil
	})

	assert.ErrorIs(t, err, boom)
}

func TestMap_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Map(ctx, []int{1, 2, 3}, 2, func(_ context.Context, _ int, item int) (int, error) {
		return item, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, runtime.GOMAXPROCS(0), Workers(0))
	assert.Equal(t, runtime.GOMAXPROCS(0), Workers(-3))
	assert.Equal(t, 7, Workers(7))
}
