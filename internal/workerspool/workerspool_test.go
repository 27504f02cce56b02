// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package workerspool

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_WaitToStart(t *testing.T) {
	pool := NewWithParallelism(2)
	var running, maxRunning atomic.Int32
	done := make(chan struct{})
	const numTasks = 10
	var finished atomic.Int32
	for range numTasks {
		pool.WaitToStart(func() {
			current := running.Add(1)
			for {
				seen := maxRunning.Load()
				if current <= seen || maxRunning.CompareAndSwap(seen, current) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
			if finished.Add(1) == numTasks {
				close(done)
			}
		})
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout before all tasks were executed.")
	}
	assert.LessOrEqual(t, maxRunning.Load(), int32(2))

	// No parallelism: runs inline.
	pool = NewWithParallelism(0)
	assert.False(t, pool.IsEnabled())
	var count int
	pool.WaitToStart(func() { count++ })
	assert.Equal(t, 1, count)
}

func TestPool_Parallelism(t *testing.T) {
	pool := NewWithParallelism(3)
	assert.True(t, pool.IsEnabled())
	assert.False(t, pool.IsUnlimited())
	assert.Equal(t, 3, pool.MaxParallelism())

	pool = NewWithParallelism(-1)
	assert.True(t, pool.IsEnabled())
	assert.True(t, pool.IsUnlimited())
}

func TestPool_ForEach(t *testing.T) {
	for _, parallelism := range []int{0, 1, 3, -1} {
		pool := NewWithParallelism(parallelism)
		const n = 17
		var visited [n]atomic.Int32
		err := pool.ForEach(context.Background(), n, func(ii int) error {
			visited[ii].Add(1)
			return nil
		})
		require.NoError(t, err)
		for ii := range visited {
			assert.Equalf(t, int32(1), visited[ii].Load(), "parallelism=%d, item %d", parallelism, ii)
		}
	}

	// Empty range.
	require.NoError(t, NewWithParallelism(runtime.NumCPU()).ForEach(context.Background(), 0, func(int) error { return errors.New("never") }))
}

func TestPool_ForEachError(t *testing.T) {
	pool := NewWithParallelism(4)
	errBoom := errors.New("boom")
	err := pool.ForEach(context.Background(), 100, func(ii int) error {
		if ii == 42 {
			return errBoom
		}
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
}

func TestPool_ForEachCancelled(t *testing.T) {
	pool := NewWithParallelism(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	err := pool.ForEach(ctx, 10, func(int) error {
		calls.Add(1)
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(0), calls.Load())
}
