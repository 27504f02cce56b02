// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package workerspool runs independent tasks on a bounded number of goroutines.
//
// It is used to split the work over the batch dimension (e.g.: the forward pass of each example
// in a batch), never over work items that depend on each other.
package workerspool

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Pool limits the number of tasks running in parallel.
type Pool struct {
	// maxParallelism is a soft target on the limit of parallel work to do.
	maxParallelism int
	mu             sync.Mutex
	cond           sync.Cond // Should be signaled whenever numRunning is decreased.
	numRunning     int
}

// NewWithParallelism returns a new Pool of workers with the given parallelism.
// See MaxParallelism for the meaning of the values.
func NewWithParallelism(maxParallelism int) *Pool {
	w := &Pool{maxParallelism: maxParallelism}
	w.cond = sync.Cond{L: &w.mu}
	return w
}

// IsEnabled returns whether parallelism is enabled (maxParallelism is != 0)
func (w *Pool) IsEnabled() bool {
	return w.maxParallelism != 0
}

// IsUnlimited returns whether parallelism is unlimited (maxParallelism < 0)
func (w *Pool) IsUnlimited() bool {
	return w.maxParallelism < 0
}

// MaxParallelism returns the limit of tasks running in parallel.
// If 0 parallelism is disabled, and tasks run inline.
// If -1 parallelism is unlimited.
func (w *Pool) MaxParallelism() int {
	return w.maxParallelism
}

// lockedIsFull returns whether all available workers are in use.
//
// It must be called with w.mu acquired.
func (w *Pool) lockedIsFull() bool {
	if !w.IsEnabled() {
		return true
	} else if w.IsUnlimited() {
		return false
	}
	return w.numRunning >= w.maxParallelism
}

// WaitToStart waits until there is a worker available to run the task, and starts it in a goroutine.
//
// If parallelism is disabled (maxParallelism is 0), it runs the task inline and returns when it is finished.
func (w *Pool) WaitToStart(task func()) {
	if !w.IsEnabled() {
		task()
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.lockedIsFull() {
		w.cond.Wait()
	}
	w.lockedRunTaskInGoroutine(task)
}

// lockedRunTaskInGoroutine and keep tabs on w.numRunning.
//
// It must be called with w.mu acquired.
func (w *Pool) lockedRunTaskInGoroutine(task func()) {
	w.numRunning++
	go func() {
		defer func() {
			w.mu.Lock()
			w.numRunning--
			w.cond.Signal()
			w.mu.Unlock()
		}()
		task()
	}()
}

// ForEach calls fn(ii) for every ii in [0, n), and waits for all calls to finish.
//
// The range is split in contiguous chunks, one per worker, so fn is called sequentially within a chunk.
// It returns the first error returned by fn, after which the remaining items are skipped.
// If ctx is cancelled, items not yet started are skipped and the context error is returned.
func (w *Pool) ForEach(ctx context.Context, n int, fn func(ii int) error) error {
	if n <= 0 {
		return nil
	}
	numChunks := 1
	if w.IsUnlimited() {
		numChunks = n
	} else if w.IsEnabled() {
		numChunks = min(n, w.MaxParallelism())
	}
	chunkSize := (n + numChunks - 1) / numChunks

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		wg       sync.WaitGroup
		muErr    sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		muErr.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		muErr.Unlock()
	}
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		w.WaitToStart(func() {
			defer wg.Done()
			for ii := start; ii < end; ii++ {
				if ctx.Err() != nil {
					setErr(errors.Wrapf(context.Cause(ctx), "workerspool.ForEach interrupted at item %d of %d", ii, n))
					return
				}
				if err := fn(ii); err != nil {
					setErr(err)
					return
				}
			}
		})
	}
	wg.Wait()
	return firstErr
}
