// Package parallel provides the two execution shapes pugs needs: chunked
// data-parallel loops over rows, and a bounded pool of independent tasks
// that aborts as a whole on the first failure.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes the specified function (fn) in parallel for each range (start, end)
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEach runs fn(ctx, i) for i in [0, tasks) on at most workers goroutines.
// workers <= 1 runs the tasks sequentially on the calling goroutine.
//
// The first error (or recovered panic) cancels the context handed to the
// remaining tasks, tasks not yet started are skipped, and that first error is
// returned once every running task has returned. Tasks never share results
// through ForEach; callers write into slots they own.
func ForEach(ctx context.Context, tasks, workers int, fn func(ctx context.Context, i int) error) error {
	if tasks <= 0 {
		return nil
	}
	if workers > tasks {
		workers = tasks
	}

	if workers <= 1 {
		for i := 0; i < tasks; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "parallel: aborted")
			}
			if err := runTask(ctx, i, fn); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if err := runTask(ctx, i, fn); err != nil {
					fail(err)
				}
			}
		}()
	}

feed:
	for i := 0; i < tasks; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "parallel: aborted")
	}
	return nil
}

func runTask(ctx context.Context, i int, fn func(ctx context.Context, i int) error) error {
	return errors.SafeExecute(fmt.Sprintf("task %d", i), func() error {
		return fn(ctx, i)
	})
}
