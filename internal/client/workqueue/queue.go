// Package workqueue runs blocking work off the caller's goroutine with a
// bounded number of jobs in flight. Each submission yields a Future that
// completes exactly once, with either a value or an error.
package workqueue

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

const DefaultWorkers = 4

type Queue struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// New returns a queue running at most workers jobs at once. Non-positive
// values fall back to DefaultWorkers.
func New(workers int) *Queue {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Queue{sem: semaphore.NewWeighted(int64(workers))}
}

// Wait blocks until every submitted job has finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}

type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func (f *Future[T]) complete(v T, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await returns the job's result, or ctx.Err() if ctx ends first. The job
// keeps running when Await gives up.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit schedules fn and returns immediately. fn sees ctx; if ctx is
// cancelled before a slot frees up, fn never runs and the future fails with
// the context error. A panic in fn becomes the future's error.
func Submit[T any](q *Queue, ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		var zero T
		if err := q.sem.Acquire(ctx, 1); err != nil {
			f.complete(zero, err)
			return
		}
		defer q.sem.Release(1)

		v, err := run(ctx, fn)
		f.complete(v, err)
	}()
	return f
}

func run[T any](ctx context.Context, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(ctx)
}
