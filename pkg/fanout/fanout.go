// Package fanout runs independent units of work concurrently and joins all of
// them, keeping every partial success next to the failures.
package fanout

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

type Task[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// All starts every task in its own goroutine and waits until all of them settle.
// Results are returned in task order, not in completion order.
// A panicking task is reported as a failed result.
func All[T any](ctx context.Context, tasks ...Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("task %d panicked: %v", i, r)
				}
			}()
			results[i].Value, results[i].Err = task(ctx)
		}()
	}
	wg.Wait()

	return results
}

// Errors combines all failures, nil if every task succeeded.
func Errors[T any](results []Result[T]) error {
	var err error
	for _, r := range results {
		err = multierr.Append(err, r.Err)
	}
	return err
}

// FirstError returns the failure of the lowest indexed failed task.
func FirstError[T any](results []Result[T]) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
