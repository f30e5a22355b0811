package pool

import (
	"context"
	"sync"
)

// WorkerFunc processes one item.
type WorkerFunc[T any] func(ctx context.Context, item T) error

// Run feeds items to numWorkers goroutines and returns the errors they reported.
// Items not yet handed out when ctx is cancelled are skipped.
func Run[T any](ctx context.Context, items []T, numWorkers int, workerFunc WorkerFunc[T]) []error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	var wg sync.WaitGroup
	taskChan := make(chan T, numWorkers)
	errChan := make(chan error, len(items))

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range taskChan {
				if ctx.Err() != nil {
					return
				}
				if err := workerFunc(ctx, item); err != nil {
					errChan <- err
				}
			}
		}()
	}

OUT:
	for _, item := range items {
		select {
		case taskChan <- item:
		case <-ctx.Done():
			break OUT
		}
	}
	close(taskChan)

	wg.Wait()
	close(errChan)

	var allErrors []error
	for err := range errChan {
		allErrors = append(allErrors, err)
	}
	return allErrors
}

// Map runs fn over items on numWorkers goroutines and returns the results in input order.
// On failure the results of the items that did succeed are still returned.
func Map[T, R any](ctx context.Context, items []T, numWorkers int, fn func(ctx context.Context, item T) (R, error)) ([]R, []error) {
	type indexed struct {
		i    int
		item T
	}
	jobs := make([]indexed, len(items))
	for i, item := range items {
		jobs[i] = indexed{i, item}
	}

	results := make([]R, len(items))
	errs := Run(ctx, jobs, numWorkers, func(ctx context.Context, job indexed) error {
		r, err := fn(ctx, job.item)
		if err != nil {
			return err
		}
		results[job.i] = r
		return nil
	})
	return results, errs
}
