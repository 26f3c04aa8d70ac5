package track

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PropagateFunc returns the sub-satellite point at a UTC instant. It is
// injected so the sampling pipeline can be tested with deterministic stubs
// instead of a real orbit model.
type PropagateFunc func(t time.Time) (GroundPoint, error)

// Sample evaluates the propagation function once per instant, in order, and
// returns the parallel coordinate sequence. The instant list must be
// non-empty and strictly increasing. Any propagation failure aborts the whole
// run; partial results are never returned.
func Sample(propagate PropagateFunc, instants []time.Time) ([]GroundPoint, error) {
	if err := validateInstants(instants); err != nil {
		return nil, err
	}

	points := make([]GroundPoint, len(instants))
	for i, t := range instants {
		gp, err := propagate(t)
		if err != nil {
			return nil, sampleError(i, t, err)
		}
		points[i] = gp
	}
	return points, nil
}

// SampleParallel distributes instants across a fixed worker pool. Each
// propagation is independent given the element set, so order of evaluation
// does not matter; results are written back by index and therefore come out
// in original time order. A failure in any one sample fails the whole call.
//
// workers <= 1 degenerates to the sequential Sample.
func SampleParallel(ctx context.Context, propagate PropagateFunc, instants []time.Time, workers int) ([]GroundPoint, error) {
	if err := validateInstants(instants); err != nil {
		return nil, err
	}
	if workers <= 1 || len(instants) == 1 {
		return Sample(propagate, instants)
	}
	if workers > len(instants) {
		workers = len(instants)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	points := make([]GroundPoint, len(instants))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				gp, err := propagate(instants[i])
				if err != nil {
					errOnce.Do(func() {
						firstErr = sampleError(i, instants[i], err)
						cancel()
					})
					return
				}
				points[i] = gp
			}
		}()
	}

feed:
	for i := range instants {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

func validateInstants(instants []time.Time) error {
	if len(instants) == 0 {
		return fmt.Errorf("%w: instant list is empty", ErrInvalidInput)
	}
	for i := 1; i < len(instants); i++ {
		if !instants[i].After(instants[i-1]) {
			return fmt.Errorf("%w: instants not strictly increasing at index %d", ErrInvalidInput, i)
		}
	}
	return nil
}

func sampleError(i int, t time.Time, err error) error {
	return fmt.Errorf("%w: sample %d at %s: %w", ErrPropagation, i, t.UTC().Format(time.RFC3339), err)
}
