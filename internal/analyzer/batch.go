package analyzer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome pairs one mapped value with the error its item produced.
type Outcome[R any] struct {
	Value R
	Err   error
}

// ProcessBatch maps fn over items in chunks of batchSize. Every item of a
// chunk runs concurrently and the whole chunk finishes before the next starts.
// Outcomes keep input order. Once ctx is done no further chunk starts and
// the remaining outcomes carry ctx.Err().
func ProcessBatch[T, R any](ctx context.Context, items []T, batchSize int, fn func(context.Context, T) (R, error)) []Outcome[R] {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	out := make([]Outcome[R], len(items))
	for start := 0; start < len(items); start += batchSize {
		if err := ctx.Err(); err != nil {
			for i := start; i < len(items); i++ {
				out[i].Err = err
			}
			break
		}
		end := min(start+batchSize, len(items))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						out[i].Err = fmt.Errorf("panic: %v", r)
					}
				}()
				v, ferr := fn(ctx, items[i])
				out[i] = Outcome[R]{Value: v, Err: ferr}
				return nil
			})
		}
		_ = g.Wait()
	}
	return out
}
