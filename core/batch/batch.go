package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// Config controls how work items are grouped and paced.
type Config struct {
	// Size is the maximum number of items executed concurrently in one batch.
	Size int

	// Delay is the cool-down between two consecutive batches.
	// It is not applied after the last batch.
	Delay time.Duration

	// ItemTimeout bounds a single operation. Zero means no per-item deadline.
	ItemTimeout time.Duration

	// Sleep waits between batches. Defaults to a context-aware timer.
	// Tests replace it to observe cool-downs without waiting.
	Sleep func(ctx context.Context, d time.Duration) error

	// Logger receives per-batch progress. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Validate checks that the configuration can drive a batch run.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("batch size must be greater than zero, got %d", c.Size)
	}
	if c.Delay < 0 {
		return fmt.Errorf("batch delay must not be negative, got %s", c.Delay)
	}
	if c.ItemTimeout < 0 {
		return fmt.Errorf("item timeout must not be negative, got %s", c.ItemTimeout)
	}
	return nil
}

// Result is the outcome of one work item.
type Result[R any] struct {
	// Index is the position of the item in the input slice.
	Index int
	// Value holds the operation's return value when Err is nil.
	Value R
	// Err is non-nil when the operation failed. It is always an *ItemError.
	Err error
}

// OK reports whether the item succeeded.
func (r Result[R]) OK() bool {
	return r.Err == nil
}

// ItemError tags a failed operation with the position of its item.
type ItemError struct {
	Index int
	Cause error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Cause)
}

func (e *ItemError) Unwrap() error {
	return e.Cause
}

// Op is the per-item operation executed by Run.
type Op[T, R any] func(ctx context.Context, item T) (R, error)

// Partition splits items into consecutive chunks of at most size elements.
// Chunks share the backing array of items. A non-positive size yields one chunk.
func Partition[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size > len(items) {
		size = len(items)
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// Run executes op for every item, size items at a time, and returns one result
// per item in input order.
//
// All operations of a batch run concurrently and are joined before the next batch
// starts. A failing or panicking operation never cancels its siblings and never
// escapes Run; it is reported as an *ItemError in its result slot. Items are not
// retried. If ctx is cancelled during a cool-down, the remaining items are
// reported as failed with the context error.
func Run[T, R any](ctx context.Context, cfg Config, items []T, op Op[T, R]) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = wait
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	chunks := Partition(items, cfg.Size)
	offset := 0

	for n, chunk := range chunks {
		base := offset
		logger.Debug("Executing batch",
			zap.Int("batch", n+1),
			zap.Int("batches", len(chunks)),
			zap.Int("size", len(chunk)),
		)

		mapper := iter.Mapper[T, Result[R]]{MaxGoroutines: len(chunk)}
		chunkResults := mapper.Map(chunk, func(item *T) Result[R] {
			return execute(ctx, cfg.ItemTimeout, *item, op)
		})

		for i, res := range chunkResults {
			res.Index = base + i
			if res.Err != nil {
				res.Err = &ItemError{Index: res.Index, Cause: res.Err}
			}
			results[res.Index] = res
		}
		offset += len(chunk)

		if n == len(chunks)-1 {
			break
		}

		if err := sleep(ctx, cfg.Delay); err != nil {
			logger.Warn("Batch pipeline interrupted during cool-down",
				zap.Int("remaining", len(items)-offset),
				zap.Error(err),
			)
			for i := offset; i < len(items); i++ {
				results[i] = Result[R]{Index: i, Err: &ItemError{Index: i, Cause: err}}
			}
			break
		}
	}

	return results
}

// execute runs one operation, converting panics into errors.
func execute[T, R any](ctx context.Context, timeout time.Duration, item T, op Op[T, R]) (res Result[R]) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result[R]{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	value, err := op(ctx, item)
	if err != nil {
		return Result[R]{Err: err}
	}
	return Result[R]{Value: value}
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
