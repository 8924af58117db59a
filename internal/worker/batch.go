package worker

import (
	"context"
	"sort"
)

// Outcome is the result of one item of a batch
type Outcome[T any] struct {
	Index int
	Value T
	Err   error
}

// GetError returns the error of the item
func (o *Outcome[T]) GetError() error {
	return o.Err
}

// itemJob runs fn over one batch item
type itemJob[In, Out any] struct {
	index int
	item  In
	fn    func(ctx context.Context, item In) (Out, error)
}

func (j *itemJob[In, Out]) Execute(ctx context.Context) Result {
	value, err := j.fn(ctx, j.item)
	return &Outcome[Out]{Index: j.index, Value: value, Err: err}
}

// BatchProcessor runs a function over items with bounded concurrency
type BatchProcessor[In, Out any] struct {
	fn          func(ctx context.Context, item In) (Out, error)
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor[In, Out any](fn func(ctx context.Context, item In) (Out, error), concurrency int) *BatchProcessor[In, Out] {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor[In, Out]{
		fn:          fn,
		concurrency: concurrency,
	}
}

// Process runs fn over items and returns outcomes in input order.
// Items not started before ctx is canceled are missing from the result.
func (b *BatchProcessor[In, Out]) Process(ctx context.Context, items []In) []Outcome[Out] {
	if len(items) == 0 {
		return []Outcome[Out]{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, item := range items {
		if !pool.Submit(&itemJob[In, Out]{index: i, item: item, fn: b.fn}) {
			break
		}
	}

	results := pool.Wait()

	outcomes := make([]Outcome[Out], 0, len(results))
	for _, r := range results {
		outcomes = append(outcomes, *r.(*Outcome[Out]))
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Index < outcomes[j].Index })

	return outcomes
}
