package signals

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/credence/internal/cache"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/worker"
)

// Cached serves repeated texts from a cache
type Cached[T any] struct {
	next  Provider[T]
	task  string
	cache cache.Cache
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewCached wraps next with a response cache
func NewCached[T any](next Provider[T], task string, c cache.Cache, ttl time.Duration, log logrus.FieldLogger) *Cached[T] {
	return &Cached[T]{next: next, task: task, cache: c, ttl: ttl, log: log}
}

// Name returns the wrapped provider name
func (c *Cached[T]) Name() string { return c.next.Name() }

// Infer returns the cached answer or asks the wrapped provider
func (c *Cached[T]) Infer(ctx context.Context, text string) (T, error) {
	key := cache.CacheKey(c.next.Name(), c.task, text)

	var out T
	if cache.GetJSON(c.cache, key, &out) {
		return out, nil
	}

	out, err := c.next.Infer(ctx, text)
	if err != nil {
		return out, err
	}

	if err := cache.SetJSON(c.cache, key, out, c.ttl); err != nil {
		c.log.WithError(err).WithField("task", c.task).Warn("cache write failed")
	}
	return out, nil
}

// RateLimited waits on a shared limiter before each call
type RateLimited[T any] struct {
	next    Provider[T]
	task    string
	limiter *worker.Limiter
}

// NewRateLimited wraps next with a limiter keyed by task
func NewRateLimited[T any](next Provider[T], task string, limiter *worker.Limiter) *RateLimited[T] {
	return &RateLimited[T]{next: next, task: task, limiter: limiter}
}

// Name returns the wrapped provider name
func (r *RateLimited[T]) Name() string { return r.next.Name() }

// Infer waits for a token, then calls the wrapped provider
func (r *RateLimited[T]) Infer(ctx context.Context, text string) (T, error) {
	if err := r.limiter.Wait(ctx, r.task); err != nil {
		var zero T
		return zero, inferenceError(r.Name(), r.task, false, err)
	}
	return r.next.Infer(ctx, text)
}

// Retrying retries transient inference failures with a fixed backoff
type Retrying[T any] struct {
	next       Provider[T]
	maxRetries int
	backoff    time.Duration
	log        logrus.FieldLogger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next with at most maxRetries extra attempts
func NewRetrying[T any](next Provider[T], maxRetries int, backoff time.Duration, log logrus.FieldLogger) *Retrying[T] {
	return &Retrying[T]{
		next:       next,
		maxRetries: maxRetries,
		backoff:    backoff,
		log:        log,
		sleep:      sleepCtx,
	}
}

// Name returns the wrapped provider name
func (r *Retrying[T]) Name() string { return r.next.Name() }

// Infer calls the wrapped provider, retrying only transient failures
func (r *Retrying[T]) Infer(ctx context.Context, text string) (T, error) {
	out, err := r.next.Infer(ctx, text)
	for attempt := 1; err != nil && attempt <= r.maxRetries && model.IsTransient(err); attempt++ {
		r.log.WithError(err).WithField("attempt", attempt).Debug("retrying inference")
		if sleepErr := r.sleep(ctx, r.backoff*time.Duration(attempt)); sleepErr != nil {
			return out, err
		}
		out, err = r.next.Infer(ctx, text)
	}
	return out, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
