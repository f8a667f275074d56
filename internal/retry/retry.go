// Package retry wraps fallible remote calls with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

var ErrInvalidAttempts = errors.New("retry: max attempts must be at least 1")

// Policy describes how an operation is retried. The delay before attempt k
// (k >= 2) is InitialDelay * Factor^(k-2); no jitter is applied.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Factor       float64

	// Retryable decides whether a failure is retried. Nil retries every failure.
	Retryable func(error) bool
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		Factor:       2,
	}
}

// WithRetryable returns a copy of p using the given classifier.
func (p Policy) WithRetryable(fn func(error) bool) Policy {
	p.Retryable = fn
	return p
}

// Delay returns the wait that precedes the given attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	factor := p.Factor
	if factor < 1 {
		factor = 1
	}
	return time.Duration(float64(p.InitialDelay) * math.Pow(factor, float64(attempt-2)))
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrier executes operations under a Policy.
type Retrier struct {
	policy Policy
	sleep  Sleeper
}

func New(p Policy) *Retrier {
	return &Retrier{policy: p, sleep: sleep}
}

// WithSleeper replaces the wall-clock wait, mainly for tests.
func (r *Retrier) WithSleeper(s Sleeper) *Retrier {
	return &Retrier{policy: r.policy, sleep: s}
}

func (r *Retrier) Policy() Policy {
	return r.policy
}

// Do runs op under the retrier's policy.
func Do[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	return DoWith(ctx, r, r.policy, op)
}

// DoWith runs op under p instead of the retrier's own policy. The last error
// is returned unchanged once attempts are exhausted or the error is not
// retryable. A cancelled context stops the wait between attempts.
func DoWith[T any](ctx context.Context, r *Retrier, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		return zero, ErrInvalidAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := r.sleep(ctx, p.Delay(attempt)); err != nil {
				return zero, lastErr
			}
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			break
		}
	}
	return zero, lastErr
}
