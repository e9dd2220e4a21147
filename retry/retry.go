// Package retry runs an operation again after a fixed backoff until it
// succeeds or its retry budget is spent.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mklimuk/barometer/snsctx"
)

const (
	DefaultMaxRetries = 5
	DefaultBackoff    = time.Second
)

// ErrExhausted matches every ExhaustedError.
var ErrExhausted = errors.New("retries exhausted")

// ExhaustedError is returned once an operation failed on its initial attempt
// and on every retry.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: retries exhausted after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// Policy bounds the number of retries and the delay between them.
type Policy struct {
	MaxRetries int
	Backoff    time.Duration
	// Sleep waits for the backoff. Defaults to a timer that also honours
	// context cancellation. An error from Sleep ends Do with that error
	// wrapped, not with an ExhaustedError.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each backoff with the 1-based retry number.
	OnRetry func(op string, retry int, err error)
}

func Default() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultBackoff,
	}
}

// Do calls op until it succeeds or MaxRetries retries have failed, so op
// runs at most MaxRetries+1 times.
func Do[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	retries := 0
	for {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		retries++
		if retries > p.MaxRetries {
			var zero T
			return zero, &ExhaustedError{Op: op, Attempts: retries, Err: err}
		}
		snsctx.Logger(ctx).WarnContext(ctx, fmt.Sprintf("%s failed, retry %d of %d", op, retries, p.MaxRetries), "error", err, "backoff", p.Backoff)
		if p.OnRetry != nil {
			p.OnRetry(op, retries, err)
		}
		if err := sleep(ctx, p.Backoff); err != nil {
			var zero T
			return zero, fmt.Errorf("%s: retry %d interrupted: %w", op, retries, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
