package retry

import (
	"context"
	"slices"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config controls [Do].
type Config struct {
	// MaxAttempts is the total number of calls, first attempt included.
	// Values of 1 or less disable retries.
	MaxAttempts int

	// BaseDelay is the delay before the first retry; later retries double it.
	BaseDelay time.Duration

	// MaxDelay caps the back-off delay.
	MaxDelay time.Duration

	// Jitter randomises the delay by up to this fraction in either
	// direction. Zero disables jitter.
	Jitter float64

	// Retryable decides which errors are worth another attempt. A nil
	// Retryable retries nothing.
	Retryable func(error) bool
}

// Codes returns a Retryable that matches gRPC status errors carrying one of
// the given codes.
func Codes(cs ...codes.Code) func(error) bool {
	return func(err error) bool {
		st, ok := status.FromError(err)
		return ok && slices.Contains(cs, st.Code())
	}
}

// Do calls fn up to cfg.MaxAttempts times, backing off between attempts while
// cfg.Retryable accepts the error. If ctx ends while waiting, Do returns the
// context error.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxAttempts, 1)

	for i := range attempts {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if i == attempts-1 || cfg.Retryable == nil || !cfg.Retryable(err) {
			return zero, err
		}

		timer := time.NewTimer(backoff(cfg, i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, nil
}
