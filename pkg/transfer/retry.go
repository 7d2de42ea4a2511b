package transfer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy repeats a failed step a fixed number of times with a constant delay
type RetryPolicy struct {
	Attempts int           // Retries after the first try
	Delay    time.Duration // Wait between tries
}

// NoRetry runs a step once
var NoRetry = RetryPolicy{}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	b = backoff.WithMaxRetries(b, uint64(max(p.Attempts, 0)))
	return backoff.WithContext(b, ctx)
}

// Retry runs fn until it succeeds, fails with a non-retryable error, the
// attempts are used up or ctx is done. It returns the number of tries made.
func Retry[T any](ctx context.Context, p RetryPolicy, logger *zap.Logger, step string, fn func(context.Context) (T, error)) (T, int, error) {
	attempts := 0
	operation := func() (T, error) {
		attempts++
		value, err := fn(ctx)
		if err != nil && !IsRetryableError(err) {
			return value, backoff.Permanent(err)
		}
		return value, err
	}

	notify := func(err error, wait time.Duration) {
		if logger == nil {
			return
		}
		logger.Warn("Step failed, retrying",
			zap.String("step", step),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	value, err := backoff.RetryNotifyWithData(operation, p.backOff(ctx), notify)
	return value, attempts, err
}
