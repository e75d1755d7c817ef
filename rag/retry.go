package rag

import (
	"context"
	"time"

	"github.com/fwojciec/catalogqa"
)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// DefaultRetryDelays returns the backoff delays for warm retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// RetryOnce is the schedule for a single immediate retry.
func RetryOnce() []time.Duration {
	return []time.Duration{0}
}

// Retryable reports whether err is worth another attempt: timeouts and
// failed fetches.
func Retryable(err error) bool {
	return catalogqa.IsTimeout(err) || catalogqa.ErrorCode(err) == catalogqa.EFETCH
}

// WithRetry calls fn and, while it fails with an error accepted by
// retryable, calls it again after each delay in turn. The logger, if
// provided, is called before each retry.
func WithRetry[T any](ctx context.Context, fn func(context.Context) (T, error), retryable func(error) bool, delays []time.Duration, logger LogFunc) (T, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var zero T
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		// Don't retry after the last attempt or on permanent errors
		if attempt >= maxAttempts-1 || !retryable(err) {
			break
		}

		// Check context before sleeping
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		if logger != nil {
			logger("retry (attempt %d): %v", attempt+2, err)
		}

		if delays[attempt] > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delays[attempt]):
			}
		}
	}

	return zero, lastErr
}
