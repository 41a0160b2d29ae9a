// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"time"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/internal/httputil"
)

// withRetry runs fn up to maxAttempts times, doubling baseDelay between
// attempts. Only rate-limit failures are retried; every other error class
// fails fast. Per prd004-agent R5.1: attempt 1 waits baseDelay, attempt 2
// waits 2×baseDelay, and so on.
func withRetry[T any](ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := baseDelay
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := httputil.Sleep(ctx, delay); err != nil {
				return zero, err
			}
			delay *= 2
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !faults.IsRateLimited(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}
