// ABOUTME: Exponential backoff with jitter for retried API calls
// ABOUTME: Shared retry loop used by the embedding client
package util

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// maxBackoff caps a single sleep regardless of attempt count
const maxBackoff = 30 * time.Second

// Backoff returns the delay before the given retry attempt: base doubled
// per attempt, capped at 30s, with random jitter in the ±25% band.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}

	d := base * time.Duration(1<<uint(attempt))
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}

	jitter := time.Duration(rand.Int64N(int64(d)/2)) - d/4
	return d + jitter
}

// Retry runs fn up to attempts times, sleeping with Backoff between
// tries. The context cancels both the sleep and the remaining attempts.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(Backoff(base, attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := fn(ctx); err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}
