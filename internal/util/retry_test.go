// ABOUTME: Tests for backoff calculation and the retry loop
// ABOUTME: Verifies bounds, jitter, caps, and context cancellation
package util

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBackoff_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		base    time.Duration
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{"attempt 1", 100 * time.Millisecond, 1, 150 * time.Millisecond, 250 * time.Millisecond},
		{"attempt 3", 100 * time.Millisecond, 3, 600 * time.Millisecond, 1000 * time.Millisecond},
		{"capped", time.Second, 10, 22500 * time.Millisecond, 37500 * time.Millisecond},
		{"huge attempt stays capped", time.Millisecond, 1000, 0, 37500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Backoff(tt.base, tt.attempt)
			if got < tt.min || got > tt.max {
				t.Errorf("Backoff(%v, %d) = %v, want within [%v, %v]", tt.base, tt.attempt, got, tt.min, tt.max)
			}
		})
	}
}

func TestBackoff_ZeroForNonPositiveInputs(t *testing.T) {
	for _, attempt := range []int{0, -1, -100} {
		if got := Backoff(time.Second, attempt); got != 0 {
			t.Errorf("Backoff(1s, %d) = %v, want 0", attempt, got)
		}
	}
	if got := Backoff(0, 3); got != 0 {
		t.Errorf("Backoff(0, 3) = %v, want 0", got)
	}
}

func TestBackoff_Jitters(t *testing.T) {
	first := Backoff(time.Second, 2)
	for i := 0; i < 100; i++ {
		if Backoff(time.Second, 2) != first {
			return
		}
	}
	t.Error("100 samples were identical, jitter not applied")
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_GivesUpWithLastError(t *testing.T) {
	sentinel := errors.New("still broken")
	err := Retry(context.Background(), 2, time.Millisecond, func(ctx context.Context) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Retry() error = %v, want wrapped sentinel", err)
	}
	if !strings.Contains(err.Error(), "2 attempts") {
		t.Errorf("error %q should report the attempt count", err)
	}
}

func TestRetry_ContextCancelsSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 5, time.Hour, func(ctx context.Context) error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
}
