package resilience

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var fastRetry = RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2.0}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "op", fastRetry, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetry_RecoversAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "op", fastRetry, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetry_ExhaustionWrapsLastError(t *testing.T) {
	sentinel := errors.New("model unavailable")
	calls := 0
	err := Retry(context.Background(), "generate", fastRetry, func() error {
		calls++
		return sentinel
	})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("error %v does not wrap the last attempt's error", err)
	}
	if !strings.Contains(err.Error(), "all 3 attempts failed") {
		t.Fatalf("error = %v, want exhaustion message", err)
	}
}

func TestRetry_CancelledContextStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, "op", RetryConfig{MaxAttempts: 5, InitialDelay: time.Minute}, func() error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestComputeDelay_Doubles(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, Multiplier: 2.0}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := computeDelay(i+1, cfg); got != w {
			t.Errorf("computeDelay(%d) = %v, want %v", i+1, got, w)
		}
	}
}
