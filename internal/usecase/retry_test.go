package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"conductor-ai/internal/domain"
)

func fakeSleep(record *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*record = append(*record, d)
		return nil
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	var slept []time.Duration
	calls := 0
	fn := func() (string, error) {
		calls++
		if calls < 3 {
			return "", domain.NewNetworkError("flaky", nil)
		}
		return "ok", nil
	}

	got, err := Retry(context.Background(), RetryPolicy{Sleep: fakeSleep(&slept)}, fn)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestRetry_MaxRetriesBoundsAttempts(t *testing.T) {
	var slept []time.Duration
	calls := 0
	fn := func() (int, error) {
		calls++
		return 0, domain.NewAPIError("down", "search", 503)
	}

	_, err := Retry(context.Background(), RetryPolicy{MaxRetries: 3, Sleep: fakeSleep(&slept)}, fn)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	// No sleep after the final attempt.
	if len(slept) != 2 {
		t.Errorf("sleeps = %d, want 2", len(slept))
	}
}

func TestRetry_RetryAfterOverridesDelayOnce(t *testing.T) {
	var slept []time.Duration
	calls := 0
	fn := func() (string, error) {
		calls++
		switch calls {
		case 1:
			return "", domain.NewRateLimitError("throttled", "api", 5*time.Second)
		case 2:
			return "", domain.NewNetworkError("flaky", nil)
		default:
			return "done", nil
		}
	}

	if _, err := Retry(context.Background(), RetryPolicy{Sleep: fakeSleep(&slept)}, fn); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	// First wait honors retry_after; backoff still advances underneath.
	want := []time.Duration{5 * time.Second, 2 * time.Second}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestRetry_NonRetryableFailsImmediately(t *testing.T) {
	var slept []time.Duration
	calls := 0
	fn := func() (string, error) {
		calls++
		return "", domain.NewValidationError("bad input", "name")
	}

	_, err := Retry(context.Background(), RetryPolicy{Sleep: fakeSleep(&slept)}, fn)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(slept) != 0 {
		t.Errorf("slept %v, want none", slept)
	}
}

func TestRetry_PlainErrorNotRetriedByDefault(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), RetryPolicy{}, func() (int, error) {
		calls++
		return 0, errors.New("plain failure")
	})
	if err == nil || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetry_ContextCancelDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, RetryPolicy{InitialDelay: time.Millisecond}, func() (int, error) {
		return 0, domain.NewNetworkError("flaky", nil)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
