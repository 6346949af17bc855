package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bfcgroup/portal-api-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
)

func TestRetryWithBackoff_FirstAttemptSucceeds(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond}

	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestRetryWithBackoff_RecoversAfterTransientFailures(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond}

	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryWithBackoff_ReturnsLastErrorWhenExhausted(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}

	calls := 0
	wantErr := errors.New("still down")
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the final attempt's error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected MaxRetries+1 attempts, got %d", calls)
	}
}

func TestRetryWithBackoff_CancelledContextStopsChain(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 5, InitialBackoff: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		return errors.New("never retried")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryWithBackoff_ZeroBackoffDoesNotPanic(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 2}

	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		return errors.New("fail")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestCircuitBreaker_OpensOnFailureRatio(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test")

	fail := func() (any, error) { return nil, errors.New("postgrest 500") }
	for i := 0; i < 5; i++ {
		cb.Execute(fail)
	}

	if state := cb.State(); state != gobreaker.StateOpen {
		t.Fatalf("expected open breaker after repeated failures, got %v", state)
	}

	_, err := cb.Execute(func() (any, error) { return "ok", nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState while open, got %v", err)
	}
}

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}

	// Third acquire should block until a slot frees up.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := bh.Acquire(ctx); err == nil {
		t.Fatal("expected the third acquire to time out")
	}

	bh.Release()
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
}
