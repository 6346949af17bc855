// Package resilience wraps outbound Supabase calls with retry,
// circuit breaking and a concurrency bulkhead.
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds resilience parameters.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// maxBackoff caps the exponential growth so a long retry chain never
// sleeps for minutes.
const maxBackoff = 5 * time.Second

// RetryWithBackoff runs fn up to MaxRetries+1 times, doubling the wait
// between attempts and adding jitter. Cancellation of ctx stops the
// chain between attempts and during waits.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	backoff := cfg.InitialBackoff

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries {
			return lastErr
		}

		wait := backoff
		if half := int64(wait / 2); half > 0 {
			wait += time.Duration(rand.Int63n(half))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// NewCircuitBreaker creates a breaker tuned for the PostgREST/GoTrue
// clients: it trips on a 60% failure ratio over at least 5 calls, lets
// 3 probe requests through when half-open, and re-closes after 10s.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.6
		},
	})
}

// Bulkhead bounds the number of in-flight calls to a downstream.
type Bulkhead struct {
	sem chan struct{}
}

func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot frees up or ctx is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}
