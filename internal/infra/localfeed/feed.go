// Package localfeed is the in-process change feed used when Redis is
// not configured. Events only reach subscribers inside the same
// process, which is all a single-instance deployment needs.
package localfeed

import (
	"context"
	"sync"

	"github.com/bfcgroup/portal-api-go/internal/domain"
)

// Feed implements port.ChangeFeed with in-memory fan-out.
type Feed struct {
	mu     sync.Mutex
	subs   []chan domain.LeadChange
	closed bool
}

// New creates an in-process feed.
func New() *Feed {
	return &Feed{}
}

// PublishLeadChange delivers the change to all current subscribers.
// Subscribers that are not draining are skipped rather than blocked on.
func (f *Feed) PublishLeadChange(_ context.Context, change domain.LeadChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	for _, ch := range f.subs {
		select {
		case ch <- change:
		default:
		}
	}
	return nil
}

// SubscribeLeadChanges registers a subscriber. The channel closes when
// ctx is cancelled or the feed is closed.
func (f *Feed) SubscribeLeadChanges(ctx context.Context) (<-chan domain.LeadChange, error) {
	ch := make(chan domain.LeadChange, 16)

	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, sub := range f.subs {
			if sub == ch {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				close(ch)
				break
			}
		}
	}()

	return ch, nil
}

// Close closes all subscriber channels.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
	return nil
}
