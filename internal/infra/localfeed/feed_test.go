package localfeed_test

import (
	"context"
	"testing"
	"time"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/localfeed"
)

func TestFeed_PublishReachesAllSubscribers(t *testing.T) {
	feed := localfeed.New()
	defer feed.Close()

	ctx := context.Background()
	first, err := feed.SubscribeLeadChanges(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	second, err := feed.SubscribeLeadChanges(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	change := domain.LeadChange{Type: domain.ChangeInsert, Lead: domain.Lead{SalesID: "BFC-1"}}
	if err := feed.PublishLeadChange(ctx, change); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	for i, ch := range []<-chan domain.LeadChange{first, second} {
		select {
		case got := <-ch:
			if got.Lead.SalesID != "BFC-1" {
				t.Errorf("subscriber %d: unexpected change %+v", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the change", i)
		}
	}
}

func TestFeed_CancelledSubscriberIsRemoved(t *testing.T) {
	feed := localfeed.New()
	defer feed.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := feed.SubscribeLeadChanges(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return // channel closed, subscriber removed
			}
		case <-deadline:
			t.Fatal("subscriber channel was never closed")
		}
	}
}

func TestFeed_PublishAfterCloseIsNoop(t *testing.T) {
	feed := localfeed.New()
	if err := feed.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := feed.PublishLeadChange(context.Background(), domain.LeadChange{}); err != nil {
		t.Errorf("publish after close must be a no-op, got %v", err)
	}
}

func TestFeed_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	feed := localfeed.New()
	defer feed.Close()

	// Never drained; its buffer fills up.
	if _, err := feed.SubscribeLeadChanges(context.Background()); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			feed.PublishLeadChange(context.Background(), domain.LeadChange{Type: domain.ChangeInsert})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
