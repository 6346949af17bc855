package redisstore

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bfcgroup/portal-api-go/internal/domain"
)

const leadsChannel = "portal:feed:leads_management"

// Feed implements port.ChangeFeed over Redis pub/sub. Delivery is at
// most once; a dropped event is corrected by the next list refresh.
type Feed struct {
	rdb    *redis.Client
	logger *zap.Logger
	pubsub *redis.PubSub
}

// NewFeed creates a Redis-backed change feed.
func NewFeed(rdb *redis.Client, logger *zap.Logger) *Feed {
	return &Feed{rdb: rdb, logger: logger}
}

// PublishLeadChange broadcasts a lead change to all subscribers.
func (f *Feed) PublishLeadChange(ctx context.Context, change domain.LeadChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	if err := f.rdb.Publish(ctx, leadsChannel, payload).Err(); err != nil {
		return &domain.ErrExternalService{Service: "redis/feed", Err: err}
	}
	return nil
}

// SubscribeLeadChanges returns a channel of decoded lead changes. The
// channel closes when ctx is cancelled or the subscription drops.
func (f *Feed) SubscribeLeadChanges(ctx context.Context) (<-chan domain.LeadChange, error) {
	f.pubsub = f.rdb.Subscribe(ctx, leadsChannel)
	if _, err := f.pubsub.Receive(ctx); err != nil {
		return nil, &domain.ErrExternalService{Service: "redis/feed", Err: err}
	}

	out := make(chan domain.LeadChange)
	go func() {
		defer close(out)
		msgs := f.pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change domain.LeadChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					f.logger.Warn("feed: skipping undecodable event", zap.Error(err))
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close tears down the subscription.
func (f *Feed) Close() error {
	if f.pubsub != nil {
		return f.pubsub.Close()
	}
	return nil
}
