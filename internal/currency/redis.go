package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// ChangeChannel is the Redis channel carrying currency changes between instances.
const ChangeChannel = "iqengi:currency-change"

// RedisBroker fans currency changes out to every server instance through
// Redis pub/sub. Subscribers attach to the local Bus, which Run feeds.
type RedisBroker struct {
	client  *redis.Client
	local   *Bus
	channel string
	logger  *slog.Logger
}

// NewRedisBroker creates a broker publishing on ChangeChannel.
func NewRedisBroker(client *redis.Client, local *Bus, logger *slog.Logger) *RedisBroker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBroker{client: client, local: local, channel: ChangeChannel, logger: logger}
}

// Publish implements Broker. When Redis is unreachable the message is still
// delivered to this instance's subscribers.
func (b *RedisBroker) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode currency message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.WarnContext(ctx, "redis publish failed, delivering locally",
			slog.String("channel", b.channel),
			slog.String("error", err.Error()),
		)
		return b.local.Publish(ctx, msg)
	}
	return nil
}

// Subscribe implements Broker.
func (b *RedisBroker) Subscribe(visitor string) *Subscription {
	return b.local.Subscribe(visitor)
}

// Run relays messages from Redis into the local Bus until ctx is done.
func (b *RedisBroker) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.logger.WarnContext(ctx, "dropping malformed currency message",
					slog.String("error", err.Error()),
				)
				continue
			}
			_ = b.local.Publish(ctx, msg)
		}
	}
}
