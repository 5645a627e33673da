package realtime

import (
	"context"
	"encoding/json"

	"cafe/internal/events"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisBridge shares admin events between instances. Publish goes to a Redis
// channel and Run feeds everything on that channel into the local hub, so a
// console connected to any instance sees every event.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

// NewRedisBridge creates a new RedisBridge.
func NewRedisBridge(client *redis.Client, channel string, hub *Hub) *RedisBridge {
	return &RedisBridge{client: client, channel: channel, hub: hub}
}

// Publish implements events.Publisher.
func (b *RedisBridge) Publish(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "encode %s event", e.Name)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return errors.Wrapf(err, "publish %s to redis", e.Name)
	}
	return nil
}

// Run relays the Redis channel to the hub until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrapf(err, "subscribe to %s", b.channel)
	}
	log.WithField("channel", b.channel).Info("Realtime redis bridge subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.hub.Broadcast([]byte(msg.Payload))
		}
	}
}
