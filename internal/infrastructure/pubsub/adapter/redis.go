package adapter

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"go-presence/internal/infrastructure/pubsub/port"
)

// RedisBus uses Redis PUBLISH/SUBSCRIBE. Delivery is at-most-once; payloads
// published while a process is disconnected are lost for that process.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus shares client with the cache adapter; Close does not close it.
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

var _ port.Bus = (*RedisBus)(nil)

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string, h port.Handler) (func() error, error) {
	ps := b.client.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so publishes issued after
	// Subscribe returns are not missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("pubsub: redis subscribe %s: %w", channel, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			h([]byte(msg.Payload))
		}
	}()

	return func() error {
		err := ps.Close()
		<-done
		return err
	}, nil
}

func (b *RedisBus) Close() error {
	return nil
}
