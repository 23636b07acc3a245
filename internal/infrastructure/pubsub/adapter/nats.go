package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"go-presence/internal/infrastructure/pubsub/port"
)

// NatsBus publishes on core NATS subjects. Channel names map 1:1 to subjects.
type NatsBus struct {
	nc *nats.Conn
}

// NewNatsBus connects with unlimited reconnects, the same policy the other
// services on the cluster use.
func NewNatsBus(url, name string) (*NatsBus, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("pubsub: nats connect: %w", err)
	}
	return &NatsBus{nc: nc}, nil
}

var _ port.Bus = (*NatsBus)(nil)

func (b *NatsBus) Publish(_ context.Context, channel string, payload []byte) error {
	return b.nc.Publish(channel, payload)
}

func (b *NatsBus) Subscribe(_ context.Context, channel string, h port.Handler) (func() error, error) {
	sub, err := b.nc.Subscribe(channel, func(msg *nats.Msg) {
		h(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("pubsub: nats subscribe %s: %w", channel, err)
	}
	if err := b.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("pubsub: nats flush: %w", err)
	}
	// cancel returns once the server has dropped the subscription.
	return func() error {
		if err := sub.Unsubscribe(); err != nil {
			return err
		}
		return b.nc.Flush()
	}, nil
}

func (b *NatsBus) Close() error {
	return b.nc.Drain()
}
