package adapter

import (
	"context"
	"errors"
	"sync"

	"go-presence/internal/infrastructure/pubsub/port"
)

// LocalBus delivers synchronously to subscribers inside this process.
type LocalBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]port.Handler
	closed bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]map[int]port.Handler)}
}

var _ port.Bus = (*LocalBus)(nil)

func (b *LocalBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return errors.New("pubsub: bus closed")
	}
	handlers := make([]port.Handler, 0, len(b.subs[channel]))
	for _, h := range b.subs[channel] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
	return nil
}

func (b *LocalBus) Subscribe(_ context.Context, channel string, h port.Handler) (func() error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("pubsub: bus closed")
	}
	id := b.nextID
	b.nextID++
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[int]port.Handler)
	}
	b.subs[channel][id] = h

	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[channel], id)
		if len(b.subs[channel]) == 0 {
			delete(b.subs, channel)
		}
		return nil
	}, nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string]map[int]port.Handler)
	return nil
}
