package port

import "context"

// Handler receives one published payload. Handlers run on the adapter's
// delivery goroutine and must not block for long.
type Handler func(payload []byte)

// Bus fans payloads out to every subscribed server process.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe registers h until the returned cancel function is called.
	Subscribe(ctx context.Context, channel string, h Handler) (cancel func() error, err error)
	Close() error
}
