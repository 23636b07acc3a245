package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	busport "go-presence/internal/infrastructure/pubsub/port"
)

// BroadcastChannel is the bus channel every process listens on.
const BroadcastChannel = "realtime.broadcast"

// Envelope carries a broadcast between processes. An empty Room addresses
// every connected session.
type Envelope struct {
	Room    string          `json:"room,omitempty"`
	Exclude string          `json:"exclude,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Hub delivers events to sessions on this process and, through the bus, on
// every other process. Direct replies bypass the bus.
type Hub struct {
	router *Router
	bus    busport.Bus
	logger *zap.Logger

	mu     sync.Mutex
	cancel func() error
}

func NewHub(router *Router, bus busport.Bus, logger *zap.Logger) *Hub {
	return &Hub{router: router, bus: bus, logger: logger}
}

// Start subscribes to the broadcast channel. Broadcasts are not delivered
// before Start returns.
func (h *Hub) Start(ctx context.Context) error {
	cancel, err := h.bus.Subscribe(ctx, BroadcastChannel, h.deliver)
	if err != nil {
		return fmt.Errorf("realtime: subscribe: %w", err)
	}
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()
	return nil
}

// Stop unsubscribes from the bus and closes every local session.
func (h *Hub) Stop() error {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()

	var err error
	if cancel != nil {
		err = cancel()
	}
	h.router.Close()
	return err
}

func (h *Hub) Router() *Router {
	return h.router
}

// Emit sends an event to a single connection.
func (h *Hub) Emit(conn *Connection, event string, data interface{}) error {
	payload, err := EncodeEvent(event, data)
	if err != nil {
		return err
	}
	return conn.Send(payload)
}

// Ack replies to the client event that carried ackID.
func (h *Hub) Ack(conn *Connection, ackID string, data interface{}) error {
	payload, err := json.Marshal(OutboundFrame{Event: AckEvent, Ack: ackID, Data: data})
	if err != nil {
		return err
	}
	return conn.Send(payload)
}

// BroadcastAll sends event to every connected session except excludeSessionID.
func (h *Hub) BroadcastAll(ctx context.Context, event string, data interface{}, excludeSessionID string) error {
	return h.publish(ctx, "", event, data, excludeSessionID)
}

// BroadcastRoom sends event to every session subscribed to room except excludeSessionID.
func (h *Hub) BroadcastRoom(ctx context.Context, room, event string, data interface{}, excludeSessionID string) error {
	return h.publish(ctx, room, event, data, excludeSessionID)
}

func (h *Hub) publish(ctx context.Context, room, event string, data interface{}, exclude string) error {
	payload, err := EncodeEvent(event, data)
	if err != nil {
		return err
	}
	env, err := json.Marshal(Envelope{Room: room, Exclude: exclude, Payload: payload})
	if err != nil {
		return err
	}
	if err := h.bus.Publish(ctx, BroadcastChannel, env); err != nil {
		return fmt.Errorf("realtime: publish %s: %w", event, err)
	}
	return nil
}

func (h *Hub) deliver(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Warn("dropping malformed broadcast envelope", zap.Error(err))
		return
	}
	if env.Room == "" {
		h.router.BroadcastAll(env.Payload, env.Exclude)
		return
	}
	h.router.Broadcast(env.Room, env.Payload, env.Exclude)
}
