package controller

import (
	"context"

	"go-presence/internal/infrastructure/realtime"
	chat "go-presence/internal/pkg/chat/application/domain"
)

// MessageNotifier pushes persisted messages to the conversation room on every process.
type MessageNotifier struct {
	hub *realtime.Hub
}

func NewMessageNotifier(hub *realtime.Hub) *MessageNotifier {
	return &MessageNotifier{hub: hub}
}

func (n *MessageNotifier) NotifyMessage(ctx context.Context, msg chat.Message) error {
	return n.hub.BroadcastRoom(ctx, msg.ConversationID, EventNewMessage, ToMessagePayload(msg), "")
}
