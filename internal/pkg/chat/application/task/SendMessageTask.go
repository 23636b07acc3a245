package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	qport "go-presence/internal/infrastructure/queue/port"
	chat "go-presence/internal/pkg/chat/application/domain"
	"go-presence/internal/pkg/chat/application/usecase"
)

// SendMessageTaskType is the queue task name for sending a message within the chat domain.
const SendMessageTaskType = "chat:send_message"

// SendMessageTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SendMessageTaskPayload struct {
	ConversationID string  `json:"conversationId"`
	SenderID       string  `json:"senderId"`
	Body           *string `json:"body"`
	MsgType        int16   `json:"msgType"`
	AttachmentURL  *string `json:"attachmentUrl"`
	AttachmentMeta *string `json:"attachmentMeta"`
	DedupeKey      *string `json:"dedupeKey"`
}

// Notifier fans a persisted message out to connected clients.
type Notifier interface {
	NotifyMessage(ctx context.Context, msg chat.Message) error
}

// RegisterSendMessageTask binds the task handler to the provided server.
// The message is persisted first; a failed fan-out is logged and not retried
// because the dedupe key would make the retry a no-op write anyway.
func RegisterSendMessageTask(srv qport.Server, uc *usecase.SendMessageUseCase, notifier Notifier, logger *zap.Logger) {
	srv.Register(SendMessageTaskType, NewSendMessageHandler(uc, notifier, logger))
}

// NewSendMessageHandler returns the queue handler for SendMessageTaskType.
func NewSendMessageHandler(uc *usecase.SendMessageUseCase, notifier Notifier, logger *zap.Logger) qport.Handler {
	return func(ctx context.Context, t qport.Task) error {
		var p SendMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry
			return fmt.Errorf("decode %s payload: %v: %w", SendMessageTaskType, err, qport.ErrSkipRetry)
		}

		// give the store a reasonable time budget per task execution
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		msg, err := uc.Execute(ctx, usecase.SendMessageInput{
			ConversationID: p.ConversationID,
			SenderID:       p.SenderID,
			Body:           p.Body,
			MsgType:        chat.MessageType(p.MsgType),
			AttachmentURL:  p.AttachmentURL,
			AttachmentMeta: p.AttachmentMeta,
			DedupeKey:      p.DedupeKey,
		})
		if err != nil {
			if errors.Is(err, usecase.ErrPersistence) {
				return err
			}
			// refused by the domain: retrying cannot succeed
			return fmt.Errorf("%v: %w", err, qport.ErrSkipRetry)
		}

		if notifier != nil {
			if err := notifier.NotifyMessage(ctx, *msg); err != nil {
				logger.Warn("new-message fan-out failed",
					zap.String("conversation_id", msg.ConversationID),
					zap.String("message_id", msg.ID),
					zap.Error(err))
			}
		}
		return nil
	}
}
