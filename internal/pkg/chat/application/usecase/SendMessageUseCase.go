package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "go-presence/internal/pkg/chat/application/domain"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to send a new message.
// Body and attachment validation happens in chat.NewMessage.
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Body           *string
	MsgType        chat.MessageType
	AttachmentURL  *string
	AttachmentMeta *string
	DedupeKey      *string
}

// SendMessageUseCase handles the SendMessage application service
// Hexagonal: depends on repository port, returns domain entity
type SendMessageUseCase struct {
	Repo repository.ChatRepository
	Now  func() time.Time
}

func NewSendMessageUseCase(repo repository.ChatRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Now: time.Now}
}

// Execute persists a new message once the sender is known to be an unmuted human participant.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	if in.ConversationID == "" || in.SenderID == "" {
		return nil, fmt.Errorf("conversationId and senderId are required")
	}

	p, err := uc.Repo.FindParticipant(ctx, in.ConversationID, in.SenderID, false)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := chat.CanPost(p, uc.Now()); err != nil {
		return nil, err
	}

	msg, err := chat.NewMessage(chat.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Body:           in.Body,
		MsgType:        in.MsgType,
		AttachmentURL:  in.AttachmentURL,
		AttachmentMeta: in.AttachmentMeta,
		DedupeKey:      in.DedupeKey,
	})
	if err != nil {
		return nil, err
	}

	// Persist letting the store generate the ID
	id, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id
	return msg, nil
}
