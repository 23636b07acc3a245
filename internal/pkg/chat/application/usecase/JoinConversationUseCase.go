package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "go-presence/internal/pkg/chat/application/domain"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
)

// JoinConversationInput validates a request to attach a user session to a conversation.
type JoinConversationInput struct {
	ConversationID string
	UserID         string
}

// JoinConversationUseCase decides whether a session may subscribe to a conversation room.
// It only reads; the caller performs the subscription when Execute returns nil.
type JoinConversationUseCase struct {
	Repo repository.ChatRepository
	Now  func() time.Time
}

func NewJoinConversationUseCase(repo repository.ChatRepository) *JoinConversationUseCase {
	return &JoinConversationUseCase{Repo: repo, Now: time.Now}
}

// Execute returns chat.ErrConversationNotFound, chat.ErrNotParticipant or chat.ErrMuted
// for refused joins, and ErrPersistence when a lookup fails.
func (uc *JoinConversationUseCase) Execute(ctx context.Context, in JoinConversationInput) error {
	if in.ConversationID == "" || in.UserID == "" {
		return fmt.Errorf("conversation_id and user_id are required")
	}

	if _, err := uc.Repo.GetConversation(ctx, in.ConversationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return chat.ErrConversationNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	p, err := uc.Repo.FindParticipant(ctx, in.ConversationID, in.UserID, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return chat.ErrNotParticipant
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return chat.CanSubscribe(p, uc.Now())
}
