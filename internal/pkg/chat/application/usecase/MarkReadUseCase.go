package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "go-presence/internal/pkg/chat/application/domain"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
)

type MarkReadInput struct {
	ConversationID string
	UserID         string
	MessageID      string
}

// MarkReadUseCase moves a participant's read marker.
type MarkReadUseCase struct {
	Repo repository.ChatRepository
}

func NewMarkReadUseCase(repo repository.ChatRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) error {
	if in.ConversationID == "" || in.UserID == "" || in.MessageID == "" {
		return fmt.Errorf("conversation_id, user_id and message_id are required")
	}

	msgID := in.MessageID
	err := uc.Repo.UpdateParticipantReadState(ctx, in.ConversationID, in.UserID, &msgID)
	if errors.Is(err, repository.ErrNotFound) {
		return chat.ErrNotParticipant
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
