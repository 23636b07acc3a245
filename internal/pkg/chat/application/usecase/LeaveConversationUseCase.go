package usecase

import (
	"context"
	"errors"
	"fmt"

	repository "go-presence/internal/pkg/chat/persistence/repository/port"
)

type LeaveConversationInput struct {
	ConversationID string
	UserID         string
}

// LeaveResult reports whether the caller should unsubscribe the session.
// Allowed is false when the user has no human participant record.
type LeaveResult struct {
	Allowed bool
}

// LeaveConversationUseCase checks participancy before a room is left.
type LeaveConversationUseCase struct {
	Repo repository.ChatRepository
}

func NewLeaveConversationUseCase(repo repository.ChatRepository) *LeaveConversationUseCase {
	return &LeaveConversationUseCase{Repo: repo}
}

func (uc *LeaveConversationUseCase) Execute(ctx context.Context, in LeaveConversationInput) (LeaveResult, error) {
	if in.ConversationID == "" || in.UserID == "" {
		return LeaveResult{}, fmt.Errorf("conversation_id and user_id are required")
	}

	_, err := uc.Repo.FindParticipant(ctx, in.ConversationID, in.UserID, false)
	if errors.Is(err, repository.ErrNotFound) {
		return LeaveResult{}, nil
	}
	if err != nil {
		return LeaveResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return LeaveResult{Allowed: true}, nil
}
