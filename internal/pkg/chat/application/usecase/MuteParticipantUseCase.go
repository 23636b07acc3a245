package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "go-presence/internal/pkg/chat/application/domain"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
)

// MuteParticipantInput sets or clears a mute. Until is optional; a nil Until
// with Muted=true mutes indefinitely. ActorID, when set, must be the owner.
type MuteParticipantInput struct {
	ActorID        string
	ConversationID string
	UserID         string
	Muted          bool
	Until          *time.Time
}

type MuteParticipantUseCase struct {
	Repo repository.ChatRepository
}

func NewMuteParticipantUseCase(repo repository.ChatRepository) *MuteParticipantUseCase {
	return &MuteParticipantUseCase{Repo: repo}
}

func (uc *MuteParticipantUseCase) Execute(ctx context.Context, in MuteParticipantInput) error {
	if in.ConversationID == "" || in.UserID == "" {
		return fmt.Errorf("conversation_id and user_id are required")
	}

	if in.ActorID != "" {
		actor, err := uc.Repo.FindParticipant(ctx, in.ConversationID, in.ActorID, false)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if err := chat.CanModerate(actor); err != nil {
			return err
		}
	}

	until := in.Until
	if !in.Muted {
		until = nil
	}
	err := uc.Repo.SetMute(ctx, in.ConversationID, in.UserID, in.Muted, until)
	if errors.Is(err, repository.ErrNotFound) {
		return chat.ErrNotParticipant
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
