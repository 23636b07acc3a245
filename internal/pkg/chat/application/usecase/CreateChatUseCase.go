package usecase

import (
	"context"
	"fmt"
	"time"

	chat "go-presence/internal/pkg/chat/application/domain"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
)

// CreateChatInput carries the data to open a new conversation.
// OwnerID, when set, is registered with the owner role. AssistantID adds an AI participant.
type CreateChatInput struct {
	TenantID       string
	Title          *string
	OwnerID        string
	ParticipantIDs []string
	AssistantID    string
}

// CreateChatUseCase handles creation of a new conversation and its participants
type CreateChatUseCase struct {
	Repo repository.ChatRepository
}

func NewCreateChatUseCase(repo repository.ChatRepository) *CreateChatUseCase {
	return &CreateChatUseCase{Repo: repo}
}

// Execute persists a conversation and registers participants
func (uc *CreateChatUseCase) Execute(ctx context.Context, in CreateChatInput) (*chat.Conversation, error) {
	if in.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if len(in.ParticipantIDs) == 0 && in.OwnerID == "" {
		return nil, fmt.Errorf("participant_ids must include at least one user id")
	}

	conv := chat.Conversation{CreatedAt: time.Now().UTC(), TenantID: in.TenantID, Title: in.Title}

	id, err := uc.Repo.CreateConversation(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	conv.ID = id

	participants := make([]chat.Participant, 0, len(in.ParticipantIDs)+2)
	seen := make(map[string]bool)
	if in.OwnerID != "" {
		participants = append(participants, chat.Participant{ConversationID: id, UserID: in.OwnerID, Role: chat.ParticipantRoleOwner})
		seen[in.OwnerID] = true
	}
	for _, uid := range in.ParticipantIDs {
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		participants = append(participants, chat.Participant{ConversationID: id, UserID: uid, Role: chat.ParticipantRoleMember})
	}
	if in.AssistantID != "" {
		participants = append(participants, chat.Participant{
			ConversationID: id,
			UserID:         in.AssistantID,
			Role:           chat.ParticipantRoleAssistant,
			IsAI:           true,
		})
	}

	for _, p := range participants {
		if err := uc.Repo.AddParticipant(ctx, p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	return &conv, nil
}
