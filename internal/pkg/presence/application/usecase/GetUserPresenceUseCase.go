package usecase

import (
	"context"
	"fmt"

	presence "go-presence/internal/pkg/presence/application/domain"
	repository "go-presence/internal/pkg/presence/persistence/repository/port"
)

type GetUserPresenceInput struct {
	UserID string
}

// GetUserPresenceUseCase reports whether a user is online and when they were last seen.
type GetUserPresenceUseCase struct {
	Set repository.OnlineSet
}

func NewGetUserPresenceUseCase(set repository.OnlineSet) *GetUserPresenceUseCase {
	return &GetUserPresenceUseCase{Set: set}
}

func (uc *GetUserPresenceUseCase) Execute(ctx context.Context, in GetUserPresenceInput) (*presence.Status, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	online, err := uc.Set.IsMember(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	seen, err := uc.Set.LastSeen(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &presence.Status{UserID: in.UserID, Online: online, LastSeen: seen}, nil
}
