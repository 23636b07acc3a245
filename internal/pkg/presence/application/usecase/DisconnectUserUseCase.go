package usecase

import (
	"context"
	"fmt"
	"time"

	repository "go-presence/internal/pkg/presence/persistence/repository/port"
)

type DisconnectUserInput struct {
	UserID string
}

// DisconnectResult tells the transport whether to announce user-offline.
// Removed is false when the user was already absent from the set.
type DisconnectResult struct {
	Announce  bool
	Removed   bool
	Remaining int64
}

// DisconnectUserUseCase drops a session from the online set. Without
// TrackConnections every disconnect removes the user, even when another of
// their sessions is still open.
type DisconnectUserUseCase struct {
	Set              repository.OnlineSet
	TrackConnections bool
	Now              func() time.Time
}

func NewDisconnectUserUseCase(set repository.OnlineSet, trackConnections bool) *DisconnectUserUseCase {
	return &DisconnectUserUseCase{Set: set, TrackConnections: trackConnections, Now: time.Now}
}

func (uc *DisconnectUserUseCase) Execute(ctx context.Context, in DisconnectUserInput) (DisconnectResult, error) {
	if in.UserID == "" {
		return DisconnectResult{}, nil
	}

	var removed bool
	if uc.TrackConnections {
		remaining, left, err := uc.Set.Release(ctx, in.UserID)
		if err != nil {
			return DisconnectResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if remaining > 0 {
			return DisconnectResult{Remaining: remaining}, nil
		}
		removed = left
	} else {
		var err error
		removed, err = uc.Set.Remove(ctx, in.UserID)
		if err != nil {
			return DisconnectResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	if err := uc.Set.TouchLastSeen(ctx, in.UserID, uc.Now()); err != nil {
		return DisconnectResult{Removed: removed, Announce: true}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return DisconnectResult{Announce: true, Removed: removed}, nil
}
