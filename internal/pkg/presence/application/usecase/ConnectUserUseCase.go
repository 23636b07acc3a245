package usecase

import (
	"context"
	"fmt"

	repository "go-presence/internal/pkg/presence/persistence/repository/port"
)

type ConnectUserInput struct {
	UserID string
}

// ConnectResult tells the transport whether to announce user-online.
type ConnectResult struct {
	Announce    bool
	Added       bool
	Connections int64
}

// ConnectUserUseCase records a new session in the online set.
// With TrackConnections only the first session of a user is announced.
type ConnectUserUseCase struct {
	Set              repository.OnlineSet
	TrackConnections bool
}

func NewConnectUserUseCase(set repository.OnlineSet, trackConnections bool) *ConnectUserUseCase {
	return &ConnectUserUseCase{Set: set, TrackConnections: trackConnections}
}

// Execute is a no-op for an empty user id.
func (uc *ConnectUserUseCase) Execute(ctx context.Context, in ConnectUserInput) (ConnectResult, error) {
	if in.UserID == "" {
		return ConnectResult{}, nil
	}

	if uc.TrackConnections {
		n, added, err := uc.Set.Acquire(ctx, in.UserID)
		if err != nil {
			return ConnectResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return ConnectResult{Announce: n == 1, Added: added, Connections: n}, nil
	}

	added, err := uc.Set.Add(ctx, in.UserID)
	if err != nil {
		return ConnectResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return ConnectResult{Announce: true, Added: added}, nil
}
