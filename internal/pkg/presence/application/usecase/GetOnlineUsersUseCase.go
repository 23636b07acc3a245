package usecase

import (
	"context"
	"fmt"

	repository "go-presence/internal/pkg/presence/persistence/repository/port"
)

// GetOnlineUsersUseCase reads the full online set.
type GetOnlineUsersUseCase struct {
	Set repository.OnlineSet
}

func NewGetOnlineUsersUseCase(set repository.OnlineSet) *GetOnlineUsersUseCase {
	return &GetOnlineUsersUseCase{Set: set}
}

func (uc *GetOnlineUsersUseCase) Execute(ctx context.Context) ([]string, error) {
	ids, err := uc.Set.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return ids, nil
}
