package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	cacheport "go-presence/internal/infrastructure/cache/port"
	repository "go-presence/internal/pkg/presence/persistence/repository/port"
)

const (
	lastSeenPrefix = "lastseen:"
	lastSeenTTL    = 30 * 24 * time.Hour
)

// CacheOnlineSet keeps the online set under a single well-known key of the
// shared cache, so every process sees the same roster.
type CacheOnlineSet struct {
	cache          cacheport.Cache
	key            string
	connectionsKey string
}

func NewCacheOnlineSet(cache cacheport.Cache, key string) *CacheOnlineSet {
	return &CacheOnlineSet{cache: cache, key: key, connectionsKey: key + ":connections"}
}

var _ repository.OnlineSet = (*CacheOnlineSet)(nil)

func (s *CacheOnlineSet) Add(ctx context.Context, userID string) (bool, error) {
	n, err := s.cache.SAdd(ctx, s.key, userID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *CacheOnlineSet) Remove(ctx context.Context, userID string) (bool, error) {
	n, err := s.cache.SRem(ctx, s.key, userID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *CacheOnlineSet) IsMember(ctx context.Context, userID string) (bool, error) {
	return s.cache.SIsMember(ctx, s.key, userID)
}

func (s *CacheOnlineSet) Count(ctx context.Context) (int64, error) {
	return s.cache.SCard(ctx, s.key)
}

func (s *CacheOnlineSet) Members(ctx context.Context) ([]string, error) {
	members, err := s.cache.SMembers(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []string{}
	}
	return members, nil
}

func (s *CacheOnlineSet) Acquire(ctx context.Context, userID string) (int64, bool, error) {
	return s.cache.AcquireMember(ctx, s.connectionsKey, s.key, userID)
}

func (s *CacheOnlineSet) Release(ctx context.Context, userID string) (int64, bool, error) {
	return s.cache.ReleaseMember(ctx, s.connectionsKey, s.key, userID)
}

func (s *CacheOnlineSet) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	return s.cache.Set(ctx, lastSeenPrefix+userID, at.UTC().Format(time.RFC3339), lastSeenTTL)
}

func (s *CacheOnlineSet) LastSeen(ctx context.Context, userID string) (*time.Time, error) {
	raw, err := s.cache.Get(ctx, lastSeenPrefix+userID)
	if errors.Is(err, cacheport.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("presence: bad last seen value %q: %w", raw, err)
	}
	return &at, nil
}
