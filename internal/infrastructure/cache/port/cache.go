package port

import (
	"context"
	"time"
)

// Cache is the key/value and set store shared by every server process.
// Implementations must be concurrency-safe and every mutation must be a single
// atomic operation on the backend, never a read-modify-write from the caller.
type Cache interface {
	// Get returns ErrMiss when the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. Zero or negative TTL means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// SAdd adds members to the set at key and returns how many were new.
	SAdd(ctx context.Context, key string, members ...string) (int64, error)

	// SRem removes members from the set at key and returns how many were present.
	SRem(ctx context.Context, key string, members ...string) (int64, error)

	SIsMember(ctx context.Context, key string, member string) (bool, error)
	SCard(ctx context.Context, key string) (int64, error)
	SMembers(ctx context.Context, key string) ([]string, error)

	// HIncrBy adds incr to field of the hash at key and returns the new value.
	HIncrBy(ctx context.Context, key string, field string, incr int64) (int64, error)
	HDel(ctx context.Context, key string, fields ...string) (int64, error)

	// AcquireMember increments member's counter in the hash at countKey and
	// adds member to the set at setKey as one atomic step. It returns the new
	// count and whether member was new to the set.
	AcquireMember(ctx context.Context, countKey, setKey, member string) (int64, bool, error)

	// ReleaseMember decrements member's counter in the hash at countKey. When
	// the counter reaches zero the field is deleted and member leaves the set
	// at setKey in the same atomic step. It returns the count (never below
	// zero) and whether member was removed from the set.
	ReleaseMember(ctx context.Context, countKey, setKey, member string) (int64, bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// ErrMiss is returned by Get for absent keys.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
