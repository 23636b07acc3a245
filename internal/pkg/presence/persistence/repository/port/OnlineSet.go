package repository

import (
	"context"
	"time"
)

// OnlineSet is the shared set of connected user ids. Add and Remove are
// idempotent and report whether the set changed.
type OnlineSet interface {
	Add(ctx context.Context, userID string) (bool, error)
	Remove(ctx context.Context, userID string) (bool, error)
	IsMember(ctx context.Context, userID string) (bool, error)
	Count(ctx context.Context) (int64, error)
	Members(ctx context.Context) ([]string, error)

	// Acquire and Release count open connections per user. The count change
	// and the matching set change happen in one atomic store operation.
	// Acquire returns the new count and whether the user joined the set.
	// Release returns the remaining count (never below zero) and whether the
	// user left the set, which happens only when no connection remains.
	Acquire(ctx context.Context, userID string) (int64, bool, error)
	Release(ctx context.Context, userID string) (int64, bool, error)

	TouchLastSeen(ctx context.Context, userID string, at time.Time) error
	// LastSeen returns nil when the user was never seen.
	LastSeen(ctx context.Context, userID string) (*time.Time, error)
}
