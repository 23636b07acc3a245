package repository

import (
	"context"
	"errors"
	"time"

	chat "go-presence/internal/pkg/chat/application/domain"
)

// ErrNotFound is returned by lookups and updates that match no row.
var ErrNotFound = errors.New("repository: not found")

// ChatRepository defines persistence operations for the chat domain
type ChatRepository interface {
	CreateConversation(ctx context.Context, c chat.Conversation) (string, error)
	// GetConversation returns ErrNotFound for unknown ids.
	GetConversation(ctx context.Context, conversationID string) (*chat.Conversation, error)

	AddParticipant(ctx context.Context, p chat.Participant) error
	// FindParticipant returns the (conversation, user, isAI) record or ErrNotFound.
	FindParticipant(ctx context.Context, conversationID string, userID string, isAI bool) (*chat.Participant, error)
	IsParticipant(ctx context.Context, conversationID string, userID string) (bool, error)
	ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error)

	SaveMessage(ctx context.Context, m chat.Message) (string, error)
	GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error)

	UpdateParticipantReadState(ctx context.Context, conversationID string, userID string, lastReadMsg *string) error
	SetMute(ctx context.Context, conversationID string, userID string, muted bool, mutedUntil *time.Time) error

	Ping(ctx context.Context) error
}
