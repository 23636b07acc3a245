package adapter

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	chat "go-presence/internal/pkg/chat/application/domain"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
)

type participantKey struct {
	conversationID string
	userID         string
	isAI           bool
}

// MemoryChatRepository keeps conversations in process memory. It backs
// STORE_DRIVER=memory and the tests.
type MemoryChatRepository struct {
	mu            sync.RWMutex
	conversations map[string]chat.Conversation
	participants  map[participantKey]chat.Participant
	messages      map[string][]chat.Message
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		conversations: make(map[string]chat.Conversation),
		participants:  make(map[participantKey]chat.Participant),
		messages:      make(map[string][]chat.Message),
	}
}

var _ repository.ChatRepository = (*MemoryChatRepository)(nil)

func (r *MemoryChatRepository) CreateConversation(_ context.Context, c chat.Conversation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.conversations[c.ID] = c
	return c.ID, nil
}

func (r *MemoryChatRepository) GetConversation(_ context.Context, conversationID string) (*chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *MemoryChatRepository) AddParticipant(_ context.Context, p chat.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[participantKey{p.ConversationID, p.UserID, p.IsAI}] = p
	return nil
}

func (r *MemoryChatRepository) FindParticipant(_ context.Context, conversationID string, userID string, isAI bool) (*chat.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[participantKey{conversationID, userID, isAI}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *MemoryChatRepository) IsParticipant(_ context.Context, conversationID string, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.participants[participantKey{conversationID, userID, false}]
	return ok, nil
}

func (r *MemoryChatRepository) ListParticipantIDs(_ context.Context, conversationID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for k := range r.participants {
		if k.conversationID == conversationID && !k.isAI {
			ids = append(ids, k.userID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *MemoryChatRepository) SaveMessage(_ context.Context, m chat.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.DedupeKey != nil {
		for _, existing := range r.messages[m.ConversationID] {
			if existing.DedupeKey != nil && *existing.DedupeKey == *m.DedupeKey {
				return existing.ID, nil
			}
		}
	}
	m.ID = uuid.NewString()
	r.messages[m.ConversationID] = append(r.messages[m.ConversationID], m)
	return m.ID, nil
}

// GetMessagesByConversation returns newest first, like the Postgres adapter.
func (r *MemoryChatRepository) GetMessagesByConversation(_ context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	all := r.messages[conversationID]
	out := make([]chat.Message, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	if offset >= len(out) {
		return []chat.Message{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryChatRepository) UpdateParticipantReadState(_ context.Context, conversationID string, userID string, lastReadMsg *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := participantKey{conversationID, userID, false}
	p, ok := r.participants[key]
	if !ok {
		return repository.ErrNotFound
	}
	p.LastReadMsg = lastReadMsg
	r.participants[key] = p
	return nil
}

func (r *MemoryChatRepository) SetMute(_ context.Context, conversationID string, userID string, muted bool, mutedUntil *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := participantKey{conversationID, userID, false}
	p, ok := r.participants[key]
	if !ok {
		return repository.ErrNotFound
	}
	p.Muted = muted
	p.MutedUntil = mutedUntil
	r.participants[key] = p
	return nil
}

func (r *MemoryChatRepository) Ping(context.Context) error { return nil }
