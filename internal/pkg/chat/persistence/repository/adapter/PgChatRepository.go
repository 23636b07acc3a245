package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "go-presence/internal/pkg/chat/application/domain"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
)

var errNilPool = errors.New("PgChatRepository: nil pool")

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

// validIDs reports whether every id is a canonical uuid. Lookups with other
// ids match no row, so they return early instead of failing the cast in the
// query.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if len(id) != 36 {
			return false
		}
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func (r *PgChatRepository) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	if r == nil || r.pool == nil {
		return "", errNilPool
	}
	var id string
	err := r.pool.QueryRow(ctx,
		"INSERT INTO chat.conversation (created_at, tenant_id, title) VALUES ($1, NULLIF($2, '')::uuid, $3) RETURNING id::text",
		c.CreatedAt, c.TenantID, c.Title,
	).Scan(&id)
	return id, err
}

func (r *PgChatRepository) GetConversation(ctx context.Context, conversationID string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if !validIDs(conversationID) {
		return nil, repository.ErrNotFound
	}
	var (
		c        chat.Conversation
		tenantID *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, created_at, tenant_id::text, title
		FROM chat.conversation
		WHERE id = $1::uuid
	`, conversationID).Scan(&c.ID, &c.CreatedAt, &tenantID, &c.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if tenantID != nil {
		c.TenantID = *tenantID
	}
	return &c, nil
}

func (r *PgChatRepository) AddParticipant(ctx context.Context, p chat.Participant) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.participant (conversation_id, user_id, role, is_ai, muted, muted_until, last_read_msg)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7::uuid)
		ON CONFLICT (conversation_id, user_id, is_ai)
		DO UPDATE SET role = EXCLUDED.role,
		              muted = EXCLUDED.muted,
		              muted_until = EXCLUDED.muted_until,
		              last_read_msg = EXCLUDED.last_read_msg
	`, p.ConversationID, p.UserID, p.Role, p.IsAI, p.Muted, p.MutedUntil, p.LastReadMsg)
	return err
}

func (r *PgChatRepository) FindParticipant(ctx context.Context, conversationID string, userID string, isAI bool) (*chat.Participant, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if !validIDs(conversationID, userID) {
		return nil, repository.ErrNotFound
	}
	var p chat.Participant
	err := r.pool.QueryRow(ctx, `
		SELECT conversation_id::text, user_id::text, role, is_ai, muted, muted_until, last_read_msg::text
		FROM chat.participant
		WHERE conversation_id = $1::uuid AND user_id = $2::uuid AND is_ai = $3
	`, conversationID, userID, isAI).Scan(&p.ConversationID, &p.UserID, &p.Role, &p.IsAI, &p.Muted, &p.MutedUntil, &p.LastReadMsg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgChatRepository) IsParticipant(ctx context.Context, conversationID string, userID string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errNilPool
	}
	if !validIDs(conversationID, userID) {
		return false, nil
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat.participant
			WHERE conversation_id = $1::uuid AND user_id = $2::uuid AND NOT is_ai
		)
	`, conversationID, userID).Scan(&ok)
	return ok, err
}

func (r *PgChatRepository) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if !validIDs(conversationID) {
		return []string{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT user_id::text
		FROM chat.participant
		WHERE conversation_id = $1::uuid AND NOT is_ai
		ORDER BY user_id
	`, conversationID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errNilPool
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.message (
			conversation_id, sender_id, created_at, body, msg_type, attachment_url, attachment_meta, dedupe_key
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, COALESCE($7::json, NULL), $8)
		ON CONFLICT (conversation_id, dedupe_key) WHERE dedupe_key IS NOT NULL
		DO UPDATE SET dedupe_key = EXCLUDED.dedupe_key
		RETURNING id::text
	`, m.ConversationID, m.SenderID, m.CreatedAt, m.Body, m.MsgType, m.AttachmentURL, m.AttachmentMeta, m.DedupeKey).Scan(&id)
	return id, err
}

func (r *PgChatRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if !validIDs(conversationID) {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, conversation_id::text, sender_id::text, created_at, body, msg_type, attachment_url, attachment_meta::text, dedupe_key
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.CreatedAt, &msg.Body, &msg.MsgType, &msg.AttachmentURL, &msg.AttachmentMeta, &msg.DedupeKey); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgChatRepository) UpdateParticipantReadState(ctx context.Context, conversationID string, userID string, lastReadMsg *string) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	if !validIDs(conversationID, userID) {
		return repository.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.participant
		SET last_read_msg = $3::uuid
		WHERE conversation_id = $1::uuid AND user_id = $2::uuid AND NOT is_ai
	`, conversationID, userID, lastReadMsg)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) SetMute(ctx context.Context, conversationID string, userID string, muted bool, mutedUntil *time.Time) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	if !validIDs(conversationID, userID) {
		return repository.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.participant
		SET muted = $3, muted_until = $4
		WHERE conversation_id = $1::uuid AND user_id = $2::uuid AND NOT is_ai
	`, conversationID, userID, muted, mutedUntil)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) Ping(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	return r.pool.Ping(ctx)
}
