package chat

import "time"

// Conversation is a thread between users and, optionally, one AI participant.
type Conversation struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	TenantID  string    `db:"tenant_id"`
	Title     *string   `db:"title"`
}
