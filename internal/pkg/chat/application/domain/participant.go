package chat

import "time"

// ParticipantRole expresses the role within a conversation
// 0 = member (default), 1 = owner, 2 = assistant (AI)
type ParticipantRole int16

const (
	ParticipantRoleMember    ParticipantRole = 0
	ParticipantRoleOwner     ParticipantRole = 1
	ParticipantRoleAssistant ParticipantRole = 2
)

// Participant captures membership and read/mute state
// Primary key: (ConversationID, UserID, IsAI)
type Participant struct {
	ConversationID string          `db:"conversation_id"`
	UserID         string          `db:"user_id"`
	Role           ParticipantRole `db:"role"`
	IsAI           bool            `db:"is_ai"`
	Muted          bool            `db:"muted"`
	MutedUntil     *time.Time      `db:"muted_until"`
	LastReadMsg    *string         `db:"last_read_msg"`
}

// IsMuted reports whether the mute flag is set or a timed mute is still running at now.
func (p Participant) IsMuted(now time.Time) bool {
	if p.Muted {
		return true
	}
	return p.MutedUntil != nil && now.Before(*p.MutedUntil)
}
