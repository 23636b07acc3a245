package chat

import (
	"errors"
	"time"
)

// Domain-level errors for chat behaviors
var (
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrNotParticipant       = errors.New("chat: user is not a participant in the conversation")
	ErrMuted                = errors.New("chat: participant is muted in the conversation")
	ErrEmptyMessage         = errors.New("chat: empty message (no body or attachment)")
	ErrBackdatedMessage     = errors.New("chat: message timestamp is backdated")
	ErrNotOwner             = errors.New("chat: only the conversation owner may do this")
)

// CanSubscribe decides whether the human participant record p may receive a
// conversation's broadcasts at now. A nil record means no participant exists.
// Muted participants are refused outright, not granted read-only access.
func CanSubscribe(p *Participant, now time.Time) error {
	if p == nil || p.IsAI {
		return ErrNotParticipant
	}
	if p.IsMuted(now) {
		return ErrMuted
	}
	return nil
}

// CanPost decides whether p may send a message at now.
func CanPost(p *Participant, now time.Time) error {
	return CanSubscribe(p, now)
}

// CanModerate decides whether p may mute other participants.
func CanModerate(p *Participant) error {
	if p == nil || p.IsAI {
		return ErrNotParticipant
	}
	if p.Role != ParticipantRoleOwner {
		return ErrNotOwner
	}
	return nil
}
