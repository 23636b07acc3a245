package presence

import "time"

// Events produced by presence tracking.
const (
	EventUserOnline      = "user-online"
	EventUserOffline     = "user-offline"
	EventOnlineUsersList = "online-users-list"

	userChannelPrefix = "user:"
)

// UserChannel names the private room every session of userID joins on connect.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// UserEvent is the payload of user-online and user-offline.
type UserEvent struct {
	UserID string `json:"userId"`
}

// Status describes a single user's presence.
type Status struct {
	UserID   string     `json:"userId"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}
