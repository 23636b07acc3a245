package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Router tracks the websocket sessions of this process and the rooms they
// are subscribed to. A user may hold any number of sessions at once.
type Router struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	userSessions map[string]map[string]struct{}    // userID -> set of sessionIDs
	rooms        map[string]map[string]*Connection // room -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of rooms
	closed       bool
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		sessions:     make(map[string]*Connection),
		userSessions: make(map[string]map[string]struct{}),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers conn and starts its write loop. After Close, conn is
// closed instead.
func (r *Router) Attach(conn *Connection) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		conn.Close(websocket.CloseGoingAway, "router shutdown")
		return
	}
	r.sessions[conn.ID] = conn
	sessions := r.userSessions[conn.UserID]
	if sessions == nil {
		sessions = make(map[string]struct{})
		r.userSessions[conn.UserID] = sessions
	}
	sessions[conn.ID] = struct{}{}
	r.sessionRooms[conn.ID] = make(map[string]struct{})
	r.mu.Unlock()

	conn.Start()
}

// Detach removes conn and all of its room subscriptions. It returns the number
// of sessions the same user still has on this process.
func (r *Router) Detach(conn *Connection) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detachLocked(conn.ID)
	return len(r.userSessions[conn.UserID])
}

// Join subscribes conn to room. Joining twice is harmless. It reports false
// when conn is not attached.
func (r *Router) Join(room string, conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[conn.ID]; !ok {
		return false
	}

	members := r.rooms[room]
	if members == nil {
		members = make(map[string]*Connection)
		r.rooms[room] = members
	}
	members[conn.ID] = conn

	memberships := r.sessionRooms[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.sessionRooms[conn.ID] = memberships
	}
	memberships[room] = struct{}{}
	return true
}

// Leave unsubscribes conn from room. Leaving a room that was never joined is a no-op.
func (r *Router) Leave(room string, conn *Connection) {
	r.mu.Lock()
	r.leaveLocked(room, conn.ID)
	r.mu.Unlock()
}

// InRoom reports whether the session is subscribed to room.
func (r *Router) InRoom(room string, sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][sessionID]
	return ok
}

// Rooms lists the rooms a session is subscribed to.
func (r *Router) Rooms(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sessionRooms[sessionID]))
	for room := range r.sessionRooms[sessionID] {
		out = append(out, room)
	}
	return out
}

// UserSessions returns how many sessions userID holds on this process.
func (r *Router) UserSessions(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.userSessions[userID])
}

// Broadcast writes payload to every session in room except excludeSessionID.
func (r *Router) Broadcast(room string, payload []byte, excludeSessionID string) int {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.rooms[room]))
	for id, conn := range r.rooms[room] {
		if id == excludeSessionID {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.RUnlock()
	return deliver(targets, payload)
}

// BroadcastAll writes payload to every attached session except excludeSessionID.
func (r *Router) BroadcastAll(payload []byte, excludeSessionID string) int {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.sessions))
	for id, conn := range r.sessions {
		if id == excludeSessionID {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.RUnlock()
	return deliver(targets, payload)
}

// Close terminates all tracked connections and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.userSessions = make(map[string]map[string]struct{})
	r.rooms = make(map[string]map[string]*Connection)
	r.sessionRooms = make(map[string]map[string]struct{})
	r.closed = true
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(websocket.CloseGoingAway, "router shutdown")
	}
}

func deliver(targets []*Connection, payload []byte) int {
	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

func (r *Router) detachLocked(sessionID string) {
	conn, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)

	if sessions, ok := r.userSessions[conn.UserID]; ok {
		delete(sessions, sessionID)
		if len(sessions) == 0 {
			delete(r.userSessions, conn.UserID)
		}
	}

	for room := range r.sessionRooms[sessionID] {
		r.leaveLocked(room, sessionID)
	}
	delete(r.sessionRooms, sessionID)
}

func (r *Router) leaveLocked(room string, sessionID string) {
	if sessionID == "" {
		return
	}
	members := r.rooms[room]
	if members == nil {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	if memberships, ok := r.sessionRooms[sessionID]; ok {
		delete(memberships, room)
	}
}
