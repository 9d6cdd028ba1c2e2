package chat

import "github.com/google/uuid"

// ConnID identifies one live transport connection.
type ConnID string

// NewConnID returns a fresh random connection identifier.
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

// Session binds a connection to a username and a room.
type Session struct {
	Username string
	Room     string
}

// Registry maps live connections to their sessions. It is not safe for
// concurrent use; Router serializes access.
type Registry struct {
	sessions map[ConnID]Session
	order    []ConnID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[ConnID]Session)}
}

// Join inserts or overwrites the session for conn. A rejoin keeps the
// connection's original position in snapshots.
func (r *Registry) Join(conn ConnID, username, room string) {
	if _, ok := r.sessions[conn]; !ok {
		r.order = append(r.order, conn)
	}
	r.sessions[conn] = Session{Username: username, Room: room}
}

// Get looks up the session for conn.
func (r *Registry) Get(conn ConnID) (Session, bool) {
	s, ok := r.sessions[conn]
	return s, ok
}

// Remove deletes the session for conn and returns it. Removing an unknown
// connection is a no-op.
func (r *Registry) Remove(conn ConnID) (Session, bool) {
	s, ok := r.sessions[conn]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, conn)
	for i, c := range r.order {
		if c == conn {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s, true
}

// UsersInRoom returns the usernames of every session in room, in the order
// the connections first joined.
func (r *Registry) UsersInRoom(room string) []string {
	users := make([]string, 0)
	for _, conn := range r.order {
		if s := r.sessions[conn]; s.Room == room {
			users = append(users, s.Username)
		}
	}
	return users
}

// ConnsInRoom returns the connections whose session is in room.
func (r *Registry) ConnsInRoom(room string) []ConnID {
	conns := make([]ConnID, 0)
	for _, conn := range r.order {
		if r.sessions[conn].Room == room {
			conns = append(conns, conn)
		}
	}
	return conns
}

// each calls fn for every session in join order until fn returns false.
func (r *Registry) each(fn func(ConnID, Session) bool) {
	for _, conn := range r.order {
		if !fn(conn, r.sessions[conn]) {
			return
		}
	}
}

// Len reports the number of joined connections.
func (r *Registry) Len() int {
	return len(r.sessions)
}
