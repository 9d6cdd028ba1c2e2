// Package chat implements the room-scoped session, presence and broadcast
// engine behind the relay. It has no knowledge of the transport: inbound
// events arrive as method calls on Router and outbound events leave through
// an Emitter.
package chat

import (
	"fmt"
	"sync"
	"time"
)

// Emitter delivers an outbound event to a set of connections. Implementations
// must not block and must not call back into the Router.
type Emitter interface {
	Emit(recipients []ConnID, ev Outbound)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(recipients []ConnID, ev Outbound)

// Emit calls f(recipients, ev).
func (f EmitterFunc) Emit(recipients []ConnID, ev Outbound) { f(recipients, ev) }

// Result reports whether a handler acted on an event or dropped it because
// a precondition was not met.
type Result int

const (
	Handled Result = iota
	Skipped
)

func (r Result) String() string {
	if r == Skipped {
		return "skipped"
	}
	return "handled"
}

// Option configures a Router.
type Option func(*Router)

// WithClock overrides the source of message timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// Router owns the registry and typing set and fans state changes out to the
// affected rooms. Every handler runs to completion, emissions included,
// before another handler may start.
type Router struct {
	mu       sync.Mutex
	registry *Registry
	presence *Presence
	emitter  Emitter
	now      func() time.Time
}

// NewRouter returns a Router that emits through e.
func NewRouter(e Emitter, opts ...Option) *Router {
	r := &Router{
		registry: NewRegistry(),
		presence: NewPresence(),
		emitter:  e,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Join binds conn to a username and room, announces the arrival to the rest
// of the room and sends everyone the new roster. Joining again overwrites
// the previous session; the old room is not told about the move.
func (r *Router) Join(conn ConnID, p JoinPayload) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry.Join(conn, p.Username, p.Room)

	members := r.registry.ConnsInRoom(p.Room)
	r.emit(without(members, conn), SystemMessage(fmt.Sprintf("%s has joined the chat", p.Username), r.now()))
	r.emit(members, UserList(r.registry.UsersInRoom(p.Room)))
	return Handled
}

// Message relays a chat line to every connection in the addressed room.
// Connections that never joined are ignored.
func (r *Router) Message(conn ConnID, p MessagePayload) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.registry.Get(conn)
	if !ok {
		return Skipped
	}

	r.emit(r.registry.ConnsInRoom(p.Room), UserMessage(s.Username, p.Content, r.now()))
	return Handled
}

// Typing updates conn's typing flag and sends the room's other members the
// list of who is typing. Each recipient's list leaves out its own username,
// so someone sharing a name with the recipient is hidden too. Connections
// that never joined are ignored and leave the typing set untouched.
func (r *Router) Typing(conn ConnID, p TypingPayload) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.registry.Get(conn); !ok {
		return Skipped
	}

	r.presence.SetTyping(conn, p.IsTyping)

	var order []string
	groups := make(map[string][]ConnID)
	for _, c := range without(r.registry.ConnsInRoom(p.Room), conn) {
		s, _ := r.registry.Get(c)
		if _, seen := groups[s.Username]; !seen {
			order = append(order, s.Username)
		}
		groups[s.Username] = append(groups[s.Username], c)
	}
	for _, name := range order {
		r.emit(groups[name], TypingUsers(r.presence.TypingUsernames(r.registry, p.Room, name)))
	}
	return Handled
}

// Disconnect removes conn's session and typing flag together, then tells
// the room it left and sends the updated roster. Repeated calls are no-ops.
func (r *Router) Disconnect(conn ConnID) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.registry.Remove(conn)
	r.presence.Forget(conn)
	if !ok {
		return Skipped
	}

	members := r.registry.ConnsInRoom(s.Room)
	r.emit(members, SystemMessage(fmt.Sprintf("%s has left the chat", s.Username), r.now()))
	r.emit(members, UserList(r.registry.UsersInRoom(s.Room)))
	return Handled
}

// Dispatch routes a decoded client frame to its handler.
func (r *Router) Dispatch(conn ConnID, in Inbound) Result {
	switch {
	case in.Join != nil:
		return r.Join(conn, *in.Join)
	case in.Message != nil:
		return r.Message(conn, *in.Message)
	case in.Typing != nil:
		return r.Typing(conn, *in.Typing)
	default:
		return Skipped
	}
}

// Session returns the session bound to conn, if any.
func (r *Router) Session(conn ConnID) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Get(conn)
}

// UsersInRoom returns a roster snapshot for room.
func (r *Router) UsersInRoom(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.UsersInRoom(room)
}

// TypingUsernames returns who is typing in room, leaving out exclude.
func (r *Router) TypingUsernames(room, exclude string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presence.TypingUsernames(r.registry, room, exclude)
}

// IsTyping reports whether conn is flagged as typing.
func (r *Router) IsTyping(conn ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presence.IsTyping(conn)
}

// SessionCount reports how many connections have joined a room.
func (r *Router) SessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Len()
}

func (r *Router) emit(recipients []ConnID, ev Outbound) {
	if len(recipients) == 0 || r.emitter == nil {
		return
	}
	r.emitter.Emit(recipients, ev)
}

func without(conns []ConnID, exclude ConnID) []ConnID {
	out := conns[:0:0]
	for _, c := range conns {
		if c != exclude {
			out = append(out, c)
		}
	}
	return out
}
