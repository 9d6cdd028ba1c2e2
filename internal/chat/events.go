package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event names carried in the "event" field of a frame.
const (
	EventJoin        = "join"
	EventMessage     = "message"
	EventTyping      = "typing"
	EventUserList    = "userList"
	EventTypingUsers = "typingUsers"
)

// ErrUnknownEvent is returned when a frame names an event the server does not accept.
var ErrUnknownEvent = errors.New("unknown event")

// MessageType distinguishes server notices from user chat lines.
type MessageType string

const (
	MessageTypeSystem MessageType = "system"
	MessageTypeUser   MessageType = "user"
)

// Envelope is the payload of an outbound "message" event.
type Envelope struct {
	Type      MessageType `json:"type"`
	Username  string      `json:"username"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// MarshalJSON leaves username off system notices. User lines always carry
// it, even when empty.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type      MessageType `json:"type"`
		Username  *string     `json:"username,omitempty"`
		Content   string      `json:"content"`
		Timestamp time.Time   `json:"timestamp"`
	}
	w := wire{Type: e.Type, Content: e.Content, Timestamp: e.Timestamp}
	if e.Type != MessageTypeSystem {
		w.Username = &e.Username
	}
	return json.Marshal(w)
}

// JoinPayload is sent by a client to enter a room.
type JoinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// MessagePayload carries a chat line from a client.
type MessagePayload struct {
	Content string `json:"content"`
	Room    string `json:"room"`
}

// TypingPayload toggles a client's typing indicator.
type TypingPayload struct {
	IsTyping bool   `json:"isTyping"`
	Room     string `json:"room"`
}

// Inbound is a decoded client frame. Exactly one payload field is set,
// matching Event.
type Inbound struct {
	Event   string
	Join    *JoinPayload
	Message *MessagePayload
	Typing  *TypingPayload
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// DecodeInbound parses a client frame of the form {"event": ..., "data": ...}.
func DecodeInbound(raw []byte) (Inbound, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Inbound{}, fmt.Errorf("decode frame: %w", err)
	}

	in := Inbound{Event: f.Event}
	var target any
	switch f.Event {
	case EventJoin:
		in.Join = &JoinPayload{}
		target = in.Join
	case EventMessage:
		in.Message = &MessagePayload{}
		target = in.Message
	case EventTyping:
		in.Typing = &TypingPayload{}
		target = in.Typing
	default:
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
	}

	if len(f.Data) > 0 {
		if err := json.Unmarshal(f.Data, target); err != nil {
			return Inbound{}, fmt.Errorf("decode %s payload: %w", f.Event, err)
		}
	}
	return in, nil
}

// Outbound is an event and its payload, sent to one or more connections.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// MarshalFrame encodes the event as a wire frame.
func (o Outbound) MarshalFrame() ([]byte, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", o.Event, err)
	}
	return b, nil
}

// SystemMessage builds a server notice.
func SystemMessage(content string, at time.Time) Outbound {
	return Outbound{Event: EventMessage, Data: Envelope{
		Type:      MessageTypeSystem,
		Content:   content,
		Timestamp: at,
	}}
}

// UserMessage builds a chat line attributed to username.
func UserMessage(username, content string, at time.Time) Outbound {
	return Outbound{Event: EventMessage, Data: Envelope{
		Type:      MessageTypeUser,
		Username:  username,
		Content:   content,
		Timestamp: at,
	}}
}

// UserList builds a full roster replacement.
func UserList(usernames []string) Outbound {
	return Outbound{Event: EventUserList, Data: nonNil(usernames)}
}

// TypingUsers builds the typing indicator list for one recipient group.
func TypingUsers(usernames []string) Outbound {
	return Outbound{Event: EventTypingUsers, Data: nonNil(usernames)}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
