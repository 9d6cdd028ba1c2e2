package chat

// Presence tracks which connections are currently typing.
type Presence struct {
	typing map[ConnID]struct{}
}

// NewPresence returns an empty typing set.
func NewPresence() *Presence {
	return &Presence{typing: make(map[ConnID]struct{})}
}

// SetTyping adds conn to or removes it from the typing set.
func (p *Presence) SetTyping(conn ConnID, isTyping bool) {
	if isTyping {
		p.typing[conn] = struct{}{}
		return
	}
	delete(p.typing, conn)
}

// Forget drops conn from the typing set.
func (p *Presence) Forget(conn ConnID) {
	delete(p.typing, conn)
}

// IsTyping reports whether conn is in the typing set.
func (p *Presence) IsTyping(conn ConnID) bool {
	_, ok := p.typing[conn]
	return ok
}

// Len reports the size of the typing set.
func (p *Presence) Len() int {
	return len(p.typing)
}

// TypingUsernames returns the usernames of typing connections joined to room,
// leaving out every entry named exclude. Exclusion is by name, so two
// connections sharing a username hide each other.
func (p *Presence) TypingUsernames(reg *Registry, room, exclude string) []string {
	names := make([]string, 0, len(p.typing))
	if len(p.typing) == 0 {
		return names
	}
	reg.each(func(conn ConnID, s Session) bool {
		if _, ok := p.typing[conn]; ok && s.Room == room && s.Username != exclude {
			names = append(names, s.Username)
		}
		return true
	})
	return names
}
