package domain

import "errors"

// ErrSessionNotFound is returned by session stores for unknown user ids.
var ErrSessionNotFound = errors.New("session not found")

// Message is one role-tagged entry of a transcript.
type Message struct {
	Role      Role
	Content   string
	CreatedAt Timestamp
}

// Session is the transcript of a single user with one persona.
// It lives only as long as the process.
type Session struct {
	UserID    UserID
	CreatedAt Timestamp
	UpdatedAt Timestamp

	Messages []Message
}

// Clone returns a deep copy safe to hand out of a store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	return &out
}
