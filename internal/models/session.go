package models

import (
	"time"
)

// Turn is one question/answer exchange.
type Turn struct {
	Query         string    `json:"query"`
	ImageAttached bool      `json:"image_attached"`
	Answer        string    `json:"answer"`
	Status        []string  `json:"status"`
	Context       Context   `json:"context"`
	At            time.Time `json:"at"`
}

// Session is the conversation owned by the caller. It is never persisted.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     []Turn    `json:"turns"`
}

// WithTurn returns a copy of the session with t appended.
func (s Session) WithTurn(t Turn) Session {
	turns := make([]Turn, len(s.Turns), len(s.Turns)+1)
	copy(turns, s.Turns)
	s.Turns = append(turns, t)
	s.UpdatedAt = t.At
	return s
}
