// Package session models one ongoing conversation.
package session

import (
	"time"

	"github.com/kailas-cloud/outing/internal/domain/facility"
)

// Role tags a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one history entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Retrieval is the typed record of the last search a turn executed, kept for later map turns.
type Retrieval struct {
	Query     string              `json:"query"`
	Location  string              `json:"location"`
	Documents []facility.Document `json:"documents"`
	At        time.Time           `json:"at"`
}

// Session is the persisted state of a conversation. Messages are most-recent-last.
type Session struct {
	ID             string     `json:"id"`
	Messages       []Message  `json:"messages"`
	CachedLocation string     `json:"cachedLocation,omitempty"`
	LastRetrieval  *Retrieval `json:"lastRetrieval,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// New creates an empty session.
func New(id string, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

// Append adds a message and bumps UpdatedAt.
func (s *Session) Append(role Role, content string, now time.Time) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
	s.UpdatedAt = now
}

// Recent returns up to n messages, most-recent-last.
func (s *Session) Recent(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// HasRetrieval reports whether a previous turn stored searchable results.
func (s *Session) HasRetrieval() bool {
	return s != nil && s.LastRetrieval != nil && len(s.LastRetrieval.Documents) > 0
}

// Clone returns a deep copy so stores never share slices with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	if s.LastRetrieval != nil {
		r := *s.LastRetrieval
		r.Documents = append([]facility.Document(nil), s.LastRetrieval.Documents...)
		c.LastRetrieval = &r
	}
	return &c
}
