package session

import (
	"errors"
	"time"
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("session: conversation not found")

// Conversation binds a caller chosen key to remote assistant state.
type Conversation struct {
	Key         string
	AssistantID string
	ThreadID    string
	// Turns counts the prompts sent on this thread.
	Turns     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists conversations. Implementations must be safe for concurrent
// use and must not share Conversation values with callers.
type Store interface {
	Get(key string) (Conversation, error)
	Save(c Conversation) error
	Delete(key string) error
}
