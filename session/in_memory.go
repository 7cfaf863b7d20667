package session

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// InMemoryStore is a volatile Store backed by a process local map. It is
// best suited for tests and single process CLIs.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]Conversation
	now           func() time.Time
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string]Conversation),
		now:           time.Now,
	}
}

// Get returns the conversation stored under key or ErrNotFound.
func (s *InMemoryStore) Get(key string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[key]
	if !ok {
		return Conversation{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return c, nil
}

// Save creates or replaces the conversation under c.Key. CreatedAt is kept
// from an existing entry; UpdatedAt is refreshed.
func (s *InMemoryStore) Save(c Conversation) error {
	if c.Key == "" {
		return fmt.Errorf("session: conversation key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if prev, ok := s.conversations[c.Key]; ok && !prev.CreatedAt.IsZero() {
		c.CreatedAt = prev.CreatedAt
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.conversations[c.Key] = c
	return nil
}

// Delete removes key. Deleting an unknown key is not an error.
func (s *InMemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, key)
	return nil
}

// Keys lists stored keys in sorted order.
func (s *InMemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.conversations))
	for k := range s.conversations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
