package testutil

import (
	"errors"
	"strings"
	"sync"
)

// RecordingSink is an io.Writer that records every Write call separately.
type RecordingSink struct {
	mu      sync.Mutex
	writes  []string
	flushes int
}

// Write implements io.Writer.
func (s *RecordingSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, string(p))
	return len(p), nil
}

// Flush records a flush; it makes the sink look buffered to dispatchers.
func (s *RecordingSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

// Writes returns a copy of the recorded writes in order.
func (s *RecordingSink) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.writes...)
}

// Flushes returns the number of Flush calls.
func (s *RecordingSink) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// String returns the concatenation of all writes.
func (s *RecordingSink) String() string {
	return strings.Join(s.Writes(), "")
}

// ErrSinkClosed is returned by FailingSink.
var ErrSinkClosed = errors.New("sink closed")

// FailingSink accepts the first N writes and rejects every write after that.
type FailingSink struct {
	RecordingSink
	Accept int
}

// Write implements io.Writer.
func (s *FailingSink) Write(p []byte) (int, error) {
	if len(s.Writes()) >= s.Accept {
		return 0, ErrSinkClosed
	}
	return s.RecordingSink.Write(p)
}
