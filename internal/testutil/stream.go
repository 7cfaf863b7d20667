package testutil

import (
	"sync"

	"github.com/hupe1980/assistkit/core"
)

// SliceStream is an in-memory core.Stream replaying a fixed event sequence
// and finishing with Err.
type SliceStream struct {
	events chan core.Event
	done   chan struct{}
	stop   chan struct{}
	once   sync.Once
	err    error

	mu        sync.Mutex
	delivered int
	closed    bool
}

// NewSliceStream starts replaying events; err is returned by Wait.
func NewSliceStream(events []core.Event, err error) *SliceStream {
	s := &SliceStream{
		events: make(chan core.Event),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.events)
		for _, ev := range events {
			select {
			case s.events <- ev:
				s.mu.Lock()
				s.delivered++
				s.mu.Unlock()
			case <-s.stop:
				return
			}
		}
		s.err = err
	}()
	return s
}

// ID implements core.Stream.
func (s *SliceStream) ID() string { return "slice-stream" }

// Events implements core.Stream.
func (s *SliceStream) Events() <-chan core.Event { return s.events }

// Wait implements core.Stream.
func (s *SliceStream) Wait() error {
	<-s.done
	return s.err
}

// Close implements core.Stream.
func (s *SliceStream) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stop)
	})
	<-s.done
	return nil
}

// Closed reports whether Close was called.
func (s *SliceStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Delivered returns the number of events handed to the consumer.
func (s *SliceStream) Delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered
}
