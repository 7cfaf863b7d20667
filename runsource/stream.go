package runsource

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/logging"
)

// EmitFunc hands one event to the consumer. It blocks until the consumer
// received the event or the stream was closed, in which case it returns the
// context error.
type EmitFunc func(ev core.Event) error

// ProduceFunc drives a run, emitting events in arrival order. Its return
// value becomes the stream's terminal error.
type ProduceFunc func(ctx context.Context, emit EmitFunc) error

// Options configures a Stream.
type Options struct {
	// BufferSize of the event channel. Zero (the default) gives a
	// synchronous hand-off between producer and consumer.
	BufferSize int
	Logger     logging.Logger
}

// Stream is a core.Stream backed by a producer goroutine.
type Stream struct {
	id     string
	events chan core.Event
	done   chan struct{}
	cancel context.CancelFunc
	logger logging.Logger

	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex
	err       error
}

// Start launches produce in a new goroutine and returns the stream it feeds.
// The producer's context is derived from ctx and canceled by Close.
func Start(ctx context.Context, produce ProduceFunc, optFns ...func(o *Options)) *Stream {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		id:     core.NewID(),
		events: make(chan core.Event, opts.BufferSize),
		done:   make(chan struct{}),
		cancel: cancel,
		logger: logging.OrNoOp(opts.Logger),
	}

	go s.run(ctx, produce)
	return s
}

func (s *Stream) run(ctx context.Context, produce ProduceFunc) {
	defer close(s.done)
	defer close(s.events)
	defer s.cancel()

	emit := func(ev core.Event) error {
		select {
		case s.events <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := produce(ctx, emit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil && s.closed && errors.Is(err, context.Canceled) {
		err = nil
	}
	s.err = err
	if err != nil {
		s.logger.Warn("runsource.stream.failed", "stream_id", s.id, "error", err.Error())
		return
	}
	s.logger.Debug("runsource.stream.done", "stream_id", s.id)
}

// ID implements core.Stream.
func (s *Stream) ID() string { return s.id }

// Events implements core.Stream.
func (s *Stream) Events() <-chan core.Event { return s.events }

// Wait implements core.Stream.
func (s *Stream) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close implements core.Stream. Cancellation caused by Close is not reported
// as an error by Wait.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
	})
	<-s.done
	return nil
}

// Collect drains a stream into a slice and returns its terminal error.
// Mostly useful in tests and non-interactive callers.
func Collect(s core.Stream) ([]core.Event, error) {
	var evs []core.Event
	for ev := range s.Events() {
		evs = append(evs, ev)
	}
	return evs, s.Wait()
}
