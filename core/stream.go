package core

// Stream is the Run Source contract: a push-driven producer of Events for a
// single run.
//
// Events are delivered in arrival order over an unbuffered channel, so the
// producer hands each event over synchronously and waits for the consumer
// before producing the next one. The channel is closed when the run ends,
// successfully or not.
type Stream interface {
	// ID returns the stream correlation id.
	ID() string
	// Events returns the ordered event channel.
	Events() <-chan Event
	// Wait blocks until the stream is done and returns the terminal error,
	// if any.
	Wait() error
	// Close stops the producer and releases its resources. It is safe to
	// call Close more than once and after Wait returned.
	Close() error
}
