package runsource

// RawJSONer is implemented by vendor SDK response types that keep their raw
// JSON payload.
type RawJSONer interface {
	RawJSON() string
}

// SDKStream is the iterator shape shared by the vendor ssestream packages.
type SDKStream[T RawJSONer] interface {
	Next() bool
	Current() T
	Err() error
	Close() error
}

// RawIterator walks raw JSON events.
type RawIterator interface {
	Next() bool
	Raw() string
	Err() error
	Close() error
}

type sdkIterator[T RawJSONer] struct {
	s SDKStream[T]
}

// FromSDK adapts a vendor SSE stream to a RawIterator.
func FromSDK[T RawJSONer](s SDKStream[T]) RawIterator {
	return &sdkIterator[T]{s: s}
}

func (it *sdkIterator[T]) Next() bool   { return it.s.Next() }
func (it *sdkIterator[T]) Raw() string  { return it.s.Current().RawJSON() }
func (it *sdkIterator[T]) Err() error   { return it.s.Err() }
func (it *sdkIterator[T]) Close() error { return it.s.Close() }

// SliceIterator is a RawIterator over fixed payloads, terminating with Fail.
type SliceIterator struct {
	Payloads []string
	Fail     error

	pos       int
	exhausted bool
	closed    bool
}

// Next implements RawIterator.
func (it *SliceIterator) Next() bool {
	if it.closed || it.pos >= len(it.Payloads) {
		it.exhausted = true
		return false
	}
	it.pos++
	return true
}

// Raw implements RawIterator.
func (it *SliceIterator) Raw() string { return it.Payloads[it.pos-1] }

// Err implements RawIterator.
func (it *SliceIterator) Err() error {
	if it.exhausted {
		return it.Fail
	}
	return nil
}

// Close implements RawIterator.
func (it *SliceIterator) Close() error {
	it.closed = true
	return nil
}

// Closed reports whether Close was called.
func (it *SliceIterator) Closed() bool { return it.closed }
