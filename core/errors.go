package core

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is returned when the run source cannot be reached
	// or authenticated.
	ErrSourceUnavailable = errors.New("run source unavailable")

	// ErrSinkWrite is returned when the output sink rejects a write.
	ErrSinkWrite = errors.New("output sink write failed")

	// ErrStreamDone is returned when an event is dispatched after the stream
	// reached its terminal state.
	ErrStreamDone = errors.New("stream already done")

	// ErrMissingCredentials is returned when a session is constructed without
	// credentials.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrRunFailed is returned when the remote run ends in a failed state.
	ErrRunFailed = errors.New("run failed")
)

// SourceError describes a run source failure with provider and operation
// context. Unavailable marks failures that match ErrSourceUnavailable.
type SourceError struct {
	Provider    string
	Op          string
	StatusCode  int
	Unavailable bool
	Err         error
}

// Error implements error.
func (e *SourceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed (status %d): %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error { return e.Err }

// Is reports ErrSourceUnavailable for unavailable failures.
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable && e.Unavailable
}

// RunError carries the remote failure reported by a run.
type RunError struct {
	RunID   string
	Code    string
	Message string
}

// Error implements error.
func (e *RunError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("run %s failed [%s]: %s", e.RunID, e.Code, e.Message)
	}
	return fmt.Sprintf("run %s failed: %s", e.RunID, e.Message)
}

// Is matches ErrRunFailed.
func (e *RunError) Is(target error) bool { return target == ErrRunFailed }

// IsUnavailableStatus reports whether an HTTP status code means the source
// cannot currently serve the caller (authentication, rate limit, outage).
func IsUnavailableStatus(code int) bool {
	switch {
	case code == 401, code == 403, code == 429:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}
