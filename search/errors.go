package search

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrMissingAPIKey is returned by New when no API key is given.
	ErrMissingAPIKey = errors.New("search: api key is missing")
	// ErrInvalidAPIKey is returned when the service rejects the API key.
	ErrInvalidAPIKey = errors.New("search: invalid api key")
	// ErrUsageLimitExceeded is returned when the plan's quota is exhausted.
	ErrUsageLimitExceeded = errors.New("search: usage limit exceeded")
)

// Plan and pay-as-you-go quota responses.
const (
	statusPlanLimit  = 432
	statusPayGoLimit = 433
)

// APIError is a non-success response from the search service.
type APIError struct {
	StatusCode int
	Detail     string
	kind       error
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("search: status %d", e.StatusCode)
	}
	return fmt.Sprintf("search: status %d: %s", e.StatusCode, e.Detail)
}

// Unwrap exposes ErrInvalidAPIKey or ErrUsageLimitExceeded when applicable.
func (e *APIError) Unwrap() error { return e.kind }

func newAPIError(status int, body []byte) *APIError {
	detail := gjson.GetBytes(body, "detail.error").String()
	if detail == "" {
		detail = gjson.GetBytes(body, "detail").String()
	}
	if detail == "" {
		detail = gjson.GetBytes(body, "error").String()
	}

	e := &APIError{StatusCode: status, Detail: detail}
	switch status {
	case http.StatusUnauthorized:
		e.kind = ErrInvalidAPIKey
	case http.StatusTooManyRequests, statusPlanLimit, statusPayGoLimit:
		e.kind = ErrUsageLimitExceeded
	}
	return e
}
