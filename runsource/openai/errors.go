package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"

	"github.com/hupe1980/assistkit/core"
)

// ErrNoToolExecutor is returned when a run pauses for function outputs but
// the session has no ToolExecutor.
var ErrNoToolExecutor = errors.New("openai: run requires tool outputs but no tool executor is configured")

// classify wraps SDK failures into core.SourceError. Context errors pass
// through untouched so cancellation stays recognizable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &core.SourceError{
			Provider:    "openai",
			Op:          op,
			StatusCode:  apiErr.StatusCode,
			Unavailable: core.IsUnavailableStatus(apiErr.StatusCode),
			Err:         err,
		}
	}

	// transport level failures: the source could not be reached
	return &core.SourceError{Provider: "openai", Op: op, Unavailable: true, Err: err}
}
