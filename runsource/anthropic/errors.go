package anthropic

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/assistkit/core"
)

func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &core.SourceError{
			Provider:    "anthropic",
			Op:          op,
			StatusCode:  apiErr.StatusCode,
			Unavailable: core.IsUnavailableStatus(apiErr.StatusCode),
			Err:         err,
		}
	}
	return &core.SourceError{Provider: "anthropic", Op: op, Unavailable: true, Err: err}
}
