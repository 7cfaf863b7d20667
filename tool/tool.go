// Package tool implements the function tools an assistant can call while a
// run is paused for outputs. Arguments are validated against each tool's
// JSON schema and failures are reported as *ToolError with a stable code.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/assistkit/internal/schema"
)

// Tool is a callable capability exposed to the model as a function.
type Tool interface {
	// Name is the function name the model calls (snake_case).
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// Parameters is the JSON schema of the arguments object.
	Parameters() map[string]any

	// Call executes the tool with decoded arguments. The result must be JSON
	// serializable; strings are passed to the model verbatim.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError describes an argument that violated the tool schema.
type ValidationError = schema.ValidationError

// Error codes carried by ToolError.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeExecution        = "EXECUTION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidArguments = "INVALID_ARGUMENTS"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
	// Err is the underlying cause, if any.
	Err error `json:"-"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error { return e.Err }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
