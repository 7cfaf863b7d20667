package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/assistkit/internal/schema"
)

// FunctionFn is the implementation behind a FunctionTool. Arguments are
// already validated.
type FunctionFn func(ctx context.Context, args map[string]any) (any, error)

// FunctionTool exposes a plain Go function as a Tool.
//
// Errors returned by Call are always *ToolError:
//
//	validation failure    -> Code VALIDATION_ERROR
//	*ToolError from fn    -> forwarded unchanged
//	any other error       -> Code EXECUTION_ERROR
//
// A FunctionTool has no mutable state and is safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          FunctionFn
}

// NewFunctionTool constructs a FunctionTool from an explicit schema.
//
// Example:
//
//	sum := tool.NewFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(_ context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(name, description string, parameters map[string]any, fn FunctionFn) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from the exported
// fields of structType (json, description and enum tags).
func NewFunctionToolFromStruct(name, description string, structType any, fn FunctionFn) *FunctionTool {
	return NewFunctionTool(name, description, schema.FromStruct(structType), fn)
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args then invokes the wrapped function.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	if err := schema.Validate(args, t.parameters); err != nil {
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
			Err:     err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}
		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
			Err:     err,
		}
	}
	return result, nil
}
