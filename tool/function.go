package tool

import (
	"time"

	"github.com/hupe1980/modelbridge/schema"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a Tool.
//
// Responsibilities:
//   - Holds a JSON-Schema parameter specification
//   - Validates model supplied arguments against that schema before execution
//   - Normalizes error handling so callers receive *Error with consistent codes:
//     VALIDATION_ERROR -> schema / argument mismatch
//     EXECUTION_ERROR  -> underlying function returned an error
//
// A FunctionTool has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(tc *Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
// Example:
//
//	sumTool := NewFunctionTool(
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
//	  func(tc *Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(tc *Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using
// reflection, equivalent to schema.FromStruct(structType).
//
// Example:
//
//	type SumArgs struct {
//	  A float64 `json:"a" description:"First addend"`
//	  B float64 `json:"b" description:"Second addend"`
//	}
//
//	sumTool := NewFunctionToolFromStruct("calculate_sum", "Calculate the sum", SumArgs{}, fn)
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(tc *Context, args map[string]any) (any, error),
) *FunctionTool {
	return NewFunctionTool(name, description, schema.FromStruct(structType), fn)
}

// Name returns the unique tool name used in function call declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates the provided args against the declared schema then invokes
// the underlying function. Validation or execution failures are wrapped as
// *Error for uniform downstream handling; a *Error returned by the function
// itself is forwarded unchanged.
func (t *FunctionTool) Call(tc *Context, args map[string]any) (any, error) {
	logger := tc.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "fc_id", tc.CallID())

	if args == nil {
		args = map[string]any{}
	}
	if err := schema.Validate(args, t.parameters); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())
		return nil, &Error{Tool: t.name, Message: err.Error(), Code: "VALIDATION_ERROR"}
	}

	result, err := t.fn(tc, args)
	if err != nil {
		if toolErr, ok := err.(*Error); ok {
			logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)
			return nil, toolErr
		}
		logger.Error("tool.call.error", "tool", t.name, "error", err.Error())
		return nil, &Error{Tool: t.name, Message: err.Error(), Code: "EXECUTION_ERROR"}
	}

	logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
