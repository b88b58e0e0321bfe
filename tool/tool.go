// Package tool implements the function calling subsystem that lets models
// invoke structured capabilities (APIs, computations, side effects) with
// schema validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/modelbridge/logging"
)

// Tool defines the caller-supplied execution boundary for model-initiated
// function calls. Tools are registered with a loop.Runner and invoked zero
// or more times per request, bounded by the loop's step limit.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case recommended)
//   - Define a proper JSON schema for parameters
//   - Be safe for concurrent use; calls in one batch may run in parallel
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is provided to the model to help it decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool. Arguments have been parsed from JSON and
	// validated against the tool's schema before Call is invoked.
	Call(tc *Context, args map[string]any) (any, error)
}

// Context carries per-invocation metadata into a tool execution. It is a
// direct in-process call contract; there is no network protocol behind it.
type Context struct {
	ctx    context.Context
	callID string
	logger logging.Logger
}

// NewContext constructs a tool invocation context.
func NewContext(ctx context.Context, callID string, logger logging.Logger) *Context {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Context{ctx: ctx, callID: callID, logger: logger}
}

// Context returns the request context governing this invocation.
func (c *Context) Context() context.Context { return c.ctx }

// CallID returns the function call identifier correlating model request and
// tool execution.
func (c *Context) CallID() string { return c.callID }

// Logger returns the logger scoped to this invocation.
func (c *Context) Logger() logging.Logger { return c.logger }

// Error represents a failure during tool argument validation or execution.
type Error struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // "VALIDATION_ERROR" or "EXECUTION_ERROR"
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}
