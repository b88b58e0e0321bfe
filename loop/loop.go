// Package loop drives the multi-step interaction between model output and
// externally executed tools. A Runner repeatedly calls the model, executes
// any requested tools and feeds their results back into the conversation,
// bounded by a configurable step limit.
//
// State machine:
//
//	AwaitingModel -> ExecutingTool  model requested a declared tool
//	ExecutingTool -> AwaitingModel  tool result appended, fed back
//	*             -> Done           final answer, or step limit reached
//	*             -> Aborted        tool failed or tool name unknown
//
// A step is one model round-trip. Reaching the step limit terminates the
// loop in Done, not Aborted; tool failures are surfaced to the caller as
// *core.ToolExecutionError and never swallowed.
package loop

import (
	"context"

	"github.com/hupe1980/modelbridge/core"
	"github.com/hupe1980/modelbridge/logging"
	"github.com/hupe1980/modelbridge/model"
	"github.com/hupe1980/modelbridge/tool"
)

// State identifies the loop's position in its lifecycle.
type State int

const (
	// StateAwaitingModel means a model round-trip is in flight or pending.
	StateAwaitingModel State = iota
	// StateExecutingTool means requested tools are being executed.
	StateExecutingTool
	// StateDone is the successful terminal state.
	StateDone
	// StateAborted is the failure terminal state.
	StateAborted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "AwaitingModel"
	case StateExecutingTool:
		return "ExecutingTool"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Options configure a Runner.
type Options struct {
	// MaxSteps bounds the number of model round-trips. Reaching the bound
	// ends the loop in Done.
	MaxSteps int
	// MaxParallel limits concurrent tool executions within one batch.
	// 0 or less means no explicit limit.
	MaxParallel int
	// Instructions are passed as system instructions on every model call.
	Instructions string
	// Logger receives structured loop and tool events.
	Logger logging.Logger
}

// Runner executes the tool-call loop against a model and a tool registry.
type Runner struct {
	model model.Model
	tools map[string]tool.Tool
	opts  Options
}

// Result is the terminal outcome of a loop run.
type Result struct {
	State    State          // Done or Aborted
	Text     string         // text of the final assistant message
	Steps    int            // model round-trips performed
	Messages []core.Content // full transcript including tool responses
}

// NewRunner constructs a Runner over the given model and tools.
func NewRunner(m model.Model, tools []tool.Tool, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxSteps: 5,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	registry := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		registry[t.Name()] = t
	}
	return &Runner{model: m, tools: registry, opts: opts}
}

// Run drives the loop to a terminal state. The returned Result is non-nil
// even on error so callers can inspect the transcript and state; err is
// non-nil exactly when the loop aborted.
func (r *Runner) Run(ctx context.Context, contents ...core.Content) (*Result, error) {
	result := &Result{State: StateAwaitingModel, Messages: contents}

	req := model.Request{
		Instructions: r.opts.Instructions,
		Tools:        r.declarations(),
	}

	for {
		req.Contents = result.Messages

		respCh, errCh := r.model.Generate(ctx, req)
		resp, err := model.Final(ctx, respCh, errCh)
		if err != nil {
			result.State = StateAborted
			return result, err
		}
		result.Steps++
		result.Messages = append(result.Messages, resp.Content)
		result.Text = resp.Content.Text()

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			result.State = StateDone
			r.opts.Logger.Info("loop.done", "steps", result.Steps)
			return result, nil
		}

		if result.Steps >= r.opts.MaxSteps {
			// Out of round-trips: stop cleanly rather than abort.
			result.State = StateDone
			r.opts.Logger.Warn("loop.step_limit_reached", "steps", result.Steps, "pending_calls", len(calls))
			return result, nil
		}

		result.State = StateExecutingTool
		responses, err := r.executeBatch(ctx, calls)
		if err != nil {
			result.State = StateAborted
			return result, err
		}
		result.Messages = append(result.Messages, core.Content{Role: "tool", Parts: responses})
		result.State = StateAwaitingModel
	}
}

// declarations converts the registry into model tool declarations.
func (r *Runner) declarations() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}
