package loop

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/modelbridge/core"
	"github.com/hupe1980/modelbridge/tool"
)

// executeBatch runs a batch of function calls, possibly in parallel, and
// returns one FunctionResponsePart per call in the original call order.
// The first failure (unknown tool, execution error, panic) aborts the batch.
func (r *Runner) executeBatch(ctx context.Context, calls []core.FunctionCall) ([]core.Part, error) {
	n := len(calls)

	// Fast path: single call, execute inline.
	if n == 1 {
		part, err := r.executeSingle(ctx, calls[0])
		if err != nil {
			return nil, err
		}
		return []core.Part{part}, nil
	}

	maxPar := r.opts.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	parts := make([]core.Part, n)
	errs := make([]error, n)
	sem := make(chan struct{}, maxPar)
	var wg sync.WaitGroup

	batchStart := time.Now()
	for i := range calls {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				errs[idx] = ctx.Err()
				return
			}
			parts[idx], errs[idx] = r.executeSingle(ctx, fc)
		}(i, calls[i])
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			r.opts.Logger.Error("loop.batch.failed", "function", calls[i].Name, "error", err.Error())
			return nil, err
		}
	}

	r.opts.Logger.Debug("loop.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)
	return parts, nil
}

// executeSingle resolves, validates and runs one function call with panic
// recovery. Unknown tools and execution failures surface as
// *core.ToolExecutionError.
func (r *Runner) executeSingle(ctx context.Context, fc core.FunctionCall) (core.Part, error) {
	impl, ok := r.tools[fc.Name]
	if !ok {
		return nil, &core.ToolExecutionError{Tool: fc.Name, Unknown: true}
	}

	callID := fc.ID
	if callID == "" {
		callID = uuid.NewString()
	}

	var argMap map[string]any
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &argMap); err != nil {
			return nil, &core.ToolExecutionError{Tool: fc.Name, Err: fmt.Errorf("unmarshal args: %w", err)}
		}
	} else {
		argMap = map[string]any{}
	}

	tc := tool.NewContext(ctx, callID, r.opts.Logger)
	start := time.Now()

	var (
		result any
		err    error
	)
	func() { // panic safety
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
				r.opts.Logger.Error("loop.function.panic", "function", fc.Name, "recover", rec)
			}
		}()
		result, err = impl.Call(tc, argMap)
	}()

	r.opts.Logger.Info("loop.function.executed",
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		return nil, &core.ToolExecutionError{Tool: fc.Name, Err: err}
	}

	return core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
		ID:       callID,
		Name:     fc.Name,
		Response: result,
	}}, nil
}
