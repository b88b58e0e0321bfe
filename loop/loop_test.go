package loop

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/modelbridge/core"
	"github.com/hupe1980/modelbridge/model"
	"github.com/hupe1980/modelbridge/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weatherTool(t *testing.T) tool.Tool {
	t.Helper()
	return tool.NewFunctionTool("get_weather", "Weather lookup",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string"},
			},
			"required": []string{"city"},
		},
		func(_ *tool.Context, args map[string]any) (any, error) {
			return "sunny in " + args["city"].(string), nil
		})
}

func TestRunner_ToolCallThenAnswerEndsDoneAfterTwoSteps(t *testing.T) {
	m := model.NewMockModel("test").
		EnqueueToolCall("fc1", "get_weather", `{"city":"Berlin"}`).
		EnqueueText("It is sunny in Berlin.")

	r := NewRunner(m, []tool.Tool{weatherTool(t)}, func(o *Options) { o.MaxSteps = 2 })
	result, err := r.Run(context.Background(), core.NewUserContent("weather in Berlin?"))
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 2, result.Steps)
	assert.Equal(t, "It is sunny in Berlin.", result.Text)

	// Transcript: user, assistant(tool call), tool, assistant(answer).
	require.Len(t, result.Messages, 4)
	assert.Equal(t, "tool", result.Messages[2].Role)
}

func TestRunner_ToolResultFedBack(t *testing.T) {
	m := model.NewMockModel("test").
		EnqueueToolCall("fc1", "get_weather", `{"city":"Oslo"}`).
		EnqueueText("done")

	r := NewRunner(m, []tool.Tool{weatherTool(t)})
	result, err := r.Run(context.Background(), core.NewUserContent("weather?"))
	require.NoError(t, err)

	toolMsg := result.Messages[2]
	require.Len(t, toolMsg.Parts, 1)
	fr, ok := toolMsg.Parts[0].(core.FunctionResponsePart)
	require.True(t, ok)
	assert.Equal(t, "fc1", fr.FunctionResponse.ID)
	assert.Equal(t, "sunny in Oslo", fr.FunctionResponse.Response)
}

func TestRunner_StepLimitReachedIsDoneNotAborted(t *testing.T) {
	// The model wants a tool on every turn; the limit must cut it off cleanly.
	m := model.NewMockModel("test").
		EnqueueToolCall("fc1", "get_weather", `{"city":"Berlin"}`).
		EnqueueToolCall("fc2", "get_weather", `{"city":"Oslo"}`).
		EnqueueToolCall("fc3", "get_weather", `{"city":"Rome"}`)

	r := NewRunner(m, []tool.Tool{weatherTool(t)}, func(o *Options) { o.MaxSteps = 2 })
	result, err := r.Run(context.Background(), core.NewUserContent("loop forever"))
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 2, result.Steps)
}

func TestRunner_UnknownToolAborts(t *testing.T) {
	m := model.NewMockModel("test").
		EnqueueToolCall("fc1", "launch_rocket", `{}`)

	r := NewRunner(m, []tool.Tool{weatherTool(t)})
	result, err := r.Run(context.Background(), core.NewUserContent("go"))
	require.Error(t, err)

	assert.Equal(t, StateAborted, result.State)

	var toolErr *core.ToolExecutionError
	require.ErrorAs(t, err, &toolErr)
	assert.True(t, toolErr.Unknown)
	assert.Equal(t, "launch_rocket", toolErr.Tool)
}

func TestRunner_ToolFailureAborts(t *testing.T) {
	failing := tool.NewFunctionTool("explode", "Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *tool.Context, _ map[string]any) (any, error) {
			return nil, errors.New("kaboom")
		})

	m := model.NewMockModel("test").
		EnqueueToolCall("fc1", "explode", `{}`)

	r := NewRunner(m, []tool.Tool{failing})
	result, err := r.Run(context.Background(), core.NewUserContent("go"))
	require.Error(t, err)

	assert.Equal(t, StateAborted, result.State)

	var toolErr *core.ToolExecutionError
	require.ErrorAs(t, err, &toolErr)
	assert.False(t, toolErr.Unknown)
	assert.Contains(t, err.Error(), "explode")
}

func TestRunner_ParallelBatchPreservesCallOrder(t *testing.T) {
	echo := tool.NewFunctionTool("echo", "Echo city",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{"v": map[string]any{"type": "string"}},
			"required":   []string{"v"},
		},
		func(_ *tool.Context, args map[string]any) (any, error) {
			return args["v"], nil
		})

	r := NewRunner(model.NewMockModel("test"), []tool.Tool{echo}, func(o *Options) { o.MaxParallel = 2 })

	calls := []core.FunctionCall{
		{ID: "a", Name: "echo", Arguments: `{"v":"first"}`},
		{ID: "b", Name: "echo", Arguments: `{"v":"second"}`},
		{ID: "c", Name: "echo", Arguments: `{"v":"third"}`},
	}
	parts, err := r.executeBatch(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, parts, 3)

	want := []string{"first", "second", "third"}
	for i, p := range parts {
		fr := p.(core.FunctionResponsePart)
		assert.Equal(t, want[i], fr.FunctionResponse.Response)
	}
}

func TestRunner_PanicInToolAborts(t *testing.T) {
	panicky := tool.NewFunctionTool("panic", "Panics",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *tool.Context, _ map[string]any) (any, error) {
			panic("unexpected")
		})

	m := model.NewMockModel("test").
		EnqueueToolCall("fc1", "panic", `{}`)

	r := NewRunner(m, []tool.Tool{panicky})
	result, err := r.Run(context.Background(), core.NewUserContent("go"))
	require.Error(t, err)
	assert.Equal(t, StateAborted, result.State)

	var toolErr *core.ToolExecutionError
	require.ErrorAs(t, err, &toolErr)
}

func TestRunner_GeneratesCallIDWhenMissing(t *testing.T) {
	m := model.NewMockModel("test").
		EnqueueToolCall("", "get_weather", `{"city":"Rome"}`).
		EnqueueText("ok")

	r := NewRunner(m, []tool.Tool{weatherTool(t)})
	result, err := r.Run(context.Background(), core.NewUserContent("go"))
	require.NoError(t, err)

	fr := result.Messages[2].Parts[0].(core.FunctionResponsePart)
	assert.NotEmpty(t, fr.FunctionResponse.ID)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "AwaitingModel", StateAwaitingModel.String())
	assert.Equal(t, "ExecutingTool", StateExecutingTool.String())
	assert.Equal(t, "Done", StateDone.String())
	assert.Equal(t, "Aborted", StateAborted.String())
}
