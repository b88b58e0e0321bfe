package modelbridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hupe1980/modelbridge/core"
	"github.com/hupe1980/modelbridge/loop"
	"github.com/hupe1980/modelbridge/model"
	"github.com/hupe1980/modelbridge/schema"
	"github.com/hupe1980/modelbridge/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateText(t *testing.T) {
	mock := model.NewMockModel("test").EnqueueText("4")
	client := New(mock)

	text, err := client.GenerateText(context.Background(), "2+2=?")
	require.NoError(t, err)
	assert.Equal(t, "4", text)
}

func TestGenerate_PassesInstructions(t *testing.T) {
	mock := model.NewMockModel("test")
	client := New(mock, func(o *Options) {
		o.Instructions = "Answer tersely."
	})

	resp, err := client.Generate(context.Background(), core.NewUserContent("hello"))
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", resp.Content.Text())
}

func TestStreamText(t *testing.T) {
	mock := model.NewMockModel("test").EnqueueText("the quick brown fox")
	client := New(mock)

	s := client.StreamText(context.Background(), "describe a fox")
	defer s.Close()

	var chunks int
	for s.Next() {
		chunks++
	}
	require.NoError(t, s.Err())
	assert.Greater(t, chunks, 1)
	assert.Equal(t, "the quick brown fox", s.Text())
	require.NotNil(t, s.Final())
	assert.Equal(t, "stop", s.Final().FinishReason)
}

type recipe struct {
	Name     string   `json:"name"`
	Servings int      `json:"servings"`
	Steps    []string `json:"steps"`
}

func TestGenerateObject(t *testing.T) {
	mock := model.NewMockModel("test").EnqueueText(
		`{"name": "toast", "servings": 1, "steps": ["slice bread", "toast it"]}`)
	client := New(mock)

	var out recipe
	err := client.GenerateObject(context.Background(), "a trivial breakfast recipe", &out)
	require.NoError(t, err)
	assert.Equal(t, "toast", out.Name)
	assert.Equal(t, 1, out.Servings)
	assert.Len(t, out.Steps, 2)
}

func TestGenerateObject_MismatchLeavesOutUntouched(t *testing.T) {
	mock := model.NewMockModel("test").EnqueueText(`{"name": "toast", "servings": "one"}`)
	client := New(mock)

	var out recipe
	err := client.GenerateObject(context.Background(), "a recipe", &out)
	require.Error(t, err)

	var mismatch *core.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "servings", mismatch.Path)
	assert.Equal(t, recipe{}, out)
}

func TestRunTools(t *testing.T) {
	mock := model.NewMockModel("test").
		EnqueueToolCall("call_1", "add", `{"a": 2, "b": 2}`).
		EnqueueText("The sum is 4.")
	client := New(mock)

	add := tool.NewFunctionTool("add", "Adds two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []string{"a", "b"},
		},
		func(tc *tool.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		})

	result, err := client.RunTools(context.Background(), "What is 2+2?", []tool.Tool{add})
	require.NoError(t, err)
	assert.Equal(t, loop.StateDone, result.State)
	assert.Equal(t, "The sum is 4.", result.Text)
	assert.Equal(t, 2, result.Steps)
}

func TestChat_KeepsHistoryPerSession(t *testing.T) {
	mock := model.NewMockModel("test").
		EnqueueText("Hi Ada!").
		EnqueueText("Your name is Ada.")
	client := New(mock)

	reply, err := client.Chat(context.Background(), "s1", "My name is Ada.")
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada!", reply)

	reply, err = client.Chat(context.Background(), "s1", "What is my name?")
	require.NoError(t, err)
	assert.Equal(t, "Your name is Ada.", reply)

	sess, err := client.opts.Sessions.Get("s1")
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 4)
}

func TestRequestTimeout(t *testing.T) {
	client := New(slowModel{}, func(o *Options) {
		o.RequestTimeout = 10 * time.Millisecond
	})

	_, err := client.GenerateText(context.Background(), "hi")
	require.Error(t, err)

	var timeoutErr *core.TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

// slowModel blocks until its context expires.
type slowModel struct{}

func (slowModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		<-ctx.Done()
		errCh <- ctx.Err()
	}()
	return respCh, errCh
}

func (slowModel) Info() model.Info {
	return model.Info{Name: "slow", Provider: "mock"}
}

func TestGenerateObject_SchemaFromStruct(t *testing.T) {
	s := schema.FromStruct(recipe{})
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), "servings")
}
