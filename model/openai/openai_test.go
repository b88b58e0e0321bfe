package openai

import (
	"strings"
	"testing"

	"github.com/hupe1980/modelbridge/core"
	"github.com/hupe1980/modelbridge/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalChunk_ToolCallsOrderedByDeltaIndex(t *testing.T) {
	var builder strings.Builder
	toolAgg := map[int64]*aggCall{
		2: {id: "call_c", name: "third", args: "{}"},
		0: {id: "call_a", name: "first", args: "{}"},
		1: {id: "call_b", name: "second", args: "{}"},
	}

	resp := finalChunk("chatcmpl-1", "tool_calls", &builder, toolAgg)

	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"call_a", "call_b", "call_c"},
		[]string{calls[0].ID, calls[1].ID, calls[2].ID})
}

func TestBuildMessages_AssistantTextSurvivesToolCalls(t *testing.T) {
	messages, err := buildMessages(model.Request{
		Contents: []core.Content{
			core.NewUserContent("weather?"),
			{Role: "assistant", Parts: []core.Part{
				core.TextPart{Text: "Let me check."},
				core.FunctionCallPart{FunctionCall: core.FunctionCall{
					ID:        "call_1",
					Name:      "get_weather",
					Arguments: `{"city":"Berlin"}`,
				}},
			}},
			{Role: "tool", Parts: []core.Part{
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
					ID:       "call_1",
					Name:     "get_weather",
					Response: "sunny",
				}},
			}},
		},
	})
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assistant := messages[1].OfAssistant
	require.NotNil(t, assistant)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "Let me check.", assistant.Content.OfString.Value)

	toolMsg := messages[2].OfTool
	require.NotNil(t, toolMsg)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
}
