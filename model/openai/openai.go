// Package openai provides a transport adapter for the OpenAI Chat
// Completions API (including streaming, function/tool calling, image
// attachments and embeddings). It translates modelbridge's normalized
// Request/Response structures into the SDK's message format and back, and
// classifies SDK failures into the core error taxonomy.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/modelbridge/core"
	"github.com/hupe1980/modelbridge/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// aggCall aggregates partial tool call streaming deltas (id, name, arguments)
// allowing reconstruction of complete function call parts when finish reason
// is emitted.
type aggCall struct{ id, name, args string }

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string // falls back to OPENAI_API_KEY
	BaseURL             string // optional, for OpenAI-compatible endpoints
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements unified streaming / non-streaming generation. One call
// maps to exactly one outbound request; no retries happen here.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		messages, err := buildMessages(req)
		if err != nil {
			errCh <- err
			return
		}
		params := m.buildParams(req, messages)
		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()
	return out, errCh
}

// buildMessages converts normalized contents into OpenAI chat messages while
// attaching matching tool responses immediately after assistant tool calls.
func buildMessages(req model.Request) ([]openai.ChatCompletionMessageParamUnion, error) {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	toolResponses, order := collectToolResponses(req.Contents)

	for _, c := range req.Contents {
		if c.Role == "tool" {
			continue
		}
		switch c.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(c.Text()))
		case "assistant":
			toolCalls, callIDs := extractToolCalls(c)
			if len(toolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(c.Text()))
				continue
			}
			assistantMsg := openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			}
			if text := c.Text(); text != "" {
				assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(text),
				}
			}
			messages = append(
				messages,
				openai.ChatCompletionMessageParamUnion{OfAssistant: &assistantMsg},
			)
			for _, id := range callIDs {
				if id == "" {
					continue
				}
				if resp, ok := toolResponses[id]; ok {
					messages = append(messages, openai.ToolMessage(resp, id))
					delete(toolResponses, id)
				}
			}
		default: // user and unknown roles
			userMsg, err := buildUserMessage(c)
			if err != nil {
				return nil, err
			}
			messages = append(messages, userMsg)
		}
	}

	// Tool responses whose originating assistant call is not in the history.
	for _, id := range order {
		if resp, ok := toolResponses[id]; ok {
			messages = append(messages, openai.ToolMessage(resp, id))
		}
	}
	return messages, nil
}

// buildUserMessage renders user content into either a plain text message or
// a multi-part message carrying image attachments as data URIs.
func buildUserMessage(c core.Content) (openai.ChatCompletionMessageParamUnion, error) {
	var parts []openai.ChatCompletionContentPartUnionParam
	multiPart := false

	for _, p := range c.Parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				parts = append(parts, openai.TextContentPart(part.Text))
			}
		case core.FilePart:
			if !strings.HasPrefix(part.MediaType, "image/") {
				return openai.ChatCompletionMessageParamUnion{}, &core.ProviderError{
					Provider:   "openai",
					StatusCode: 400,
					Message:    fmt.Sprintf("unsupported attachment media type %q", part.MediaType),
				}
			}
			dataURI := fmt.Sprintf("data:%s;base64,%s", part.MediaType, base64.StdEncoding.EncodeToString(part.Data))
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURI}))
			multiPart = true
		}
	}

	if !multiPart {
		return openai.UserMessage(c.Text()), nil
	}
	return openai.UserMessage(parts), nil
}

// collectToolResponses indexes tool (function) responses by id preserving first-seen order.
func collectToolResponses(contents []core.Content) (map[string]string, []string) {
	responses := map[string]string{}
	order := []string{}
	for _, c := range contents {
		if c.Role != "tool" {
			continue
		}
		for _, p := range c.Parts {
			fr, ok := p.(core.FunctionResponsePart)
			if !ok || fr.FunctionResponse.ID == "" {
				continue
			}
			if _, exists := responses[fr.FunctionResponse.ID]; exists {
				continue
			}
			var text string
			if s, ok := fr.FunctionResponse.Response.(string); ok {
				text = s
			} else {
				text = fmt.Sprintf("%v", fr.FunctionResponse.Response)
			}
			if fr.FunctionResponse.Error != "" {
				text = fr.FunctionResponse.Error
			}
			responses[fr.FunctionResponse.ID] = text
			order = append(order, fr.FunctionResponse.ID)
		}
	}
	return responses, order
}

// extractToolCalls extracts tool call parts and returns OpenAI formatted tool calls + ordered IDs.
func extractToolCalls(c core.Content) ([]openai.ChatCompletionMessageToolCallParam, []string) {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	var callIDs []string
	for _, p := range c.Parts {
		if fc, ok := p.(core.FunctionCallPart); ok {
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
				ID:   fc.FunctionCall.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      fc.FunctionCall.Name,
					Arguments: fc.FunctionCall.Arguments,
				},
			})
			callIDs = append(callIDs, fc.FunctionCall.ID)
		}
	}
	return toolCalls, callIDs
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (m *Model) buildParams(
	req model.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Name,
				Description: openai.String(tdef.Description),
				Parameters:  tdef.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// handleStreaming processes streaming responses and forwards partial / final events.
func (m *Model) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var textBuilder strings.Builder
	toolAgg := map[int64]*aggCall{}
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				textBuilder.WriteString(ch.Delta.Content)
				select {
				case <-ctx.Done():
					errCh <- classify(ctx.Err())
					return
				case out <- model.Response{
					ID:      ck.ID,
					Partial: true,
					Content: core.Content{
						Role:  "assistant",
						Parts: []core.Part{core.TextPart{Text: ch.Delta.Content}},
					},
				}:
				}
			}
			for _, tc := range ch.Delta.ToolCalls {
				ac, ok := toolAgg[tc.Index]
				if !ok {
					ac = &aggCall{}
					toolAgg[tc.Index] = ac
				}
				if tc.ID != "" {
					ac.id = tc.ID
				}
				if tc.Function.Name != "" {
					ac.name = tc.Function.Name
				}
				if tc.Function.Arguments != "" {
					ac.args += tc.Function.Arguments
				}
			}
			if ch.FinishReason != "" {
				out <- finalChunk(ck.ID, ch.FinishReason, &textBuilder, toolAgg)
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- classify(err)
	}
}

// finalChunk assembles the terminal response from accumulated deltas.
func finalChunk(id, finishReason string, builder *strings.Builder, toolAgg map[int64]*aggCall) model.Response {
	finalParts := make([]core.Part, 0, len(toolAgg)+1)
	if builder.Len() > 0 {
		finalParts = append(finalParts, core.TextPart{Text: builder.String()})
	}
	indices := make([]int64, 0, len(toolAgg))
	for idx := range toolAgg {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	for _, idx := range indices {
		ac := toolAgg[idx]
		finalParts = append(finalParts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        ac.id,
			Name:      ac.name,
			Arguments: ac.args,
		}})
	}
	return model.Response{
		ID:           id,
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: finalParts},
		FinishReason: finishReason,
	}
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- classify(err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- &core.ProviderError{Provider: "openai", StatusCode: 200, Message: "no choices returned"}
		return
	}
	ch0 := resp.Choices[0]
	parts := make([]core.Part, 0, len(ch0.Message.ToolCalls)+1)
	if ch0.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: ch0.Message.Content})
	}
	for _, tc := range ch0.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}
	out <- model.Response{
		ID:           resp.ID,
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// classify maps SDK and context errors into the core taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.TimeoutError{Provider: "openai", Message: err.Error()}
	}
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case 401, 403:
			return &core.AuthError{Provider: "openai", Message: apierr.Message}
		default:
			return &core.ProviderError{Provider: "openai", StatusCode: apierr.StatusCode, Message: apierr.Message}
		}
	}
	return fmt.Errorf("openai api error: %w", err)
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:           m.opts.Model,
		Provider:       "openai",
		SupportsTools:  true,
		SupportsStream: true,
		SupportsVision: true,
	}
}
