// Package anthropic provides a transport adapter for the Anthropic Messages
// API behind the generic model.Model interface, covering non-streaming and
// streaming generation, tool use and base64 image / PDF attachments.
package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/hupe1980/modelbridge/core"
	"github.com/hupe1980/modelbridge/model"
)

// Options configure the Anthropic model adapter (temperature, model id,
// max tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string // falls back to ANTHROPIC_API_KEY
	BaseURL     string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
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

	client := anthropic.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		messages, err := m.buildMessages(req.Contents)
		if err != nil {
			errCh <- err
			return
		}

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    messages,
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}

		if systemBlocks := m.systemBlocks(req); len(systemBlocks) > 0 {
			params.System = systemBlocks
		}

		if len(req.Tools) > 0 {
			params.Tools = m.buildTools(req.Tools)
		}

		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- classify(err)
			return
		}
		out <- messageResponse(resp)
	}()

	return out, errCh
}

// handleStreaming adapts the Anthropic event stream into partial text
// responses plus one accumulated final response.
func (m *Model) handleStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	acc := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			errCh <- fmt.Errorf("anthropic accumulate: %w", err)
			return
		}

		deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		textDelta, ok := deltaEvent.Delta.AsAny().(anthropic.TextDelta)
		if !ok || textDelta.Text == "" {
			continue
		}
		select {
		case <-ctx.Done():
			errCh <- classify(ctx.Err())
			return
		case out <- model.Response{
			ID:      acc.ID,
			Partial: true,
			Content: core.Content{
				Role:  "assistant",
				Parts: []core.Part{core.TextPart{Text: textDelta.Text}},
			},
		}:
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- classify(err)
		return
	}
	out <- messageResponse(&acc)
}

// messageResponse converts a complete Anthropic message into the unified shape.
func messageResponse(msg *anthropic.Message) model.Response {
	var parts []core.Part
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			if b.Text != "" {
				parts = append(parts, core.TextPart{Text: b.Text})
			}
		case anthropic.ToolUseBlock:
			parts = append(parts, core.FunctionCallPart{
				FunctionCall: core.FunctionCall{
					ID:        b.ID,
					Name:      b.Name,
					Arguments: string(b.Input),
				},
			})
		}
	}

	finishReason := "stop"
	if msg.StopReason != "" {
		finishReason = string(msg.StopReason)
	}

	return model.Response{
		ID:           msg.ID,
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: finishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

// buildMessages converts normalized contents to the Anthropic message format.
// Tool responses are embedded as tool_result blocks directly after the
// assistant turn that issued the matching tool_use.
func (m *Model) buildMessages(contents []core.Content) ([]anthropic.MessageParam, error) {
	toolResponses := make(map[string]string)
	for _, c := range contents {
		if c.Role != "tool" {
			continue
		}
		for _, p := range c.Parts {
			fr, ok := p.(core.FunctionResponsePart)
			if !ok || fr.FunctionResponse.ID == "" {
				continue
			}
			if fr.FunctionResponse.Error != "" {
				toolResponses[fr.FunctionResponse.ID] = fr.FunctionResponse.Error
				continue
			}
			if s, ok := fr.FunctionResponse.Response.(string); ok {
				toolResponses[fr.FunctionResponse.ID] = s
			} else {
				toolResponses[fr.FunctionResponse.ID] = fmt.Sprintf("%v", fr.FunctionResponse.Response)
			}
		}
	}

	var messages []anthropic.MessageParam
	for _, c := range contents {
		if c.Role == "system" || c.Role == "tool" {
			continue // system handled separately, tool responses embedded
		}

		switch c.Role {
		case "assistant":
			content, results := m.buildAssistantContent(c.Parts, toolResponses)
			if len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
			// The Messages API expects tool_result blocks in a user-role
			// message following the assistant turn that issued the tool_use.
			if len(results) > 0 {
				messages = append(messages, anthropic.NewUserMessage(results...))
			}
		default: // user and unknown roles
			content, err := m.buildUserContent(c.Parts)
			if err != nil {
				return nil, err
			}
			if len(content) > 0 {
				messages = append(messages, anthropic.NewUserMessage(content...))
			}
		}
	}
	return messages, nil
}

// systemBlocks merges request instructions and system role contents.
func (m *Model) systemBlocks(req model.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if req.Instructions != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.Instructions})
	}
	for _, c := range req.Contents {
		if c.Role != "system" {
			continue
		}
		if text := c.Text(); text != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: text})
		}
	}
	return blocks
}

// buildUserContent builds content blocks for user messages, including base64
// image and PDF attachments.
func (m *Model) buildUserContent(parts []core.Part) ([]anthropic.ContentBlockParamUnion, error) {
	var content []anthropic.ContentBlockParamUnion
	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				content = append(content, anthropic.NewTextBlock(part.Text))
			}
		case core.FilePart:
			encoded := base64.StdEncoding.EncodeToString(part.Data)
			switch {
			case strings.HasPrefix(part.MediaType, "image/"):
				content = append(content, anthropic.NewImageBlockBase64(part.MediaType, encoded))
			case part.MediaType == "application/pdf":
				content = append(content, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: encoded}))
			default:
				return nil, &core.ProviderError{
					Provider:   "anthropic",
					StatusCode: 400,
					Message:    fmt.Sprintf("unsupported attachment media type %q", part.MediaType),
				}
			}
		}
	}
	return content, nil
}

// buildAssistantContent builds content blocks for assistant messages and
// collects the matching tool results, which the caller must send in a
// separate user-role message.
func (m *Model) buildAssistantContent(
	parts []core.Part,
	toolResponses map[string]string,
) (content, results []anthropic.ContentBlockParamUnion) {
	var toolCallIDs []string

	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				content = append(content, anthropic.NewTextBlock(part.Text))
			}
		case core.FunctionCallPart:
			var input interface{}
			if part.FunctionCall.Arguments != "" {
				if err := json.Unmarshal([]byte(part.FunctionCall.Arguments), &input); err != nil {
					input = part.FunctionCall.Arguments // fallback to string
				}
			}
			content = append(content, anthropic.NewToolUseBlock(
				part.FunctionCall.ID,
				input,
				part.FunctionCall.Name,
			))
			toolCallIDs = append(toolCallIDs, part.FunctionCall.ID)
		}
	}

	for _, id := range toolCallIDs {
		if resp, ok := toolResponses[id]; ok {
			results = append(results, anthropic.NewToolResultBlock(id, resp, false))
			delete(toolResponses, id)
		}
	}
	return content, results
}

// buildTools converts unified tool definitions to the Anthropic tool format.
func (m *Model) buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))
	for i, tdef := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if tdef.Parameters != nil {
			if properties, exists := tdef.Parameters["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := tdef.Parameters["required"]; exists {
				inputSchema.Required = requiredStrings(required)
			}
		}
		toolParam := anthropic.ToolUnionParamOfTool(inputSchema, tdef.Name)
		if toolParam.OfTool != nil && tdef.Description != "" {
			toolParam.OfTool.Description = anthropic.String(tdef.Description)
		}
		anthropicTools[i] = toolParam
	}
	return anthropicTools
}

// requiredStrings normalizes a schema "required" entry to []string.
func requiredStrings(required any) []string {
	switch req := required.(type) {
	case []string:
		return req
	case []interface{}:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// classify maps SDK and context errors into the core taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.TimeoutError{Provider: "anthropic", Message: err.Error()}
	}
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case 401, 403:
			return &core.AuthError{Provider: "anthropic", Message: apierr.Error()}
		default:
			return &core.ProviderError{Provider: "anthropic", StatusCode: apierr.StatusCode, Message: apierr.Error()}
		}
	}
	return fmt.Errorf("anthropic api error: %w", err)
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:           string(m.opts.Model),
		Provider:       "anthropic",
		SupportsTools:  true,
		SupportsStream: true,
		SupportsVision: true,
		SupportsPDF:    true,
	}
}
