// Package ollama provides a transport adapter for a local or remote Ollama
// server behind the generic model.Model interface, including streaming,
// tool calling, image attachments and embeddings.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/modelbridge/core"
	"github.com/hupe1980/modelbridge/model"
	"github.com/ollama/ollama/api"
)

// Options configure the Ollama model adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Host        string // empty uses OLLAMA_HOST or http://localhost:11434
}

// Model wraps the Ollama chat API behind the generic model.Model interface.
type Model struct {
	client *api.Client
	opts   Options
}

// NewModel creates a new Ollama model. With an empty Host the client is
// configured from the environment.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:       "llama3.2",
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := newClient(opts.Host)
	if err != nil {
		return nil, err
	}
	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a new Ollama model from an existing client.
func NewModelFromClient(client *api.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       "llama3.2",
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func newClient(host string) (*api.Client, error) {
	if host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return client, nil
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	baseURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host: %w", err)
	}
	return api.NewClient(baseURL, &http.Client{}), nil
}

// Generate implements unified streaming / non-streaming generation by
// bridging Ollama's callback protocol onto the response channel.
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

		streaming := req.Stream
		chatReq := &api.ChatRequest{
			Model:    m.opts.Model,
			Messages: messages,
			Stream:   &streaming,
			Options:  map[string]interface{}{"temperature": m.opts.Temperature},
		}
		if m.opts.MaxTokens > 0 {
			chatReq.Options["num_predict"] = m.opts.MaxTokens
		}
		if len(req.Tools) > 0 {
			chatReq.Tools = buildTools(req.Tools)
		}

		var textBuilder strings.Builder
		var toolCalls []core.FunctionCall
		var final *api.ChatResponse

		err = m.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				textBuilder.WriteString(resp.Message.Content)
				if streaming && !resp.Done {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case out <- model.Response{
						Partial: true,
						Content: core.Content{
							Role:  "assistant",
							Parts: []core.Part{core.TextPart{Text: resp.Message.Content}},
						},
					}:
					}
				}
			}
			for _, tc := range resp.Message.ToolCalls {
				args, err := json.Marshal(tc.Function.Arguments)
				if err != nil {
					return fmt.Errorf("marshal tool arguments: %w", err)
				}
				toolCalls = append(toolCalls, core.FunctionCall{
					ID:        uuid.NewString(), // Ollama does not assign call ids
					Name:      tc.Function.Name,
					Arguments: string(args),
				})
			}
			if resp.Done {
				r := resp
				final = &r
			}
			return nil
		})
		if err != nil {
			errCh <- classify(err)
			return
		}

		parts := make([]core.Part, 0, len(toolCalls)+1)
		if textBuilder.Len() > 0 {
			parts = append(parts, core.TextPart{Text: textBuilder.String()})
		}
		for _, fc := range toolCalls {
			parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
		}

		finishReason := "stop"
		var usage *model.TokenUsage
		if final != nil {
			if len(toolCalls) > 0 {
				finishReason = "tool_calls"
			} else if final.DoneReason != "" {
				finishReason = final.DoneReason
			}
			usage = &model.TokenUsage{
				PromptTokens:     final.Metrics.PromptEvalCount,
				CompletionTokens: final.Metrics.EvalCount,
				TotalTokens:      final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
			}
		}

		out <- model.Response{
			Partial:      false,
			Content:      core.Content{Role: "assistant", Parts: parts},
			FinishReason: finishReason,
			Usage:        usage,
		}
	}()

	return out, errCh
}

// buildMessages converts normalized contents to Ollama chat messages.
func buildMessages(req model.Request) ([]api.Message, error) {
	var messages []api.Message

	if req.Instructions != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.Instructions})
	}

	for _, c := range req.Contents {
		switch c.Role {
		case "system":
			messages = append(messages, api.Message{Role: "system", Content: c.Text()})
		case "tool":
			for _, p := range c.Parts {
				fr, ok := p.(core.FunctionResponsePart)
				if !ok {
					continue
				}
				content := fr.FunctionResponse.Error
				if content == "" {
					if s, ok := fr.FunctionResponse.Response.(string); ok {
						content = s
					} else {
						content = fmt.Sprintf("%v", fr.FunctionResponse.Response)
					}
				}
				messages = append(messages, api.Message{Role: "tool", Content: content})
			}
		case "assistant":
			msg := api.Message{Role: "assistant", Content: c.Text()}
			for _, fc := range c.FunctionCalls() {
				var args api.ToolCallFunctionArguments
				if fc.Arguments != "" {
					if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
						return nil, fmt.Errorf("unmarshal tool arguments: %w", err)
					}
				}
				msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
					Function: api.ToolCallFunction{Name: fc.Name, Arguments: args},
				})
			}
			messages = append(messages, msg)
		default: // user and unknown roles
			msg := api.Message{Role: "user"}
			for _, p := range c.Parts {
				switch part := p.(type) {
				case core.TextPart:
					msg.Content += part.Text
				case core.FilePart:
					if !strings.HasPrefix(part.MediaType, "image/") {
						return nil, &core.ProviderError{
							Provider:   "ollama",
							StatusCode: 400,
							Message:    fmt.Sprintf("unsupported attachment media type %q", part.MediaType),
						}
					}
					msg.Images = append(msg.Images, api.ImageData(part.Data))
				}
			}
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// buildTools converts unified tool definitions to the Ollama function format.
func buildTools(tools []model.ToolDefinition) []api.Tool {
	out := make([]api.Tool, 0, len(tools))
	for _, tdef := range tools {
		properties := make(map[string]api.ToolProperty)
		var required []string
		if tdef.Parameters != nil {
			if props, ok := tdef.Parameters["properties"].(map[string]any); ok {
				for name, v := range props {
					prop := api.ToolProperty{Type: api.PropertyType{"string"}}
					if propMap, ok := v.(map[string]any); ok {
						if propType, ok := propMap["type"].(string); ok {
							prop.Type = api.PropertyType{propType}
						}
						if desc, ok := propMap["description"].(string); ok {
							prop.Description = desc
						}
					}
					properties[name] = prop
				}
			}
			switch req := tdef.Parameters["required"].(type) {
			case []string:
				required = req
			case []any:
				for _, r := range req {
					if s, ok := r.(string); ok {
						required = append(required, s)
					}
				}
			}
		}

		out = append(out, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        tdef.Name,
				Description: tdef.Description,
				Parameters: api.ToolFunctionParameters{
					Type:       "object",
					Properties: properties,
					Required:   required,
				},
			},
		})
	}
	return out
}

// classify maps transport and context errors into the core taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.TimeoutError{Provider: "ollama", Message: err.Error()}
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 401, 403:
			return &core.AuthError{Provider: "ollama", Message: statusErr.Error()}
		default:
			return &core.ProviderError{Provider: "ollama", StatusCode: statusErr.StatusCode, Message: statusErr.Error()}
		}
	}
	return fmt.Errorf("ollama api error: %w", err)
}

// Info returns metadata describing this Ollama model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:           m.opts.Model,
		Provider:       "ollama",
		SupportsTools:  true,
		SupportsStream: true,
		SupportsVision: true,
	}
}
