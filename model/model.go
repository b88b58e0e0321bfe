package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/modelbridge/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input. One Request maps to exactly
// one outbound provider call; retry policy lives with the caller.
type Request struct {
	Instructions string           `json:"instructions,omitempty"` // System instructions
	Contents     []core.Content   `json:"contents"`               // Conversation history, oldest first
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Partial
// responses carry incremental deltas; exactly one non-partial response
// terminates a successful generation.
type Response struct {
	ID           string       `json:"id,omitempty"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason,omitempty"` // "stop", "length", "tool_calls", ...
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name           string `json:"name"`
	Provider       string `json:"provider"` // "openai", "anthropic", "ollama", ...
	SupportsTools  bool   `json:"supports_tools"`
	SupportsStream bool   `json:"supports_stream"`
	SupportsVision bool   `json:"supports_vision"`
	SupportsPDF    bool   `json:"supports_pdf"`
}

// Model is the transport adapter contract. Generate performs one provider
// call and emits responses on the returned channel; the error channel
// receives at most one terminal error. Both channels are closed when the
// call completes or ctx is cancelled. Errors are classified into the core
// taxonomy (AuthError, ProviderError, TimeoutError) by each adapter.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are scripted: each Generate call consumes the next scripted
// response in FIFO order. When the script is exhausted it echoes the last
// user text.
type MockModel struct {
	info   Info
	script []Response
}

// NewMockModel constructs a MockModel with tool and streaming support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:           name,
			Provider:       "mock",
			SupportsTools:  true,
			SupportsStream: true,
		},
	}
}

// EnqueueText scripts a plain text final response.
func (m *MockModel) EnqueueText(text string) *MockModel {
	m.script = append(m.script, Response{
		Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: text}}},
		FinishReason: "stop",
	})
	return m
}

// EnqueueToolCall scripts a response requesting execution of a declared tool.
func (m *MockModel) EnqueueToolCall(id, name, arguments string) *MockModel {
	m.script = append(m.script, Response{
		Content: core.Content{Role: "assistant", Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: arguments}},
		}},
		FinishReason: "tool_calls",
	})
	return m
}

// Generate implements Model; replays the next scripted response, optionally
// preceded by word-level partial chunks when req.Stream is set.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	var final Response
	if len(m.script) > 0 {
		final = m.script[0]
		m.script = m.script[1:]
	} else {
		var lastUser string
		for _, c := range req.Contents {
			if c.Role == "user" {
				lastUser = c.Text()
			}
		}
		final = Response{
			Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: fmt.Sprintf("echo: %s", lastUser)}}},
			FinishReason: "stop",
		}
	}

	go func() {
		defer close(respCh)
		defer close(errCh)

		if req.Stream {
			words := strings.SplitAfter(final.Content.Text(), " ")
			for _, w := range words {
				if w == "" {
					continue
				}
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: w}}},
				}:
				}
			}
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- final:
		}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// Final drains the response channel pair of a non-streaming Generate call
// and returns the terminal response. It is the shared collection helper used
// by the facade and the tool-call loop.
func Final(ctx context.Context, respCh <-chan Response, errCh <-chan error) (*Response, error) {
	var final *Response
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			// The adapter may still be classifying the failure; its error
			// beats the raw context error.
			if err := drain(respCh, errCh); err != nil {
				return nil, asTimeout(err)
			}
			return nil, asTimeout(ctx.Err())
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !resp.Partial {
				r := resp
				final = &r
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, asTimeout(err)
			}
		}
	}
	if final == nil {
		return nil, fmt.Errorf("model produced no final response")
	}
	return final, nil
}

// drain consumes both channels until the producer closes them and returns
// the first error seen. The Model contract closes both channels on ctx
// cancellation, so this terminates.
func drain(respCh <-chan Response, errCh <-chan error) error {
	var firstErr error
	for respCh != nil || errCh != nil {
		select {
		case _, ok := <-respCh:
			if !ok {
				respCh = nil
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// asTimeout maps a raw deadline error to core.TimeoutError so callers see
// one classification regardless of which side noticed the deadline first.
// Already classified errors pass through unchanged.
func asTimeout(err error) error {
	var timeoutErr *core.TimeoutError
	if errors.Is(err, context.DeadlineExceeded) && !errors.As(err, &timeoutErr) {
		return &core.TimeoutError{Message: err.Error()}
	}
	return err
}
