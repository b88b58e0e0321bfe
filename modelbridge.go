// Package modelbridge provides a high-level façade over the provider
// transport adapters, the schema validator, the streaming coordinator and
// the tool-call loop. Most applications interact with this package by:
//  1. Creating a Client via New() around any model.Model implementation
//  2. Calling GenerateText / StreamText / GenerateObject for single turns
//  3. Calling RunTools for multi-step tool-augmented conversations
//
// The façade delegates transport concerns to the model package and keeps
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a request timeout and a
// structured logger.
package modelbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/modelbridge/core"
	"github.com/hupe1980/modelbridge/logging"
	"github.com/hupe1980/modelbridge/loop"
	"github.com/hupe1980/modelbridge/model"
	"github.com/hupe1980/modelbridge/schema"
	"github.com/hupe1980/modelbridge/session"
	"github.com/hupe1980/modelbridge/stream"
	"github.com/hupe1980/modelbridge/tool"
)

// Options configures the Client.
type Options struct {
	// RequestTimeout bounds each individual model call. Zero means no
	// client-side deadline; the context passed by the caller still applies.
	RequestTimeout time.Duration

	// Instructions are sent as system instructions on every call.
	Instructions string

	// Sessions stores multi-turn conversation history for Chat
	// (defaults to an in-memory store if nil)
	Sessions session.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Client is the high-level façade aggregating a transport adapter with the
// schema, streaming and loop coordinators.
type Client struct {
	model model.Model
	opts  Options
}

// New creates a Client around any model implementation.
func New(m model.Model, optFns ...func(o *Options)) *Client {
	opts := Options{
		Sessions: session.NewInMemoryStore(),
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{model: m, opts: opts}
}

// Model returns the underlying transport adapter.
func (c *Client) Model() model.Model { return c.model }

// Generate performs one non-streamed model call over the full conversation
// and returns the final response.
func (c *Client) Generate(ctx context.Context, contents ...core.Content) (*model.Response, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	respCh, errCh := c.model.Generate(ctx, model.Request{
		Instructions: c.opts.Instructions,
		Contents:     contents,
	})
	resp, err := model.Final(ctx, respCh, errCh)
	info := c.model.Info()
	logging.LogModelCall(c.opts.Logger, info.Provider, info.Name, time.Since(start), err)
	return resp, err
}

// GenerateText sends a single user prompt and returns the assistant text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.Generate(ctx, core.NewUserContent(prompt))
	if err != nil {
		return "", err
	}
	return resp.Content.Text(), nil
}

// Chat appends the prompt to the session transcript, generates over the
// full history and records the assistant reply. Conversations resume by
// session id across calls.
func (c *Client) Chat(ctx context.Context, sessionID, prompt string) (string, error) {
	if err := c.opts.Sessions.Append(sessionID, core.NewUserContent(prompt)); err != nil {
		return "", fmt.Errorf("append user message: %w", err)
	}
	sess, err := c.opts.Sessions.Get(sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}

	resp, err := c.Generate(ctx, sess.Messages...)
	if err != nil {
		return "", err
	}
	if err := c.opts.Sessions.Append(sessionID, resp.Content); err != nil {
		return "", fmt.Errorf("append assistant message: %w", err)
	}
	return resp.Content.Text(), nil
}

// StreamText sends a single user prompt and returns a lazy pull-based
// stream of partial responses. The caller must drain the stream or Close it;
// Close cancels the underlying request.
func (c *Client) StreamText(ctx context.Context, prompt string) *stream.TextStream {
	ctx, cancel := c.withTimeout(ctx)

	respCh, errCh := c.model.Generate(ctx, model.Request{
		Instructions: c.opts.Instructions,
		Contents:     []core.Content{core.NewUserContent(prompt)},
		Stream:       true,
	})
	return stream.New(respCh, errCh, cancel)
}

// GenerateObject asks the model for a JSON object conforming to the schema
// derived from out's type and decodes the reply into out. The reply is
// validated before decoding; out is never partially populated.
func (c *Client) GenerateObject(ctx context.Context, prompt string, out any) error {
	objSchema := schema.FromStruct(out)
	schemaJSON, err := json.Marshal(objSchema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	instructions := fmt.Sprintf(
		"Respond with a single JSON object matching this JSON schema and nothing else:\n%s",
		schemaJSON,
	)
	if c.opts.Instructions != "" {
		instructions = c.opts.Instructions + "\n\n" + instructions
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	respCh, errCh := c.model.Generate(ctx, model.Request{
		Instructions: instructions,
		Contents:     []core.Content{core.NewUserContent(prompt)},
	})
	resp, err := model.Final(ctx, respCh, errCh)
	info := c.model.Info()
	logging.LogModelCall(c.opts.Logger, info.Provider, info.Name, time.Since(start), err)
	if err != nil {
		return err
	}

	return schema.Decode(resp.Content.Text(), objSchema, out)
}

// RunTools drives the tool-call loop until the model answers without
// requesting tools, the step limit is reached or a tool fails.
func (c *Client) RunTools(ctx context.Context, prompt string, tools []tool.Tool, optFns ...func(o *loop.Options)) (*loop.Result, error) {
	runner := loop.NewRunner(c.model, tools, func(o *loop.Options) {
		o.Instructions = c.opts.Instructions
		o.Logger = c.opts.Logger
		for _, fn := range optFns {
			fn(o)
		}
	})
	return runner.Run(ctx, core.NewUserContent(prompt))
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.RequestTimeout > 0 {
		return context.WithTimeout(ctx, c.opts.RequestTimeout)
	}
	return context.WithCancel(ctx)
}
