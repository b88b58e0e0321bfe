package openai

import (
	"context"

	"github.com/hupe1980/modelbridge/core"
	"github.com/hupe1980/modelbridge/embedding"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// EmbedderOptions configure the OpenAI embedder.
type EmbedderOptions struct {
	Model      string
	Dimensions int // 0 uses the model default
	APIKey     string
	BaseURL    string
}

// Embedder implements embedding.Embedder on the OpenAI Embeddings API.
type Embedder struct {
	client *openai.Client
	opts   EmbedderOptions
}

// NewEmbedder creates an Embedder using the official client.
func NewEmbedder(optFns ...func(o *EmbedderOptions)) *Embedder {
	opts := EmbedderOptions{
		Model: openai.EmbeddingModelTextEmbedding3Small,
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
	return &Embedder{client: &client, opts: opts}
}

// EmbedMany implements embedding.Embedder. One input batch maps to one API
// call; the response is re-ordered by index so output order always matches
// input order.
func (e *Embedder) EmbedMany(ctx context.Context, values []string) ([]embedding.Vector, error) {
	if len(values) == 0 {
		return []embedding.Vector{}, nil
	}

	params := openai.EmbeddingNewParams{
		Model: e.opts.Model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: values},
	}
	if e.opts.Dimensions > 0 {
		params.Dimensions = openai.Int(int64(e.opts.Dimensions))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) != len(values) {
		return nil, &core.ProviderError{
			Provider:   "openai",
			StatusCode: 200,
			Message:    "embedding count does not match input count",
		}
	}

	vectors := make([]embedding.Vector, len(values))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(vectors) {
			return nil, &core.ProviderError{
				Provider:   "openai",
				StatusCode: 200,
				Message:    "embedding index out of range",
			}
		}
		vectors[d.Index] = embedding.Vector(d.Embedding)
	}
	return vectors, nil
}

// Dimensions implements embedding.Embedder.
func (e *Embedder) Dimensions() int { return e.opts.Dimensions }
