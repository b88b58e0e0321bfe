package ollama

import (
	"context"

	"github.com/hupe1980/modelbridge/core"
	"github.com/hupe1980/modelbridge/embedding"
	"github.com/ollama/ollama/api"
)

// EmbedderOptions configure the Ollama embedder.
type EmbedderOptions struct {
	Model string
	Host  string
}

// Embedder implements embedding.Embedder on the Ollama embed API.
type Embedder struct {
	client *api.Client
	opts   EmbedderOptions
}

// NewEmbedder creates an Embedder talking to a local or remote Ollama server.
func NewEmbedder(optFns ...func(o *EmbedderOptions)) (*Embedder, error) {
	opts := EmbedderOptions{
		Model: "nomic-embed-text",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := newClient(opts.Host)
	if err != nil {
		return nil, err
	}
	return &Embedder{client: client, opts: opts}, nil
}

// EmbedMany implements embedding.Embedder. One batch maps to one API call;
// the server returns vectors in input order.
func (e *Embedder) EmbedMany(ctx context.Context, values []string) ([]embedding.Vector, error) {
	if len(values) == 0 {
		return []embedding.Vector{}, nil
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.opts.Model,
		Input: values,
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Embeddings) != len(values) {
		return nil, &core.ProviderError{
			Provider:   "ollama",
			StatusCode: 200,
			Message:    "embedding count does not match input count",
		}
	}

	vectors := make([]embedding.Vector, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vec := make(embedding.Vector, len(emb))
		for j, f := range emb {
			vec[j] = float64(f)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions implements embedding.Embedder; Ollama reports dimensionality
// only in responses, so it is unknown upfront.
func (e *Embedder) Dimensions() int { return 0 }
