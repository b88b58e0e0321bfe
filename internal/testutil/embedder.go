package testutil

import (
	"context"
	"fmt"

	"github.com/hupe1980/modelbridge/embedding"
)

// WordEmbedder is a deterministic embedding.Embedder for tests. Known words
// map to fixed vectors; unknown words map to a stable pseudo-vector derived
// from their bytes so repeated calls always agree.
type WordEmbedder struct {
	Dim     int
	Vectors map[string]embedding.Vector
	// Calls records every batch passed to EmbedMany, in order.
	Calls [][]string
	// Err, when set, is returned by every EmbedMany call.
	Err error
}

// NewWordEmbedder creates a WordEmbedder with the given dimensionality.
func NewWordEmbedder(dim int) *WordEmbedder {
	return &WordEmbedder{Dim: dim, Vectors: map[string]embedding.Vector{}}
}

// Set registers a fixed vector for value. The vector length must match Dim.
func (e *WordEmbedder) Set(value string, vec embedding.Vector) *WordEmbedder {
	if len(vec) != e.Dim {
		panic(fmt.Sprintf("testutil: vector for %q has dim %d, want %d", value, len(vec), e.Dim))
	}
	e.Vectors[value] = vec
	return e
}

// EmbedMany implements embedding.Embedder.
func (e *WordEmbedder) EmbedMany(_ context.Context, values []string) ([]embedding.Vector, error) {
	e.Calls = append(e.Calls, values)
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([]embedding.Vector, len(values))
	for i, v := range values {
		if vec, ok := e.Vectors[v]; ok {
			out[i] = vec
			continue
		}
		out[i] = e.derive(v)
	}
	return out, nil
}

// Dimensions implements embedding.Embedder.
func (e *WordEmbedder) Dimensions() int { return e.Dim }

// derive builds a stable pseudo-vector from the bytes of v.
func (e *WordEmbedder) derive(v string) embedding.Vector {
	vec := make(embedding.Vector, e.Dim)
	for i, b := range []byte(v) {
		vec[i%e.Dim] += float64(b) / 255.0
	}
	return vec
}
