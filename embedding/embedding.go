// Package embedding exposes text-to-vector generation and similarity
// comparison behind a provider-agnostic Embedder interface. Concrete
// embedders live with their transport adapters (model/openai, model/ollama).
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/modelbridge/core"
)

// Vector is a fixed-dimension numeric representation of a text.
type Vector []float64

// Embedder is the transport contract for embedding providers. EmbedMany must
// return one vector per input value, in the same order.
type Embedder interface {
	EmbedMany(ctx context.Context, values []string) ([]Vector, error)

	// Dimensions returns the output dimensionality, or 0 if unknown upfront.
	Dimensions() int
}

// Embed generates a single vector for value. It is defined as
// EmbedMany([value])[0], so both paths always agree.
func Embed(ctx context.Context, e Embedder, value string) (Vector, error) {
	vectors, err := e.EmbedMany(ctx, []string{value})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one input", len(vectors))
	}
	return vectors[0], nil
}

// CosineSimilarity computes the cosine of the angle between a and b: their
// dot product divided by the product of magnitudes. The result lies in
// [-1, 1]. Vectors of differing dimensions fail with
// *core.DimensionMismatchError; zero-magnitude vectors yield 0.
func CosineSimilarity(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, &core.DimensionMismatchError{LenA: len(a), LenB: len(b)}
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// RankBySimilarity orders candidate indexes by descending cosine similarity
// to query. It fails on the first dimension mismatch.
func RankBySimilarity(query Vector, candidates []Vector) ([]int, error) {
	type scored struct {
		index int
		score float64
	}
	scores := make([]scored, len(candidates))
	for i, c := range candidates {
		s, err := CosineSimilarity(query, c)
		if err != nil {
			return nil, err
		}
		scores[i] = scored{index: i, score: s}
	}
	// Insertion sort keeps ties stable; candidate lists are small.
	for i := 1; i < len(scores); i++ {
		for j := i; j > 0 && scores[j].score > scores[j-1].score; j-- {
			scores[j], scores[j-1] = scores[j-1], scores[j]
		}
	}
	order := make([]int, len(scores))
	for i, s := range scores {
		order[i] = s.index
	}
	return order, nil
}
