package embedding

import (
	"context"
	"fmt"
	"sync"
)

// Entry is a stored text with its vector and optional metadata.
type Entry struct {
	ID       string
	Content  string
	Vector   Vector
	Metadata map[string]any
}

// SearchResult is an index hit with its cosine similarity score.
type SearchResult struct {
	Entry
	Score float64
}

// Index is a naive process-local vector index over an Embedder. It offers
// append-only Add and brute-force cosine Search.
//
// Concurrency: protected by RWMutex; embedding calls run outside the lock.
// Search: linear scan, suitable for tests, demos and small corpora; swap for
// a vector DB for production retrieval.
type Index struct {
	embedder Embedder

	mu      sync.RWMutex
	entries []Entry
}

// NewIndex creates an empty index backed by the given embedder.
func NewIndex(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// Add embeds contents in one batch and appends them with generated
// incremental ids. The batch is all-or-nothing.
func (ix *Index) Add(ctx context.Context, contents ...string) error {
	if len(contents) == 0 {
		return nil
	}
	vectors, err := ix.embedder.EmbedMany(ctx, contents)
	if err != nil {
		return err
	}
	if len(vectors) != len(contents) {
		return fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), len(contents))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, content := range contents {
		ix.entries = append(ix.entries, Entry{
			ID:      fmt.Sprintf("vec_%d", len(ix.entries)),
			Content: content,
			Vector:  vectors[i],
		})
	}
	return nil
}

// Len returns the number of stored entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search embeds query and returns up to limit entries ordered by descending
// cosine similarity.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	queryVec, err := Embed(ctx, ix.embedder, query)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	vectors := make([]Vector, len(ix.entries))
	entries := make([]Entry, len(ix.entries))
	copy(entries, ix.entries)
	for i, e := range entries {
		vectors[i] = e.Vector
	}
	ix.mu.RUnlock()

	order, err := RankBySimilarity(queryVec, vectors)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(order) {
		limit = len(order)
	}

	results := make([]SearchResult, 0, limit)
	for _, idx := range order[:limit] {
		score, err := CosineSimilarity(queryVec, vectors[idx])
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Entry: entries[idx], Score: score})
	}
	return results, nil
}
