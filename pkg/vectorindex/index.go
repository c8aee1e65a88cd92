package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
)

// Embedder turns texts into embedding vectors.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Result is one similarity search hit.
type Result struct {
	Content string
	Score   float32
}

// Index is an in-memory vector index over text documents. Vectors are
// L2-normalized on insertion so cosine similarity reduces to an inner
// product. The index is process-wide and shared across concurrent
// pipeline runs; appends are serialized by a mutex.
type Index struct {
	embedder Embedder
	logger   *slog.Logger

	mu      sync.RWMutex
	docs    []string
	vectors [][]float32
}

func NewIndex(embedder Embedder, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{embedder: embedder, logger: logger}
}

// AddTexts embeds the given documents and appends them to the index.
func (ix *Index) AddTexts(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	for i := range vectors {
		vectors[i] = normalize(vectors[i])
	}

	ix.mu.Lock()
	ix.docs = append(ix.docs, texts...)
	ix.vectors = append(ix.vectors, vectors...)
	total := len(ix.docs)
	ix.mu.Unlock()

	ix.logger.Info("vectorindex: added documents", "added", len(texts), "total", total)
	return nil
}

// Search returns the k most similar documents to the query, best first.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		k = 3
	}

	ix.mu.RLock()
	empty := len(ix.docs) == 0
	ix.mu.RUnlock()
	if empty {
		return nil, nil
	}

	queryVec, err := ix.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryVec = normalize(queryVec)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := make([]Result, 0, len(ix.docs))
	for i, vec := range ix.vectors {
		results = append(results, Result{
			Content: ix.docs[i],
			Score:   dot(queryVec, vec),
		})
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len reports the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
