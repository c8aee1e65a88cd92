package vectorstore

import (
	"context"
	"fmt"

	"github.com/mikeboe/research-orchestrator/pkg/vectorindex"
)

// Indexer adapts the pgvector store to the pipeline's indexing side
// effect: it embeds incoming page chunks and persists them.
type Indexer struct {
	store    *PGVectorStore
	embedder vectorindex.Embedder
}

func NewIndexer(store *PGVectorStore, embedder vectorindex.Embedder) *Indexer {
	return &Indexer{store: store, embedder: embedder}
}

// AddTexts implements research.Indexer.
func (ix *Indexer) AddTexts(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	docs := make([]Document, len(texts))
	for i, text := range texts {
		docs[i] = Document{
			Content:   text,
			Metadata:  map[string]interface{}{},
			Embedding: vectors[i],
		}
	}
	return ix.store.AddDocuments(ctx, docs)
}
