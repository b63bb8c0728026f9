// Package retrieval implements similarity search over a single pgvector
// collection and the weighted ensemble that fuses several of them.
package retrieval

import (
	"context"
	"fmt"
	"log"

	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/embedding"
	"docchat-be/pkg/store"
)

// Config encapsulates search parameters
type Config struct {
	TopK        int
	DBThreshold float64
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{
		TopK:        10,
		DBThreshold: 0.0,
	}
}

// CollectionRetriever runs similarity search scoped to one named collection.
type CollectionRetriever struct {
	collection        string
	embeddingProvider embedding.EmbeddingProvider
	uow               unitofwork.UnitOfWork
	config            Config
	logger            *log.Logger
}

func NewCollectionRetriever(
	collection string,
	embeddingProvider embedding.EmbeddingProvider,
	uow unitofwork.UnitOfWork,
	config Config,
	logger *log.Logger,
) *CollectionRetriever {
	return &CollectionRetriever{
		collection:        collection,
		embeddingProvider: embeddingProvider,
		uow:               uow,
		config:            config,
		logger:            logger,
	}
}

// Collection returns the name of the collection this retriever searches.
func (r *CollectionRetriever) Collection() string {
	return r.collection
}

func (r *CollectionRetriever) Retrieve(ctx context.Context, query string) ([]store.Document, error) {
	embeddingRes, err := r.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	scored, err := r.uow.DocumentEmbeddingRepository().SearchSimilarWithScore(
		ctx,
		embeddingRes.Embedding.Values,
		r.config.TopK,
		r.collection,
		r.config.DBThreshold,
	)
	if err != nil {
		r.logger.Printf("[ERROR] Vector search failed for collection %s: %v", r.collection, err)
		return nil, err
	}

	r.logger.Printf("[DEBUG] Collection %s: %d documents", r.collection, len(scored))

	docs := make([]store.Document, 0, len(scored))
	for _, s := range scored {
		docs = append(docs, store.Document{
			ID:         s.Embedding.Id.String(),
			Collection: r.collection,
			Source:     s.Embedding.Source,
			Content:    s.Embedding.Content,
			Score:      float32(s.Similarity),
		})
	}
	return docs, nil
}
