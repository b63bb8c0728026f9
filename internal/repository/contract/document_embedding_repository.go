package contract

import (
	"context"

	"docchat-be/internal/entity"
	"docchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredDocumentEmbedding wraps DocumentEmbedding with its similarity score
type ScoredDocumentEmbedding struct {
	Embedding  *entity.DocumentEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.DocumentEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.DocumentEmbedding) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySource(ctx context.Context, collection, source string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// ListCollections returns the distinct collection names present in the store.
	ListCollections(ctx context.Context) ([]string, error)
	// SearchSimilarWithScore returns embeddings with their similarity scores,
	// scoped to one collection and filtered by threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, collection string, threshold float64) ([]*ScoredDocumentEmbedding, error)
}
