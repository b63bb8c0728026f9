package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentEmbedding is one embedded chunk of an ingested document,
// scoped to a named collection.
type DocumentEmbedding struct {
	Id             uuid.UUID
	Collection     string
	Source         string // original filename
	Content        string
	ChunkIndex     int
	EmbeddingValue []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
