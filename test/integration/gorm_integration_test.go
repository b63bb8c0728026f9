package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"docchat-be/internal/entity"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.DocumentEmbeddingRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Document Embedding Repository", func(t *testing.T) {
		count, err := uow.DocumentEmbeddingRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentEmbedding count: %d", count)
	})

	t.Run("Embedding Roundtrip And Similarity Search", func(t *testing.T) {
		ctx := context.Background()
		collectionName := "it-" + uuid.New().String()[:8]

		vec := make([]float32, 768)
		vec[0] = 1

		emb := &entity.DocumentEmbedding{
			Id:             uuid.New(),
			Collection:     collectionName,
			Source:         "handbook.pdf",
			Content:        "integration test chunk",
			ChunkIndex:     0,
			EmbeddingValue: vec,
			CreatedAt:      time.Now(),
		}

		txUow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, txUow.Begin(ctx))
		require.NoError(t, txUow.DocumentEmbeddingRepository().CreateBulk(ctx, []*entity.DocumentEmbedding{emb}))
		require.NoError(t, txUow.Commit())

		defer func() {
			cleanupUow := uowFactory.NewUnitOfWork(ctx)
			_ = cleanupUow.Begin(ctx)
			_ = cleanupUow.DocumentEmbeddingRepository().DeleteBySource(ctx, collectionName, "handbook.pdf")
			_ = cleanupUow.Commit()
		}()

		scored, err := uow.DocumentEmbeddingRepository().SearchSimilarWithScore(ctx, vec, 5, collectionName, 0.5)
		require.NoError(t, err)
		require.Len(t, scored, 1)
		assert.Equal(t, "handbook.pdf", scored[0].Embedding.Source)
		assert.InDelta(t, 1.0, scored[0].Similarity, 0.01)

		// Other collections must not see the chunk
		other, err := uow.DocumentEmbeddingRepository().SearchSimilarWithScore(ctx, vec, 5, "some-other-collection", 0.0)
		require.NoError(t, err)
		assert.Empty(t, other)

		found, err := uow.DocumentEmbeddingRepository().FindAll(ctx, specification.ByCollection{Collection: collectionName})
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})
}
