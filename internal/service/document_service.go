package service

import (
	"context"
	"encoding/json"

	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Ingest(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	ListCollections(ctx context.Context, userID uuid.UUID) (*dto.ListCollectionsResponse, error)
	ListSources(ctx context.Context, collection string) ([]string, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		logger:           log,
	}
}

// Ingest queues a document for chunking and embedding. The heavy work runs
// on the consumer; the endpoint returns as soon as the message is queued.
func (s *documentService) Ingest(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	payload := dto.PublishEmbedDocumentMessage{
		Collection: request.Collection,
		Source:     request.Source,
		Content:    request.Content,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, payloadJson); err != nil {
		s.logger.Error("Document", "Failed to queue document for embedding", map[string]interface{}{
			"collection": request.Collection,
			"source":     request.Source,
			"error":      err.Error(),
		})
		return nil, err
	}

	return &dto.IngestDocumentResponse{
		Collection: request.Collection,
		Source:     request.Source,
		Queued:     true,
	}, nil
}

// ListCollections returns every collection with at least one embedded chunk.
func (s *documentService) ListCollections(ctx context.Context, userID uuid.UUID) (*dto.ListCollectionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	collections, err := uow.DocumentEmbeddingRepository().ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.ListCollectionsResponse{Collections: collections}, nil
}

// ListSources returns the distinct document names embedded in a collection.
func (s *documentService) ListSources(ctx context.Context, collectionName string) ([]string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	embeddings, err := uow.DocumentEmbeddingRepository().FindAll(ctx,
		specification.ByCollection{Collection: collectionName},
	)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	sources := make([]string, 0)
	for _, e := range embeddings {
		if !seen[e.Source] {
			seen[e.Source] = true
			sources = append(sources, e.Source)
		}
	}
	return sources, nil
}
