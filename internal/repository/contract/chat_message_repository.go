package contract

import (
	"context"

	"docchat-be/internal/entity"
	"docchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type ChatAttachmentRepository interface {
	Create(ctx context.Context, attachment *entity.ChatAttachment) error
	CreateBulk(ctx context.Context, attachments []*entity.ChatAttachment) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatAttachment, error)
}
