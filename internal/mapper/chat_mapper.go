package mapper

import (
	"encoding/json"
	"time"

	"docchat-be/internal/entity"
	"docchat-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) SessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}
	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:         s.Id,
		UserId:     s.UserId,
		Title:      s.Title,
		Collection: s.Collection,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) SessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:         s.Id,
		UserId:     s.UserId,
		Title:      s.Title,
		Collection: s.Collection,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *ChatMapper) SessionsToEntities(models []*model.ChatSession) []*entity.ChatSession {
	entities := make([]*entity.ChatSession, len(models))
	for i, s := range models {
		entities[i] = m.SessionToEntity(s)
	}
	return entities
}

func (m *ChatMapper) MessageToEntity(c *model.ChatMessage) *entity.ChatMessage {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}
	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	var sources []string
	if len(c.Sources) > 0 {
		_ = json.Unmarshal(c.Sources, &sources)
	}

	return &entity.ChatMessage{
		Id:            c.Id,
		ChatSessionId: c.ChatSessionId,
		Role:          c.Role,
		Content:       c.Content,
		Sources:       sources,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     updatedAt,
		DeletedAt:     deletedAt,
		IsDeleted:     c.DeletedAt.Valid,
	}
}

func (m *ChatMapper) MessageToModel(c *entity.ChatMessage) *model.ChatMessage {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	sources, _ := json.Marshal(c.Sources)

	return &model.ChatMessage{
		Id:            c.Id,
		ChatSessionId: c.ChatSessionId,
		Role:          c.Role,
		Content:       c.Content,
		Sources:       datatypes.JSON(sources),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     updatedAt,
		DeletedAt:     deletedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(models []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(models))
	for i, c := range models {
		entities[i] = m.MessageToEntity(c)
	}
	return entities
}

func (m *ChatMapper) AttachmentToEntity(a *model.ChatAttachment) *entity.ChatAttachment {
	if a == nil {
		return nil
	}
	return &entity.ChatAttachment{
		Id:            a.Id,
		ChatMessageId: a.ChatMessageId,
		Name:          a.Name,
		Path:          a.Path,
		CreatedAt:     a.CreatedAt,
	}
}

func (m *ChatMapper) AttachmentToModel(a *entity.ChatAttachment) *model.ChatAttachment {
	if a == nil {
		return nil
	}
	return &model.ChatAttachment{
		Id:            a.Id,
		ChatMessageId: a.ChatMessageId,
		Name:          a.Name,
		Path:          a.Path,
		CreatedAt:     a.CreatedAt,
	}
}

func (m *ChatMapper) AttachmentsToEntities(models []*model.ChatAttachment) []*entity.ChatAttachment {
	entities := make([]*entity.ChatAttachment, len(models))
	for i, a := range models {
		entities[i] = m.AttachmentToEntity(a)
	}
	return entities
}
