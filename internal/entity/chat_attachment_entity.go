package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatAttachment is a cited document offered alongside a model message.
type ChatAttachment struct {
	Id            uuid.UUID
	ChatMessageId uuid.UUID
	Name          string
	Path          string
	CreatedAt     time.Time
}
