package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	// Collection preselects the active collection; empty means the user's
	// primary group decides.
	Collection string `json:"collection,omitempty"`
}

type CreateSessionResponse struct {
	Id          uuid.UUID `json:"id"`
	Collection  string    `json:"collection"`
	Collections []string  `json:"collections"`
}

type GetAllSessionsResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Collection string     `json:"collection"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type AttachmentDTO struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type GetChatHistoryResponse struct {
	Id          uuid.UUID       `json:"id"`
	Role        string          `json:"role"`
	Content     string          `json:"content"`
	Sources     []string        `json:"sources,omitempty"`
	Attachments []AttachmentDTO `json:"attachments,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SendMessageRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Message       string    `json:"message" validate:"required"`
	// Optional image attachment, base64 encoded
	ImageBase64   string `json:"image_base64,omitempty"`
	ImageMimeType string `json:"image_mime_type,omitempty"`
}

type SendMessageResponseChat struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageResponse struct {
	ChatSessionId    uuid.UUID                `json:"chat_session_id"`
	ChatSessionTitle string                   `json:"title"`
	Sent             *SendMessageResponseChat `json:"sent"`
	Reply            *SendMessageResponseChat `json:"reply"`
	Sources          []string                 `json:"sources,omitempty"`
	Attachments      []AttachmentDTO          `json:"attachments,omitempty"`
}

type UpdateSettingsRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Collection    string    `json:"collection" validate:"required"`
}

type UpdateSettingsResponse struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	Collection    string    `json:"collection"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
}

// StreamEvent is pushed over the websocket hub while a turn is running.
type StreamEvent struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	// Type: "status", "token", "final" or "error"
	Type string `json:"type"`
	// State when Type is "status"
	State string `json:"state,omitempty"`
	// Fragment when Type is "token"
	Fragment string `json:"fragment,omitempty"`
	// Final payload when Type is "final"
	Content     string          `json:"content,omitempty"`
	Sources     []string        `json:"sources,omitempty"`
	Attachments []AttachmentDTO `json:"attachments,omitempty"`
}
