package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendChatStreamRequest struct {
	Model          string     `json:"model" validate:"required"`
	Prompt         string     `json:"prompt" validate:"required"`
	ApiKey         string     `json:"api_key,omitempty"`
	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
}

// StreamMessage carries one content delta, mirroring the inference
// backend's chat frame shape.
type StreamMessage struct {
	Content string `json:"content"`
}

// StreamFragment is one SSE/WebSocket payload. Exactly one of Message,
// Error, or Done is meaningful per fragment.
type StreamFragment struct {
	ConversationId uuid.UUID      `json:"conversation_id,omitempty"`
	Message        *StreamMessage `json:"message,omitempty"`
	Error          string         `json:"error,omitempty"`
	Done           bool           `json:"done,omitempty"`
}

// PublishEmbedTurnMessage is the backfill queue payload for turns persisted
// before their embedding was available.
type PublishEmbedTurnMessage struct {
	TurnId    uuid.UUID `json:"turn_id"`
	Translate bool      `json:"translate"`
}

type CreateConversationRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type CreateConversationResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllConversationsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetTurnHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type EditTurnRequest struct {
	Content string `json:"content" validate:"required"`
}
