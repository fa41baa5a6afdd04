package entity

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one message in a conversation. Embedding is nil until computed;
// a turn is only re-embedded by an explicit edit, never implicitly.
type Turn struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	UserId         uuid.UUID
	SubscriptionId *uuid.UUID
	Role           string // "user" | "assistant"
	Content        string
	Embedding      []float32
	CreatedAt      time.Time
}
