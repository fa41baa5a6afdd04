package contract

import (
	"context"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TurnRepository interface {
	// Create appends; a stored turn only changes through an explicit edit
	// (UpdateContent) or the embedding backfill.
	Create(ctx context.Context, turn *entity.Turn) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Turn, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Turn, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByConversationId(ctx context.Context, conversationId uuid.UUID) error

	// FindRecent returns up to limit turns of the conversation, newest first.
	FindRecent(ctx context.Context, conversationId uuid.UUID, limit int) ([]*entity.Turn, error)

	// UpdateContent replaces a turn's content together with its fresh
	// embedding (nil clears the vector until backfill).
	UpdateContent(ctx context.Context, turnId uuid.UUID, content string, embedding []float32) error

	// UpdateEmbedding sets the vector on a turn that was persisted before
	// its embedding was available (backfill path).
	UpdateEmbedding(ctx context.Context, turnId uuid.UUID, embedding []float32) error
}
