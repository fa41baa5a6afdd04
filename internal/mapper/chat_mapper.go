package mapper

import (
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Conversation Mappers

func (m *ChatMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) ConversationToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Conversation{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) ConversationsToEntities(conversations []*model.Conversation) []*entity.Conversation {
	entities := make([]*entity.Conversation, len(conversations))
	for i, c := range conversations {
		entities[i] = m.ConversationToEntity(c)
	}
	return entities
}

// Turn Mappers

func (m *ChatMapper) TurnToEntity(t *model.Turn) *entity.Turn {
	if t == nil {
		return nil
	}

	var embedding []float32
	if t.Embedding != nil {
		embedding = t.Embedding.Slice()
	}

	return &entity.Turn{
		Id:             t.Id,
		ConversationId: t.ConversationId,
		UserId:         t.UserId,
		SubscriptionId: t.SubscriptionId,
		Role:           t.Role,
		Content:        t.Content,
		Embedding:      embedding,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *ChatMapper) TurnToModel(t *entity.Turn) *model.Turn {
	if t == nil {
		return nil
	}

	var embedding *pgvector.Vector
	if len(t.Embedding) > 0 {
		v := pgvector.NewVector(t.Embedding)
		embedding = &v
	}

	return &model.Turn{
		Id:             t.Id,
		ConversationId: t.ConversationId,
		UserId:         t.UserId,
		SubscriptionId: t.SubscriptionId,
		Role:           t.Role,
		Content:        t.Content,
		Embedding:      embedding,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *ChatMapper) TurnsToEntities(turns []*model.Turn) []*entity.Turn {
	entities := make([]*entity.Turn, len(turns))
	for i, t := range turns {
		entities[i] = m.TurnToEntity(t)
	}
	return entities
}
