package mapper

import (
	"testing"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
)

func TestTurnToModel_EmbeddingHandling(t *testing.T) {
	m := NewChatMapper()

	withVec := &entity.Turn{
		Id:             uuid.New(),
		ConversationId: uuid.New(),
		UserId:         uuid.New(),
		Role:           constant.TurnRoleUser,
		Content:        "xin chào",
		Embedding:      []float32{0.1, 0.2, 0.3},
		CreatedAt:      time.Now(),
	}
	row := m.TurnToModel(withVec)
	assert.NotNil(t, row.Embedding)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, row.Embedding.Slice())

	// A turn awaiting backfill stores NULL, not a zero vector.
	withVec.Embedding = nil
	assert.Nil(t, m.TurnToModel(withVec).Embedding)
}

func TestTurnToEntity_NilEmbeddingStaysNil(t *testing.T) {
	m := NewChatMapper()

	vec := pgvector.NewVector([]float32{1, 0})
	turn := &model.Turn{
		Id:        uuid.New(),
		Role:      constant.TurnRoleAssistant,
		Content:   "reply",
		Embedding: &vec,
	}
	assert.Equal(t, []float32{1, 0}, m.TurnToEntity(turn).Embedding)

	turn.Embedding = nil
	assert.Nil(t, m.TurnToEntity(turn).Embedding)
}

func TestConversationRoundTrip(t *testing.T) {
	m := NewChatMapper()

	updated := time.Now()
	e := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		Title:     "thời tiết hôm nay",
		CreatedAt: time.Now(),
		UpdatedAt: &updated,
	}

	back := m.ConversationToEntity(m.ConversationToModel(e))
	assert.Equal(t, e.Id, back.Id)
	assert.Equal(t, e.Title, back.Title)
	assert.NotNil(t, back.UpdatedAt)

	e.UpdatedAt = nil
	assert.Nil(t, m.ConversationToEntity(m.ConversationToModel(e)).UpdatedAt)
}

func TestNilInputsReturnNil(t *testing.T) {
	m := NewChatMapper()
	assert.Nil(t, m.TurnToEntity(nil))
	assert.Nil(t, m.TurnToModel(nil))
	assert.Nil(t, m.ConversationToEntity(nil))
	assert.Nil(t, m.ConversationToModel(nil))
}
