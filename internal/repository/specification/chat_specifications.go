package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}

// WithEmbedding keeps only turns whose embedding has been computed
type WithEmbedding struct{}

func (s WithEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding IS NOT NULL")
}

// WithoutEmbedding keeps turns still waiting for the backfill consumer
type WithoutEmbedding struct{}

func (s WithoutEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding IS NULL")
}
