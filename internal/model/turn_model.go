package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type Turn struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserId         uuid.UUID  `gorm:"type:uuid;not null;index"`
	SubscriptionId *uuid.UUID `gorm:"type:uuid;index"`
	Role           string     `gorm:"type:varchar(50);not null"`
	Content        string     `gorm:"type:text;not null"`
	// nomic-embed-text uses 768 dimensions; NULL until the backfill runs
	Embedding *pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt time.Time        `gorm:"autoCreateTime"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt   `gorm:"index"`
}

func (Turn) TableName() string {
	return "turns"
}
