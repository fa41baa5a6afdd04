package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Plan struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	DurationMonths int       `gorm:"not null"`
	Price          float64   `gorm:"type:decimal(10,2);not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Plan) TableName() string {
	return "plans"
}

type Voucher struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code       string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Discount   float64   `gorm:"type:decimal(5,4);not null"` // fraction of price, 0..1
	ExpiryDate time.Time `gorm:"not null"`
	MaxUsage   int       `gorm:"default:0"`
	UsedCount  int       `gorm:"default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Voucher) TableName() string {
	return "vouchers"
}

type Subscription struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	PlanId    uuid.UUID `gorm:"type:uuid;not null;index"`
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	ApiKey    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

type UsageRecord struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId           uuid.UUID      `gorm:"type:uuid;not null;index"`
	SubscriptionId   *uuid.UUID     `gorm:"type:uuid;index"`
	ConversationId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Model            string         `gorm:"type:varchar(100);not null"`
	PromptTokens     int            `gorm:"default:0"`
	CompletionTokens int            `gorm:"default:0"`
	Details          datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
