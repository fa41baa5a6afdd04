package entity

import (
	"time"

	"github.com/google/uuid"
)

type Plan struct {
	Id             uuid.UUID
	Name           string
	DurationMonths int
	Price          float64
}

type Voucher struct {
	Id         uuid.UUID
	Code       string
	Discount   float64 // fraction of price, 0..1
	ExpiryDate time.Time
	MaxUsage   int
	UsedCount  int
}

type Subscription struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	PlanId    uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	ApiKey    string
}

// UsageRecord meters one completed chat exchange for billing analytics.
type UsageRecord struct {
	Id               uuid.UUID
	UserId           uuid.UUID
	SubscriptionId   *uuid.UUID
	ConversationId   uuid.UUID
	Model            string
	PromptTokens     int
	CompletionTokens int
	Details          map[string]interface{}
	CreatedAt        time.Time
}
