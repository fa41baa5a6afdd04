package contract

import (
	"context"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	// Plans
	CreatePlan(ctx context.Context, plan *entity.Plan) error
	FindPlan(ctx context.Context, specs ...specification.Specification) (*entity.Plan, error)
	FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.Plan, error)

	// Vouchers
	FindVoucher(ctx context.Context, specs ...specification.Specification) (*entity.Voucher, error)
	IncrementVoucherUsage(ctx context.Context, voucherId uuid.UUID) error

	// Subscriptions
	Create(ctx context.Context, subscription *entity.Subscription) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error)

	// Usage metering
	CreateUsageRecord(ctx context.Context, record *entity.UsageRecord) error
	FindUsageRecords(ctx context.Context, specs ...specification.Specification) ([]*entity.UsageRecord, error)
}
