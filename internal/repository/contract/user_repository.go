package contract

import (
	"context"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	ActivateUser(ctx context.Context, userId uuid.UUID) error
	UpdatePassword(ctx context.Context, userId uuid.UUID, hash string) error

	// Google OAuth token storage
	SaveOauthState(ctx context.Context, userId uuid.UUID, state string) error
	SaveGoogleTokens(ctx context.Context, userId uuid.UUID, accessToken, refreshToken string, expiry *time.Time) error

	// Activation codes
	CreateActivationCode(ctx context.Context, code *entity.ActivationCode) error
	FindActivationCode(ctx context.Context, specs ...specification.Specification) (*entity.ActivationCode, error)
	DeleteActivationCodesForUser(ctx context.Context, userId uuid.UUID) error
}
