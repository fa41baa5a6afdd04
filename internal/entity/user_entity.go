package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID
	Username     string
	Email        string
	PhoneNumber  *string
	PasswordHash string
	IsActive     bool

	// Google OAuth token storage
	OauthState         *string
	GoogleAccessToken  *string
	GoogleRefreshToken *string
	GoogleTokenExpiry  *time.Time

	CreatedAt time.Time
	UpdatedAt *time.Time
}

type ActivationCode struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Code      string
	ExpiresAt time.Time
}
