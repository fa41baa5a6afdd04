package mapper

import (
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}

	var updatedAt *time.Time
	if !u.UpdatedAt.IsZero() {
		t := u.UpdatedAt
		updatedAt = &t
	}

	return &entity.User{
		Id:                 u.Id,
		Username:           u.Username,
		Email:              u.Email,
		PhoneNumber:        u.PhoneNumber,
		PasswordHash:       u.PasswordHash,
		IsActive:           u.IsActive,
		OauthState:         u.OauthState,
		GoogleAccessToken:  u.GoogleAccessToken,
		GoogleRefreshToken: u.GoogleRefreshToken,
		GoogleTokenExpiry:  u.GoogleTokenExpiry,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}

	var updatedAt time.Time
	if u.UpdatedAt != nil {
		updatedAt = *u.UpdatedAt
	}

	return &model.User{
		Id:                 u.Id,
		Username:           u.Username,
		Email:              u.Email,
		PhoneNumber:        u.PhoneNumber,
		PasswordHash:       u.PasswordHash,
		IsActive:           u.IsActive,
		OauthState:         u.OauthState,
		GoogleAccessToken:  u.GoogleAccessToken,
		GoogleRefreshToken: u.GoogleRefreshToken,
		GoogleTokenExpiry:  u.GoogleTokenExpiry,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *UserMapper) ActivationCodeToEntity(c *model.ActivationCode) *entity.ActivationCode {
	if c == nil {
		return nil
	}
	return &entity.ActivationCode{
		Id:        c.Id,
		UserId:    c.UserId,
		Code:      c.Code,
		ExpiresAt: c.ExpiresAt,
	}
}

func (m *UserMapper) ActivationCodeToModel(c *entity.ActivationCode) *model.ActivationCode {
	if c == nil {
		return nil
	}
	return &model.ActivationCode{
		Id:        c.Id,
		UserId:    c.UserId,
		Code:      c.Code,
		ExpiresAt: c.ExpiresAt,
	}
}
