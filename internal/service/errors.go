// FILE: internal/service/errors.go
package service

import "errors"

// Sentinel errors the transport layer maps to HTTP statuses.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrTurnNotFound         = errors.New("turn not found")
	ErrSubscriptionRequired = errors.New("active subscription required")
	ErrInvalidApiKey        = errors.New("invalid or expired api key")
)
