package specification

import (
	"time"

	"gorm.io/gorm"
)

type ByApiKey struct {
	ApiKey string
}

func (s ByApiKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("api_key = ?", s.ApiKey)
}

type ByVoucherCode struct {
	Code string
}

func (s ByVoucherCode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("code = ?", s.Code)
}

// ActiveAt keeps subscriptions whose validity window covers the instant
type ActiveAt struct {
	At time.Time
}

func (s ActiveAt) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("start_date <= ? AND end_date >= ?", s.At, s.At)
}
