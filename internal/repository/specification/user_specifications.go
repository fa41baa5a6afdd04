package specification

import "gorm.io/gorm"

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

type ByUsername struct {
	Username string
}

func (s ByUsername) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("username = ?", s.Username)
}

type ByOauthState struct {
	State string
}

func (s ByOauthState) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("oauth_state = ?", s.State)
}
