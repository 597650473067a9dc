package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey authenticates a registration station. Attendees registered through
// the key are stamped with its station number.
type APIKey struct {
	gorm.Model
	UserID     uint       `json:"user_id"`
	User       User       `json:"-"`
	Key        string     `json:"key" gorm:"uniqueIndex"`
	Name       string     `json:"name"`
	Station    int        `json:"station"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}
