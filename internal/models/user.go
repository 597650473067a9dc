package models

import (
	"gorm.io/gorm"
)

// User is an operator signed in through Discord. Its name is recorded as the
// actor on audit rows.
type User struct {
	gorm.Model
	DiscordID  string  `gorm:"uniqueIndex" json:"discord_id"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Avatar     string  `json:"avatar"`
	AttendeeID *string `gorm:"type:uuid" json:"attendee_id"`
}

// AuditName is the "who" written to tracking rows.
func (u *User) AuditName() string {
	if u == nil || u.Username == "" {
		return "non-admin"
	}
	return u.Username
}
