package models

import (
	"time"
)

// RevokedToken blacklists a session token after logout until it would have expired anyway.
type RevokedToken struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	JTI       string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}

func (t *RevokedToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
