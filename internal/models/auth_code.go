package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthCode is an invite-style credential issued by a superadmin. A code is
// usable until it expires, is deactivated, or has been claimed by a user.
type AuthCode struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code      string         `gorm:"uniqueIndex;not null" json:"code"`
	Active    bool           `gorm:"default:true" json:"active"`
	ExpiresAt *time.Time     `json:"expires_at"`
	UsedBy    string         `json:"used_by,omitempty"`
	UsedAt    *time.Time     `json:"used_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *AuthCode) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Usable reports whether the code can still be redeemed at the given time.
func (c *AuthCode) Usable(now time.Time) bool {
	if !c.Active || c.UsedAt != nil {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	return true
}
