package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a user in the system
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex" json:"username"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Phone        *string        `gorm:"type:varchar(20)" json:"phone"`
	AvatarURL    *string        `gorm:"type:text" json:"avatar_url"`
	IsVerified   bool           `gorm:"default:false" json:"is_verified"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	IsAdmin      bool           `gorm:"default:false" json:"is_admin"`
	IsOwner      bool           `gorm:"default:false" json:"is_owner"`
	ReferralCode string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"referral_code"`
	ReferredBy   *uuid.UUID     `gorm:"type:uuid" json:"referred_by"`
	OTPSecret    string         `gorm:"type:varchar(64)" json:"-"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Role returns the authorization role for this user, as evaluated by the
// policy layer. Owner implies admin.
func (u *User) Role() string {
	if u.IsOwner {
		return "owner"
	}
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}
