package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AffiliateLink is a user's referral attribution record
type AffiliateLink struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"-"`
	Code        string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Clicks      int64          `gorm:"default:0" json:"clicks"`
	Conversions int64          `gorm:"default:0" json:"conversions"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ConversionStatus is the crediting state of a referral conversion
type ConversionStatus string

const (
	ConversionStatusPending  ConversionStatus = "pending"
	ConversionStatusCredited ConversionStatus = "credited"
)

// ReferralConversion records a referred user becoming eligible for a
// commission. At most one row per referred user, so crediting stays
// idempotent under retries.
type ReferralConversion struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	AffiliateLinkID uuid.UUID        `gorm:"type:uuid;index;not null" json:"affiliate_link_id"`
	AffiliateLink   AffiliateLink    `gorm:"foreignKey:AffiliateLinkID" json:"-"`
	ReferrerID      uuid.UUID        `gorm:"type:uuid;index;not null" json:"referrer_id"`
	ReferredUserID  uuid.UUID        `gorm:"type:uuid;uniqueIndex;not null" json:"referred_user_id"`
	RewardAmount    float64          `gorm:"type:decimal(12,2);not null" json:"reward_amount"`
	Status          ConversionStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreditedAt      *time.Time       `json:"credited_at"`
	CreatedAt       time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}
