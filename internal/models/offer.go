package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OfferStatus is the publication state of a catalog offer
type OfferStatus string

const (
	OfferStatusActive   OfferStatus = "active"
	OfferStatusInactive OfferStatus = "inactive"
)

// Offer represents a catalog entry a user can complete for a reward
type Offer struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Slug         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description  string         `gorm:"type:text" json:"description"`
	Reward       float64        `gorm:"type:decimal(12,2);not null" json:"reward"`
	Category     string         `gorm:"type:varchar(100);index" json:"category"`
	LogoURL      string         `gorm:"type:text" json:"logo_url"`
	PlayStoreURL string         `gorm:"type:text" json:"play_store_url"`
	Instructions StringList     `gorm:"type:jsonb" json:"instructions"`
	Status       OfferStatus    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	IsPublic     bool           `gorm:"default:true" json:"is_public"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Category is an admin-managed offer category
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
