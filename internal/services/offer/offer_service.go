package offer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/refoapp/backend/internal/models"
	"gorm.io/gorm"
)

// ErrSlugTaken is returned when an offer with the same slug exists
var ErrSlugTaken = errors.New("offer slug already in use")

// OfferService manages the offer catalog
type OfferService struct {
	db *gorm.DB
}

// NewOfferService creates a new offer service
func NewOfferService(db *gorm.DB) *OfferService {
	return &OfferService{db: db}
}

// CreateOfferInput holds the fields for creating or updating an offer
type CreateOfferInput struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	Reward       float64  `json:"reward" binding:"required,gt=0"`
	Category     string   `json:"category"`
	LogoURL      string   `json:"logo_url"`
	PlayStoreURL string   `json:"play_store_url"`
	Instructions []string `json:"instructions"`
	IsPublic     *bool    `json:"is_public"`
}

// CreateOffer creates an offer with a slug derived from the title
func (s *OfferService) CreateOffer(input CreateOfferInput) (*models.Offer, error) {
	offerSlug := slug.Make(input.Title)

	var existing models.Offer
	result := s.db.Unscoped().Where("slug = ?", offerSlug).First(&existing)
	if result.Error == nil {
		return nil, ErrSlugTaken
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking slug: %w", result.Error)
	}

	offer := models.Offer{
		Title:        input.Title,
		Slug:         offerSlug,
		Description:  input.Description,
		Reward:       input.Reward,
		Category:     input.Category,
		LogoURL:      input.LogoURL,
		PlayStoreURL: input.PlayStoreURL,
		Instructions: input.Instructions,
		Status:       models.OfferStatusActive,
		IsPublic:     true,
	}
	if input.IsPublic != nil {
		offer.IsPublic = *input.IsPublic
	}

	if err := s.db.Create(&offer).Error; err != nil {
		return nil, fmt.Errorf("error creating offer: %w", err)
	}

	return &offer, nil
}

// UpdateOffer applies partial updates to an offer. The slug is not
// regenerated so existing links keep working.
func (s *OfferService) UpdateOffer(offerID uuid.UUID, updates map[string]interface{}) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.First(&offer, "id = ?", offerID).Error; err != nil {
		return nil, fmt.Errorf("error finding offer: %w", err)
	}

	if err := s.db.Model(&offer).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("error updating offer: %w", err)
	}

	return &offer, nil
}

// SetStatus activates or deactivates an offer
func (s *OfferService) SetStatus(offerID uuid.UUID, status models.OfferStatus) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.First(&offer, "id = ?", offerID).Error; err != nil {
		return nil, fmt.Errorf("error finding offer: %w", err)
	}

	offer.Status = status
	if err := s.db.Save(&offer).Error; err != nil {
		return nil, fmt.Errorf("error updating offer: %w", err)
	}

	return &offer, nil
}

// DeleteOffer soft deletes an offer. Existing tasks keep their reference.
func (s *OfferService) DeleteOffer(offerID uuid.UUID) error {
	result := s.db.Delete(&models.Offer{}, "id = ?", offerID)
	if result.Error != nil {
		return fmt.Errorf("error deleting offer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetOffer fetches an offer by ID
func (s *OfferService) GetOffer(offerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.First(&offer, "id = ?", offerID).Error; err != nil {
		return nil, fmt.Errorf("error finding offer: %w", err)
	}
	return &offer, nil
}

// GetOfferBySlug fetches an offer by its slug
func (s *OfferService) GetOfferBySlug(offerSlug string) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.Where("slug = ?", offerSlug).First(&offer).Error; err != nil {
		return nil, fmt.Errorf("error finding offer: %w", err)
	}
	return &offer, nil
}

// ListPublicOffers lists active public offers, optionally filtered by
// category, newest first.
func (s *OfferService) ListPublicOffers(category string, page, pageSize int) ([]models.Offer, int64, error) {
	query := s.db.Model(&models.Offer{}).
		Where("status = ? AND is_public = ?", models.OfferStatusActive, true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting offers: %w", err)
	}

	var offers []models.Offer
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&offers).Error; err != nil {
		return nil, 0, fmt.Errorf("error listing offers: %w", err)
	}

	return offers, total, nil
}

// ListAllOffers lists every offer for the admin catalog view
func (s *OfferService) ListAllOffers(page, pageSize int) ([]models.Offer, int64, error) {
	var total int64
	if err := s.db.Model(&models.Offer{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting offers: %w", err)
	}

	var offers []models.Offer
	offset := (page - 1) * pageSize
	if err := s.db.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&offers).Error; err != nil {
		return nil, 0, fmt.Errorf("error listing offers: %w", err)
	}

	return offers, total, nil
}

// CreateCategory creates an offer category
func (s *OfferService) CreateCategory(name string) (*models.Category, error) {
	category := models.Category{Name: name}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, fmt.Errorf("error creating category: %w", err)
	}
	return &category, nil
}

// ListCategories lists categories alphabetically
func (s *OfferService) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	return categories, nil
}
