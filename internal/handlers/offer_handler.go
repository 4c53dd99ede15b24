package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/services/offer"
	"gorm.io/gorm"
)

// OfferHandler handles the offer catalog, public browsing and admin
// management.
type OfferHandler struct {
	offerService *offer.OfferService
}

// NewOfferHandler creates a new offer handler
func NewOfferHandler(offerService *offer.OfferService) *OfferHandler {
	return &OfferHandler{offerService: offerService}
}

// ListOffers lists active public offers
func (h *OfferHandler) ListOffers(c *gin.Context) {
	page, pageSize := pagination(c)
	category := c.Query("category")

	offers, total, err := h.offerService.ListPublicOffers(category, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list offers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"offers":    offers,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetOffer returns a single offer by slug
func (h *OfferHandler) GetOffer(c *gin.Context) {
	o, err := h.offerService.GetOfferBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
		return
	}

	c.JSON(http.StatusOK, o)
}

// ListCategories lists offer categories
func (h *OfferHandler) ListCategories(c *gin.Context) {
	categories, err := h.offerService.ListCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}

	c.JSON(http.StatusOK, categories)
}

// ListAllOffers lists every offer for the admin catalog view
func (h *OfferHandler) ListAllOffers(c *gin.Context) {
	page, pageSize := pagination(c)

	offers, total, err := h.offerService.ListAllOffers(page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list offers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"offers":    offers,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// CreateOffer creates a new offer
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	var input offer.CreateOfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, err := h.offerService.CreateOffer(input)
	if err != nil {
		if errors.Is(err, offer.ErrSlugTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create offer"})
		return
	}

	c.JSON(http.StatusCreated, o)
}

// UpdateOfferBody represents the request body for updating an offer
type UpdateOfferBody struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Reward       *float64  `json:"reward"`
	Category     *string   `json:"category"`
	LogoURL      *string   `json:"logo_url"`
	PlayStoreURL *string   `json:"play_store_url"`
	Instructions *[]string `json:"instructions"`
	IsPublic     *bool     `json:"is_public"`
}

// UpdateOffer applies partial updates to an offer
func (h *OfferHandler) UpdateOffer(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer ID"})
		return
	}

	var body UpdateOfferBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if body.Title != nil {
		updates["title"] = *body.Title
	}
	if body.Description != nil {
		updates["description"] = *body.Description
	}
	if body.Reward != nil {
		if *body.Reward <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reward must be positive"})
			return
		}
		updates["reward"] = *body.Reward
	}
	if body.Category != nil {
		updates["category"] = *body.Category
	}
	if body.LogoURL != nil {
		updates["logo_url"] = *body.LogoURL
	}
	if body.PlayStoreURL != nil {
		updates["play_store_url"] = *body.PlayStoreURL
	}
	if body.Instructions != nil {
		updates["instructions"] = models.StringList(*body.Instructions)
	}
	if body.IsPublic != nil {
		updates["is_public"] = *body.IsPublic
	}

	o, err := h.offerService.UpdateOffer(offerID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update offer"})
		return
	}

	c.JSON(http.StatusOK, o)
}

// SetOfferStatusBody represents the request body for toggling an offer
type SetOfferStatusBody struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

// SetOfferStatus activates or deactivates an offer
func (h *OfferHandler) SetOfferStatus(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer ID"})
		return
	}

	var body SetOfferStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, err := h.offerService.SetStatus(offerID, models.OfferStatus(body.Status))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update offer"})
		return
	}

	c.JSON(http.StatusOK, o)
}

// DeleteOffer soft deletes an offer
func (h *OfferHandler) DeleteOffer(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer ID"})
		return
	}

	if err := h.offerService.DeleteOffer(offerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete offer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "offer deleted"})
}

// CreateCategoryBody represents the request body for creating a category
type CreateCategoryBody struct {
	Name string `json:"name" binding:"required"`
}

// CreateCategory creates an offer category
func (h *OfferHandler) CreateCategory(c *gin.Context) {
	var body CreateCategoryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.offerService.CreateCategory(body.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}
