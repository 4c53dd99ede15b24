package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/refoapp/backend/internal/middleware"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/storage"
	"github.com/refoapp/backend/internal/utils"
	"gorm.io/gorm"
)

// maxUploadSize caps avatar and proof uploads at 5MB
const maxUploadSize = 5 << 20

// ProfileHandler handles the authenticated user's profile
type ProfileHandler struct {
	db      *gorm.DB
	storage *storage.Storage
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(db *gorm.DB, store *storage.Storage) *ProfileHandler {
	return &ProfileHandler{db: db, storage: store}
}

// GetProfile returns the authenticated user's profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfileRequest represents the request body for profile updates
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Phone    *string `json:"phone"`
}

// UpdateProfile updates the authenticated user's profile fields
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	updates := map[string]interface{}{}
	if req.Username != nil && *req.Username != "" {
		updates["username"] = *req.Username
	}
	if req.Phone != nil {
		if !utils.IsValidPhone(*req.Phone) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number must be in international format"})
			return
		}
		updates["phone"] = *req.Phone
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
			return
		}
	}

	c.JSON(http.StatusOK, user)
}

// UploadAvatar stores a new profile picture for the authenticated user
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}

	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds the 5MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer file.Close()

	url, err := h.storage.UploadAvatar(c.Request.Context(), userID, file, fileHeader.Size,
		fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store avatar"})
		return
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).Update("avatar_url", url).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
