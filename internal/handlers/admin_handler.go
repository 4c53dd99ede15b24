package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/middleware"
	"github.com/refoapp/backend/internal/models"
	"gorm.io/gorm"
)

// AdminHandler handles platform stats, user management, and role grants
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// GetStats returns the admin dashboard counters
func (h *AdminHandler) GetStats(c *gin.Context) {
	var userCount, activeOffers, pendingTasks, pendingPayouts int64
	var totalPaidOut, totalRewarded float64

	if err := h.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	h.db.Model(&models.Offer{}).Where("status = ?", models.OfferStatusActive).Count(&activeOffers)
	h.db.Model(&models.Task{}).Where("status IN ?", []models.TaskStatus{models.TaskStatusPending, models.TaskStatusSubmitted}).Count(&pendingTasks)
	h.db.Model(&models.PayoutRequest{}).Where("status = ?", models.PayoutStatusPending).Count(&pendingPayouts)

	h.db.Model(&models.Transaction{}).
		Where("type = ? AND status = ?", models.TransactionTypeWithdrawal, models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalPaidOut)
	h.db.Model(&models.Transaction{}).
		Where("type = ? AND status = ?", models.TransactionTypeCredit, models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalRewarded)

	c.JSON(http.StatusOK, gin.H{
		"users":           userCount,
		"active_offers":   activeOffers,
		"pending_tasks":   pendingTasks,
		"pending_payouts": pendingPayouts,
		"total_paid_out":  totalPaidOut,
		"total_rewarded":  totalRewarded,
	})
}

// ListUsers lists users for the admin user table
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, pageSize := pagination(c)

	query := h.db.Model(&models.User{})
	if search := c.Query("search"); search != "" {
		// LOWER + LIKE instead of ILIKE so the query works on every dialect
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(username) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count users"})
		return
	}

	var users []models.User
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":     users,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// SetRoleBody represents the request body for granting or revoking the
// admin role.
type SetRoleBody struct {
	IsAdmin bool `json:"is_admin"`
}

// SetRole grants or revokes a user's admin role. Owner accounts cannot
// be modified through this endpoint.
func (h *AdminHandler) SetRole(c *gin.Context) {
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if userID == actorID {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot change your own role"})
		return
	}

	var body SetRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if user.IsOwner {
		c.JSON(http.StatusConflict, gin.H{"error": "owner role cannot be modified"})
		return
	}

	if err := h.db.Model(&user).Update("is_admin", body.IsAdmin).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update role"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// SetActiveBody represents the request body for enabling or disabling an
// account.
type SetActiveBody struct {
	IsActive bool `json:"is_active"`
}

// SetActive enables or disables a user account
func (h *AdminHandler) SetActive(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	var body SetActiveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if user.IsOwner {
		c.JSON(http.StatusConflict, gin.H{"error": "owner account cannot be disabled"})
		return
	}

	if err := h.db.Model(&user).Update("is_active", body.IsActive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update account"})
		return
	}

	c.JSON(http.StatusOK, user)
}
