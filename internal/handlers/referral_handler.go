package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/refoapp/backend/internal/middleware"
	"github.com/refoapp/backend/internal/services/referral"
)

// ReferralHandler handles affiliate links and referral stats
type ReferralHandler struct {
	referralService *referral.ReferralService
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(referralService *referral.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// GetMyLink returns the authenticated user's affiliate link and stats
func (h *ReferralHandler) GetMyLink(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.referralService.GetStats(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListConversions lists the authenticated user's referral conversions
func (h *ReferralHandler) ListConversions(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conversions, err := h.referralService.ListConversions(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversions"})
		return
	}

	c.JSON(http.StatusOK, conversions)
}

// RecordClick counts a visit through a referral link. Public endpoint,
// hit by the landing page before signup.
func (h *ReferralHandler) RecordClick(c *gin.Context) {
	code := c.Param("code")

	if err := h.referralService.RecordClick(code); err != nil {
		if errors.Is(err, referral.ErrInvalidCode) {
			c.JSON(http.StatusNotFound, gin.H{"error": "referral code not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record click"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "click recorded"})
}
