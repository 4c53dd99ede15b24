package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/middleware"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/services/payout"
	"github.com/refoapp/backend/internal/services/wallet"
	"gorm.io/gorm"
)

// PayoutHandler handles payout requests, both the user side and the
// admin review side.
type PayoutHandler struct {
	payoutService *payout.PayoutService
}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler(payoutService *payout.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

// CreateRequestBody represents the request body for creating a payout
// request.
type CreateRequestBody struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Method      string  `json:"method" binding:"required"`
	UPIAddress  string  `json:"upi_address"`
	BankAccount string  `json:"bank_account"`
	BankIFSC    string  `json:"bank_ifsc"`
}

// CreateRequest creates a payout request for the authenticated user
func (h *PayoutHandler) CreateRequest(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.payoutService.CreateRequest(userID, payout.CreateRequestInput{
		Amount:      body.Amount,
		Method:      models.PayoutMethod(body.Method),
		UPIAddress:  body.UPIAddress,
		BankAccount: body.BankAccount,
		BankIFSC:    body.BankIFSC,
	})
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrBelowMinimum):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, payout.ErrOverCommitted):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, payout.ErrMissingDetails):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, request)
}

// ListMyRequests lists the authenticated user's payout requests
func (h *PayoutHandler) ListMyRequests(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requests, err := h.payoutService.ListUserRequests(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payout requests"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// ListRequests lists payout requests for the admin review queue
func (h *PayoutHandler) ListRequests(c *gin.Context) {
	page, pageSize := pagination(c)
	status := models.PayoutStatus(c.Query("status"))

	requests, total, err := h.payoutService.ListRequests(status, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payout requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests":  requests,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ApproveRequest approves a pending payout request
func (h *PayoutHandler) ApproveRequest(c *gin.Context) {
	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request ID"})
		return
	}

	request, err := h.payoutService.Approve(adminID, requestID)
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, wallet.ErrInsufficientBalance):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payout request not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve payout request"})
		}
		return
	}

	c.JSON(http.StatusOK, request)
}

// RejectRequestBody represents the request body for rejecting a payout
type RejectRequestBody struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectRequest rejects a pending payout request with a reason
func (h *PayoutHandler) RejectRequest(c *gin.Context) {
	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request ID"})
		return
	}

	var body RejectRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.payoutService.Reject(adminID, requestID, body.Reason)
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payout request not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject payout request"})
		}
		return
	}

	c.JSON(http.StatusOK, request)
}
