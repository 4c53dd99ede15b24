package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/refoapp/backend/internal/middleware"
	"github.com/refoapp/backend/internal/services/wallet"
)

// WalletHandler handles wallet-related requests
type WalletHandler struct {
	walletService *wallet.WalletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletService *wallet.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// GetWallet returns the authenticated user's wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	w, err := h.walletService.GetOrCreateWallet(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get wallet"})
		return
	}

	c.JSON(http.StatusOK, w)
}

// GetTransactions returns the authenticated user's ledger history,
// newest first.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, pageSize := pagination(c)

	transactions, total, err := h.walletService.GetTransactionHistory(userID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}

// pagination reads page and page_size query parameters with sane bounds
func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	return page, pageSize
}
