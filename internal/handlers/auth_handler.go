package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/config"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/services/email"
	"github.com/refoapp/backend/internal/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

// AuthHandler handles signup, login, and token refresh
type AuthHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	emailSvc *email.EmailService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, cfg *config.Config, emailSvc *email.EmailService) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, emailSvc: emailSvc}
}

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	Username     string `json:"username"`
	ReferralCode string `json:"referral_code"`
}

// Signup registers a new user. The user row, wallet, and affiliate link
// are created in one transaction so a user never exists without a
// wallet.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidatePasswordStrength(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	// Resolve referral attribution before opening the transaction
	var referrerID *uuid.UUID
	if req.ReferralCode != "" {
		var link models.AffiliateLink
		if err := h.db.Where("code = ?", req.ReferralCode).First(&link).Error; err == nil {
			referrerID = &link.UserID
		}
	}

	username := req.Username
	if username == "" {
		username = utils.GenerateUsername(req.Email)
	}

	user := models.User{
		Username:     username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		ReferralCode: utils.GenerateReferralCode(8),
		ReferredBy:   referrerID,
		OTPSecret:    utils.GenerateOTPSecret(),
		IsActive:     true,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		wallet := models.Wallet{UserID: user.ID}
		if err := tx.Create(&wallet).Error; err != nil {
			return err
		}

		link := models.AffiliateLink{
			UserID: user.ID,
			Code:   user.ReferralCode,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	go func() {
		if err := h.emailSvc.SendWelcomeEmail(user.Email, user.Username); err != nil {
			log.Printf("Failed to send welcome email: %v", err)
		}
	}()

	tokens, err := utils.GenerateTokenPair(user.ID, user.Email, user.IsAdmin, user.IsOwner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":   userResponse(&user),
		"tokens": tokens,
	})
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user with email and password
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	h.recordLogin(&user)

	tokens, err := utils.GenerateTokenPair(user.ID, user.Email, user.IsAdmin, user.IsOwner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   userResponse(&user),
		"tokens": tokens,
	})
}

// RefreshRequest represents the request body for token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken exchanges a refresh token for a new token pair
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := utils.ValidateToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	// Re-read the user so role changes take effect on refresh
	var user models.User
	if err := h.db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
		return
	}

	tokens, err := utils.GenerateTokenPair(user.ID, user.Email, user.IsAdmin, user.IsOwner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// RequestOTPRequest represents the request body for requesting a login
// code.
type RequestOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// RequestOTP generates a login code for a phone number. In production
// the code goes out via SMS; outside production it is returned in the
// response for testing.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !utils.IsValidPhone(req.Phone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number must be in international format"})
		return
	}

	var user models.User
	if err := h.db.Where("phone = ?", req.Phone).First(&user).Error; err != nil {
		// Do not reveal whether the phone number is registered
		c.JSON(http.StatusOK, gin.H{"message": "If the number is registered, a code has been sent"})
		return
	}

	code, err := utils.GenerateLoginOTP(user.OTPSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate code"})
		return
	}

	response := gin.H{"message": "If the number is registered, a code has been sent"}
	if h.cfg.Environment != "production" {
		response["code"] = code
	} else {
		log.Printf("Login OTP for %s generated", req.Phone)
	}

	c.JSON(http.StatusOK, response)
}

// VerifyOTPRequest represents the request body for OTP login
type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// VerifyOTP logs a user in with a phone number and login code
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("phone = ?", req.Phone).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid phone or code"})
		return
	}

	if !utils.ValidateLoginOTP(user.OTPSecret, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid phone or code"})
		return
	}

	h.recordLogin(&user)

	tokens, err := utils.GenerateTokenPair(user.ID, user.Email, user.IsAdmin, user.IsOwner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   userResponse(&user),
		"tokens": tokens,
	})
}

// GoogleAuthRequest represents the request body for Google authentication
type GoogleAuthRequest struct {
	Code        string `json:"code" binding:"required"`
	RedirectURI string `json:"redirect_uri" binding:"required"`
}

// GoogleUserInfo holds the profile fields returned by Google
type GoogleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleAuth signs a user in with a Google OAuth authorization code,
// creating the account on first login.
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.cfg.Google.ClientID == "" || h.cfg.Google.ClientSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	oauth2Config := &oauth2.Config{
		ClientID:     h.cfg.Google.ClientID,
		ClientSecret: h.cfg.Google.ClientSecret,
		RedirectURL:  req.RedirectURI,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}

	token, err := oauth2Config.Exchange(context.Background(), req.Code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to exchange token: %v", err)})
		return
	}

	userInfo, err := getUserInfoFromGoogle(token.AccessToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to get user info: %v", err)})
		return
	}

	if !userInfo.VerifiedEmail {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email not verified with Google"})
		return
	}

	var user models.User
	result := h.db.Where("email = ?", userInfo.Email).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		// First Google login creates the account with a random password
		hashedPassword, err := utils.HashPassword(utils.GenerateSecureToken(24))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process account"})
			return
		}

		user = models.User{
			Username:     utils.GenerateUsername(userInfo.Email),
			Email:        userInfo.Email,
			PasswordHash: hashedPassword,
			AvatarURL:    &userInfo.Picture,
			ReferralCode: utils.GenerateReferralCode(8),
			OTPSecret:    utils.GenerateOTPSecret(),
			IsVerified:   true,
			IsActive:     true,
		}

		err = h.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.Wallet{UserID: user.ID}).Error; err != nil {
				return err
			}
			return tx.Create(&models.AffiliateLink{UserID: user.ID, Code: user.ReferralCode}).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}
	} else if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up account"})
		return
	}

	h.recordLogin(&user)

	tokens, err := utils.GenerateTokenPair(user.ID, user.Email, user.IsAdmin, user.IsOwner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   userResponse(&user),
		"tokens": tokens,
	})
}

func (h *AuthHandler) recordLogin(user *models.User) {
	now := time.Now()
	if err := h.db.Model(user).Update("last_login_at", now).Error; err != nil {
		log.Printf("Failed to record login time: %v", err)
	}
}

// getUserInfoFromGoogle gets the user info from Google using the access token
func getUserInfoFromGoogle(accessToken string) (*GoogleUserInfo, error) {
	url := "https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + accessToken
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to get user info from Google")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var userInfo GoogleUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, err
	}

	return &userInfo, nil
}

// userResponse shapes the user fields returned by auth endpoints
func userResponse(user *models.User) gin.H {
	return gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"email":         user.Email,
		"avatar_url":    user.AvatarURL,
		"referral_code": user.ReferralCode,
		"is_admin":      user.IsAdmin,
		"is_owner":      user.IsOwner,
	}
}
