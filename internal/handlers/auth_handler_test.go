package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/refoapp/backend/internal/config"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/services/email"
	"github.com/refoapp/backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.Wallet{}, &models.AffiliateLink{})
	require.NoError(t, err)

	return db
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db := setupAuthTestDB(t)
	cfg := &config.Config{Environment: "test"}
	emailSvc := email.NewEmailService(config.ResendConfig{})
	handler := NewAuthHandler(db, cfg, emailSvc)

	router := gin.New()
	router.POST("/api/auth/signup", handler.Signup)
	router.POST("/api/auth/login", handler.Login)
	router.POST("/api/auth/refresh", handler.RefreshToken)

	return router, db
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSignupCreatesUserWalletAndLink(t *testing.T) {
	router, db := setupAuthRouter(t)

	w := postJSON(router, "/api/auth/signup", SignupRequest{
		Email:    "new@example.com",
		Password: "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Tokens utils.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Tokens.AccessToken)

	var user models.User
	require.NoError(t, db.Where("email = ?", "new@example.com").First(&user).Error)
	assert.NotEmpty(t, user.ReferralCode)
	assert.NotEmpty(t, user.Username)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsAdmin)

	// A user never exists without a wallet or an affiliate link
	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&wallet).Error)
	assert.Equal(t, 0.0, wallet.TotalBalance)

	var link models.AffiliateLink
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&link).Error)
	assert.Equal(t, user.ReferralCode, link.Code)
}

func TestSignupDuplicateEmail(t *testing.T) {
	router, _ := setupAuthRouter(t)

	first := postJSON(router, "/api/auth/signup", SignupRequest{Email: "dup@example.com", Password: "secret123"})
	require.Equal(t, http.StatusCreated, first.Code)

	second := postJSON(router, "/api/auth/signup", SignupRequest{Email: "dup@example.com", Password: "secret456"})
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestSignupWeakPassword(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := postJSON(router, "/api/auth/signup", SignupRequest{Email: "weak@example.com", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/api/auth/signup", SignupRequest{Email: "weak@example.com", Password: "lettersonly"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupWithReferralCode(t *testing.T) {
	router, db := setupAuthRouter(t)

	require.Equal(t, http.StatusCreated, postJSON(router, "/api/auth/signup", SignupRequest{
		Email:    "referrer@example.com",
		Password: "secret123",
	}).Code)

	var referrer models.User
	require.NoError(t, db.Where("email = ?", "referrer@example.com").First(&referrer).Error)

	require.Equal(t, http.StatusCreated, postJSON(router, "/api/auth/signup", SignupRequest{
		Email:        "referred@example.com",
		Password:     "secret123",
		ReferralCode: referrer.ReferralCode,
	}).Code)

	var referred models.User
	require.NoError(t, db.Where("email = ?", "referred@example.com").First(&referred).Error)
	require.NotNil(t, referred.ReferredBy)
	assert.Equal(t, referrer.ID, *referred.ReferredBy)

	// An unknown code does not block signup, it just loses attribution
	require.Equal(t, http.StatusCreated, postJSON(router, "/api/auth/signup", SignupRequest{
		Email:        "unattributed@example.com",
		Password:     "secret123",
		ReferralCode: "NOSUCHCODE",
	}).Code)

	var unattributed models.User
	require.NoError(t, db.Where("email = ?", "unattributed@example.com").First(&unattributed).Error)
	assert.Nil(t, unattributed.ReferredBy)
}

func TestLogin(t *testing.T) {
	router, db := setupAuthRouter(t)

	require.Equal(t, http.StatusCreated, postJSON(router, "/api/auth/signup", SignupRequest{
		Email:    "login@example.com",
		Password: "secret123",
	}).Code)

	w := postJSON(router, "/api/auth/login", LoginRequest{Email: "login@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(router, "/api/auth/login", LoginRequest{Email: "login@example.com", Password: "wrongpass1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(router, "/api/auth/login", LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Disabled accounts cannot log in
	require.NoError(t, db.Model(&models.User{}).
		Where("email = ?", "login@example.com").Update("is_active", false).Error)
	w = postJSON(router, "/api/auth/login", LoginRequest{Email: "login@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRefreshTokenPicksUpRoleChanges(t *testing.T) {
	router, db := setupAuthRouter(t)

	w := postJSON(router, "/api/auth/signup", SignupRequest{
		Email:    "refresh@example.com",
		Password: "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Tokens utils.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	// Promote the user after the tokens were issued
	require.NoError(t, db.Model(&models.User{}).
		Where("email = ?", "refresh@example.com").Update("is_admin", true).Error)

	w = postJSON(router, "/api/auth/refresh", RefreshRequest{RefreshToken: response.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	claims, err := utils.ValidateToken(response.Tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)

	w = postJSON(router, "/api/auth/refresh", RefreshRequest{RefreshToken: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
