package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAdminTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.Offer{}, &models.Task{},
		&models.PayoutRequest{}, &models.Transaction{})
	require.NoError(t, err)

	return db
}

func setupAdminRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(db)

	router := gin.New()
	router.GET("/api/admin/users", handler.ListUsers)
	return router
}

func createAdminTestUser(t *testing.T, db *gorm.DB, username, email string) *models.User {
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "hashed",
		ReferralCode: uuid.New().String()[:8],
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func listUsers(router *gin.Engine, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users"+query, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type listUsersResponse struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
}

func TestListUsersSearchIsCaseInsensitive(t *testing.T) {
	db := setupAdminTestDB(t)
	router := setupAdminRouter(db)

	createAdminTestUser(t, db, "Priya", "Priya.Sharma@Example.com")
	createAdminTestUser(t, db, "rahul", "rahul@example.com")

	w := listUsers(router, "?search=PRIYA")
	require.Equal(t, http.StatusOK, w.Code)

	var resp listUsersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Total)
	assert.Equal(t, "Priya", resp.Users[0].Username)

	// Matches the email column as well
	w = listUsers(router, "?search=sharma")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
}

func TestListUsersWithoutSearchReturnsAll(t *testing.T) {
	db := setupAdminTestDB(t)
	router := setupAdminRouter(db)

	createAdminTestUser(t, db, "one", "one@example.com")
	createAdminTestUser(t, db, "two", "two@example.com")

	w := listUsers(router, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp listUsersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Total)
	assert.Len(t, resp.Users, 2)
}
