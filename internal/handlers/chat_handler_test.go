package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/config"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/services/ai"
	"github.com/refoapp/backend/internal/services/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupChatTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.Chat{}, &models.ChatMessage{})
	require.NoError(t, err)

	return db
}

func createChatTestUser(t *testing.T, db *gorm.DB) *models.User {
	user := models.User{
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "hashed",
		ReferralCode: uuid.New().String()[:8],
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// newAssistantServer fakes the model API with a fixed streamed answer
func newAssistantServer(t *testing.T, fragments []string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, fragment := range fragments {
			fmt.Fprintf(w, `data: {"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`+"\n\n", fragment)
		}
	}))
}

func setupChatRouter(t *testing.T, db *gorm.DB, assistantURL string, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)

	gemini := ai.NewGeminiClient(config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash-exp",
		BaseURL: assistantURL,
	})
	chatService := chat.NewChatService(db, gemini)
	handler := NewChatHandler(chatService)

	router := gin.New()
	authed := router.Group("/api", func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	authed.GET("/chat", handler.GetChat)
	authed.POST("/chat/messages", handler.SendMessage)
	authed.POST("/admin/chats/:id/takeover", handler.TakeoverChat)
	authed.POST("/admin/chats/:id/release", handler.ReleaseChat)
	authed.POST("/admin/chats/:id/messages", handler.AdminReply)

	return router
}

func sendChatMessage(router *gin.Engine, message string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(SendMessageBody{Message: message})
	req := httptest.NewRequest(http.MethodPost, "/api/chat/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSendMessageStreamsAssistantReply(t *testing.T) {
	db := setupChatTestDB(t)
	user := createChatTestUser(t, db)

	assistant := newAssistantServer(t, []string{"Payouts need ", "a minimum balance."})
	defer assistant.Close()

	router := setupChatRouter(t, db, assistant.URL, user.ID)

	w := sendChatMessage(router, "How do payouts work?")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	// Each fragment arrives as its own delta frame, then the terminator
	var streamed []string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			streamed = append(streamed, data)
			continue
		}
		var frame deltaFrame
		require.NoError(t, json.Unmarshal([]byte(data), &frame))
		require.Len(t, frame.Choices, 1)
		streamed = append(streamed, frame.Choices[0].Delta.Content)
	}
	assert.Equal(t, []string{"Payouts need ", "a minimum balance.", "[DONE]"}, streamed)

	// Both sides of the exchange are stored
	var messages []models.ChatMessage
	require.NoError(t, db.Order("timestamp").Find(&messages).Error)
	require.Len(t, messages, 2)
	assert.Equal(t, models.ChatSenderUser, messages[0].Sender)
	assert.Equal(t, "How do payouts work?", messages[0].Message)
	assert.Equal(t, models.ChatSenderAssistant, messages[1].Sender)
	assert.Equal(t, "Payouts need a minimum balance.", messages[1].Message)
}

func TestSendMessageWhileAdminHoldsChat(t *testing.T) {
	db := setupChatTestDB(t)
	user := createChatTestUser(t, db)

	assistant := newAssistantServer(t, []string{"should not be called"})
	defer assistant.Close()

	router := setupChatRouter(t, db, assistant.URL, user.ID)

	// Create the chat, then hand it to an admin
	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var userChat models.Chat
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&userChat).Error)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/chats/"+userChat.ID.String()+"/takeover", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = sendChatMessage(router, "Is anyone there?")
	require.Equal(t, http.StatusOK, w.Code)

	// No SSE stream, just an acknowledgment
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, w.Body.String(), "an agent will reply")

	var count int64
	require.NoError(t, db.Model(&models.ChatMessage{}).
		Where("sender = ?", models.ChatSenderAssistant).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAdminReplyRequiresTakeover(t *testing.T) {
	db := setupChatTestDB(t)
	user := createChatTestUser(t, db)

	assistant := newAssistantServer(t, nil)
	defer assistant.Close()

	router := setupChatRouter(t, db, assistant.URL, user.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var userChat models.Chat
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&userChat).Error)

	reply := func() *httptest.ResponseRecorder {
		body, _ := json.Marshal(SendMessageBody{Message: "Let me help with that"})
		req := httptest.NewRequest(http.MethodPost, "/api/admin/chats/"+userChat.ID.String()+"/messages", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// The assistant still holds the chat
	assert.Equal(t, http.StatusConflict, reply().Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/chats/"+userChat.ID.String()+"/takeover", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusCreated, reply().Code)

	// Releasing hands it back to the assistant
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/chats/"+userChat.ID.String()+"/release", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusConflict, reply().Code)
}
