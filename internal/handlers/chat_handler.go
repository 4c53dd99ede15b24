package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/middleware"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/services/ai"
	"github.com/refoapp/backend/internal/services/chat"
)

// ChatHandler handles the support chat, streaming assistant replies to
// users and letting admins take conversations over.
type ChatHandler struct {
	chatService *chat.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *chat.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// GetChat returns the user's chat and recent history
func (h *ChatHandler) GetChat(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	userChat, err := h.chatService.GetOrCreateChat(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get chat"})
		return
	}

	messages, err := h.chatService.History(userChat.ID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chat":     userChat,
		"messages": messages,
	})
}

// SendMessageBody represents the request body for sending a chat message
type SendMessageBody struct {
	Message string `json:"message" binding:"required"`
}

// deltaFrame is the streamed chunk format the frontend consumes
type deltaFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// SendMessage stores the user's message and, while the assistant is the
// active responder, streams its reply as server-sent events. When an
// admin holds the chat the message is stored and no stream is sent.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body SendMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userChat, err := h.chatService.GetOrCreateChat(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get chat"})
		return
	}

	if _, err := h.chatService.AppendMessage(userChat, models.ChatSenderUser, body.Message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	if userChat.ActiveResponder != models.ResponderAI {
		c.JSON(http.StatusOK, gin.H{"message": "message delivered, an agent will reply"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	_, err = h.chatService.StreamAssistantReply(c.Request.Context(), userChat, func(text string) error {
		return writeDelta(c, text)
	})
	if err != nil && !errors.Is(err, ai.ErrNotConfigured) {
		writeDelta(c, "Sorry, I ran into a problem answering that. Please try again.")
	}
	if errors.Is(err, ai.ErrNotConfigured) {
		writeDelta(c, "The assistant is currently unavailable. An agent will get back to you.")
	}

	fmt.Fprintf(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

func writeDelta(c *gin.Context, text string) error {
	frame := deltaFrame{}
	frame.Choices = make([]struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	}, 1)
	frame.Choices[0].Delta.Content = text

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// ListChats lists all conversations for the admin inbox
func (h *ChatHandler) ListChats(c *gin.Context) {
	page, pageSize := pagination(c)

	chats, total, err := h.chatService.ListChats(page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chats":     chats,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetChatMessages returns a chat's history for an admin
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat ID"})
		return
	}

	messages, err := h.chatService.History(chatID, 200)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// TakeoverChat switches a chat to admin responses
func (h *ChatHandler) TakeoverChat(c *gin.Context) {
	h.setResponder(c, models.ResponderAdmin)
}

// ReleaseChat hands a chat back to the assistant
func (h *ChatHandler) ReleaseChat(c *gin.Context) {
	h.setResponder(c, models.ResponderAI)
}

func (h *ChatHandler) setResponder(c *gin.Context, responder models.Responder) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat ID"})
		return
	}

	updated, err := h.chatService.SetResponder(chatID, responder)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// AdminReply stores an admin's reply in a chat they have taken over
func (h *ChatHandler) AdminReply(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat ID"})
		return
	}

	var body SendMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adminChat, err := h.chatService.GetChat(chatID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}

	if adminChat.ActiveResponder != models.ResponderAdmin {
		c.JSON(http.StatusConflict, gin.H{"error": "take over the chat before replying"})
		return
	}

	message, err := h.chatService.AppendMessage(adminChat, models.ChatSenderAdmin, body.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	c.JSON(http.StatusCreated, message)
}
