package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/services/ai"
	"gorm.io/gorm"
)

// historyWindow caps how many past messages are sent to the model
const historyWindow = 30

// ErrAdminActive is returned when the assistant is asked to reply while
// an admin holds the conversation.
var ErrAdminActive = errors.New("admin is handling this chat")

// ChatService manages support conversations. Each user has one chat,
// answered by the assistant until an admin takes over.
type ChatService struct {
	db     *gorm.DB
	gemini *ai.GeminiClient
}

// NewChatService creates a new chat service
func NewChatService(db *gorm.DB, gemini *ai.GeminiClient) *ChatService {
	return &ChatService{db: db, gemini: gemini}
}

// GetOrCreateChat returns the user's chat, creating it on first contact
func (s *ChatService) GetOrCreateChat(userID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	result := s.db.Where("user_id = ?", userID).First(&chat)
	if result.Error == nil {
		return &chat, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding chat: %w", result.Error)
	}

	chat = models.Chat{
		UserID:          userID,
		ActiveResponder: models.ResponderAI,
	}
	if err := s.db.Create(&chat).Error; err != nil {
		return nil, fmt.Errorf("error creating chat: %w", err)
	}

	return &chat, nil
}

// AppendMessage stores a message and bumps the chat's last activity
func (s *ChatService) AppendMessage(chat *models.Chat, sender models.ChatSender, message string) (*models.ChatMessage, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.New("message is empty")
	}

	chatMessage := models.ChatMessage{
		ChatID:    chat.ID,
		UserID:    chat.UserID,
		Sender:    sender,
		Message:   message,
		Timestamp: time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chatMessage).Error; err != nil {
			return fmt.Errorf("error creating message: %w", err)
		}
		if err := tx.Model(chat).Update("last_updated", time.Now()).Error; err != nil {
			return fmt.Errorf("error updating chat: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &chatMessage, nil
}

// StreamAssistantReply streams the assistant's answer through onDelta
// and stores the full reply when the stream finishes. Admin and
// assistant messages both appear to the user as replies, so admin turns
// are included in the model history.
func (s *ChatService) StreamAssistantReply(ctx context.Context, chat *models.Chat, onDelta func(text string) error) (*models.ChatMessage, error) {
	if chat.ActiveResponder != models.ResponderAI {
		return nil, ErrAdminActive
	}

	messages, err := s.History(chat.ID, historyWindow)
	if err != nil {
		return nil, err
	}

	history := make([]ai.Message, 0, len(messages))
	for _, m := range messages {
		role := "model"
		if m.Sender == models.ChatSenderUser {
			role = "user"
		}
		history = append(history, ai.Message{Role: role, Text: m.Message})
	}

	var reply strings.Builder
	err = s.gemini.StreamChat(ctx, history, func(text string) error {
		reply.WriteString(text)
		return onDelta(text)
	})
	if err != nil {
		return nil, err
	}

	if reply.Len() == 0 {
		return nil, nil
	}

	return s.AppendMessage(chat, models.ChatSenderAssistant, reply.String())
}

// History returns the last limit messages of a chat in chronological
// order.
func (s *ChatService) History(chatID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.Where("chat_id = ?", chatID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}

	// Reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// SetResponder flips who answers the chat. Admins call this to take
// over a conversation and to hand it back.
func (s *ChatService) SetResponder(chatID uuid.UUID, responder models.Responder) (*models.Chat, error) {
	var chat models.Chat
	if err := s.db.First(&chat, "id = ?", chatID).Error; err != nil {
		return nil, fmt.Errorf("error finding chat: %w", err)
	}

	chat.ActiveResponder = responder
	if err := s.db.Save(&chat).Error; err != nil {
		return nil, fmt.Errorf("error updating chat: %w", err)
	}

	return &chat, nil
}

// GetChat fetches a chat by ID
func (s *ChatService) GetChat(chatID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := s.db.First(&chat, "id = ?", chatID).Error; err != nil {
		return nil, fmt.Errorf("error finding chat: %w", err)
	}
	return &chat, nil
}

// ListChats lists all conversations for the admin inbox, most recently
// active first.
func (s *ChatService) ListChats(page, pageSize int) ([]models.Chat, int64, error) {
	var total int64
	if err := s.db.Model(&models.Chat{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting chats: %w", err)
	}

	var chats []models.Chat
	offset := (page - 1) * pageSize
	err := s.db.Preload("User").
		Order("last_updated DESC").
		Offset(offset).Limit(pageSize).
		Find(&chats).Error
	if err != nil {
		return nil, 0, fmt.Errorf("error listing chats: %w", err)
	}

	return chats, total, nil
}
