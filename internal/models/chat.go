package models

import (
	"time"

	"github.com/google/uuid"
)

// Responder identifies who answers a user's chat
type Responder string

const (
	ResponderAI    Responder = "ai"
	ResponderAdmin Responder = "admin"
)

// ChatSender identifies the author of a chat message
type ChatSender string

const (
	ChatSenderUser      ChatSender = "user"
	ChatSenderAssistant ChatSender = "assistant"
	ChatSenderAdmin     ChatSender = "admin"
)

// Chat is a user's assistant conversation. One chat per user; an admin
// can take over by flipping ActiveResponder.
type Chat struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User            User      `gorm:"foreignKey:UserID" json:"-"`
	ActiveResponder Responder `gorm:"type:varchar(10);not null;default:'ai'" json:"active_responder"`
	LastUpdated     time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"last_updated"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// ChatMessage is a single message in a chat
type ChatMessage struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ChatID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"chat_id"`
	Chat      Chat       `gorm:"foreignKey:ChatID" json:"-"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Sender    ChatSender `gorm:"type:varchar(10);not null" json:"sender"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	Timestamp time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
}
