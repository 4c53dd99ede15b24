package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationService manages in-app notifications
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify creates a notification for a single user
func (s *NotificationService) Notify(userID uuid.UUID, notificationType models.NotificationType, title, message string) (*models.Notification, error) {
	notification := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    notificationType,
	}

	if err := s.db.Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("error creating notification: %w", err)
	}

	return &notification, nil
}

// Broadcast creates the same notification for every user. Returns the
// number of users reached.
func (s *NotificationService) Broadcast(notificationType models.NotificationType, title, message string) (int64, error) {
	var userIDs []uuid.UUID
	if err := s.db.Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
		return 0, fmt.Errorf("error listing users: %w", err)
	}

	if len(userIDs) == 0 {
		return 0, nil
	}

	notifications := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		notifications = append(notifications, models.Notification{
			UserID:  id,
			Title:   title,
			Message: message,
			Type:    notificationType,
		})
	}

	if err := s.db.CreateInBatches(notifications, 500).Error; err != nil {
		return 0, fmt.Errorf("error creating notifications: %w", err)
	}

	return int64(len(userIDs)), nil
}

// List returns a user's notifications, newest first, with the unread
// count.
func (s *NotificationService) List(userID uuid.UUID, page, pageSize int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	offset := (page - 1) * pageSize
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("error listing notifications: %w", err)
	}

	var unread int64
	err = s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&unread).Error
	if err != nil {
		return nil, 0, fmt.Errorf("error counting unread notifications: %w", err)
	}

	return notifications, unread, nil
}

// MarkRead marks a user's notification as read
func (s *NotificationService) MarkRead(userID, notificationID uuid.UUID) error {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", now)
	if result.Error != nil {
		return fmt.Errorf("error marking notification read: %w", result.Error)
	}
	return nil
}

// MarkAllRead marks all of a user's notifications as read
func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	now := time.Now()
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", now).Error
	if err != nil {
		return fmt.Errorf("error marking notifications read: %w", err)
	}
	return nil
}
