package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/middleware"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/queue"
	"github.com/refoapp/backend/internal/services/notification"
)

// NotificationHandler handles in-app notifications
type NotificationHandler struct {
	notificationService *notification.NotificationService
	jobQueue            queue.Enqueuer
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *notification.NotificationService, jobQueue queue.Enqueuer) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		jobQueue:            jobQueue,
	}
}

// List returns the authenticated user's notifications with the unread
// count.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, pageSize := pagination(c)

	notifications, unread, err := h.notificationService.List(userID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread":        unread,
		"page":          page,
		"page_size":     pageSize,
	})
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification ID"})
		return
	}

	if err := h.notificationService.MarkRead(userID, notificationID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification marked read"})
}

// MarkAllRead marks all of the user's notifications as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.notificationService.MarkAllRead(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked read"})
}

// SendBody represents the request body for admin-sent notifications
type SendBody struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Type    string `json:"type" binding:"omitempty,oneof=info success error"`
}

// Send delivers a notification to one user, or broadcasts to everyone
// when no user is given. Broadcasts run in the background.
func (h *NotificationHandler) Send(c *gin.Context) {
	var body SendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notificationType := models.NotificationTypeInfo
	if body.Type != "" {
		notificationType = models.NotificationType(body.Type)
	}

	if body.UserID == "" {
		jobID, err := h.jobQueue.Enqueue(queue.QueueBroadcast, map[string]string{
			"type":    string(notificationType),
			"title":   body.Title,
			"message": body.Message,
		})
		if err != nil {
			log.Printf("Failed to enqueue broadcast: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue broadcast"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"message": "broadcast queued", "job_id": jobID})
		return
	}

	userID, err := uuid.Parse(body.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	n, err := h.notificationService.Notify(userID, notificationType, body.Title, body.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send notification"})
		return
	}

	c.JSON(http.StatusCreated, n)
}
