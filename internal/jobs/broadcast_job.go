package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/queue"
	"github.com/refoapp/backend/internal/services/notification"
)

// BroadcastPayload is the payload for sending a notification to all
// users.
type BroadcastPayload struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// BroadcastJob fans an admin announcement out to every user's inbox.
// Runs in the background so the admin request returns immediately.
type BroadcastJob struct {
	notificationSvc *notification.NotificationService
}

// NewBroadcastJob creates a new broadcast job handler
func NewBroadcastJob(notificationSvc *notification.NotificationService) *BroadcastJob {
	return &BroadcastJob{notificationSvc: notificationSvc}
}

// Process creates the notification for every user
func (j *BroadcastJob) Process(ctx context.Context, job queue.Job) error {
	var payload BroadcastPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal broadcast payload: %w", err)
	}

	count, err := j.notificationSvc.Broadcast(models.NotificationType(payload.Type), payload.Title, payload.Message)
	if err != nil {
		return fmt.Errorf("failed to broadcast notification: %w", err)
	}

	log.Printf("Broadcast %q delivered to %d users", payload.Title, count)
	return nil
}
