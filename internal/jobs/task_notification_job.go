package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/queue"
	"github.com/refoapp/backend/internal/services/email"
	"gorm.io/gorm"
)

// TaskNotificationPayload is the payload for task review outcome emails
type TaskNotificationPayload struct {
	UserEmail       string  `json:"user_email"`
	TaskStatus      string  `json:"task_status"`
	OfferTitle      string  `json:"offer_title"`
	Reward          float64 `json:"reward"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
}

// TaskNotificationJob emails users when their task review completes
type TaskNotificationJob struct {
	db       *gorm.DB
	emailSvc *email.EmailService
}

// NewTaskNotificationJob creates a new task notification job handler
func NewTaskNotificationJob(db *gorm.DB, emailSvc *email.EmailService) *TaskNotificationJob {
	return &TaskNotificationJob{db: db, emailSvc: emailSvc}
}

// Process sends the outcome email for a reviewed task
func (j *TaskNotificationJob) Process(ctx context.Context, job queue.Job) error {
	var payload TaskNotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task notification payload: %w", err)
	}

	switch models.TaskStatus(payload.TaskStatus) {
	case models.TaskStatusVerified:
		if err := j.emailSvc.SendTaskVerifiedEmail(payload.UserEmail, payload.OfferTitle, payload.Reward); err != nil {
			return fmt.Errorf("failed to send verification email: %w", err)
		}
	case models.TaskStatusRejected:
		if err := j.emailSvc.SendTaskRejectedEmail(payload.UserEmail, payload.OfferTitle, payload.RejectionReason); err != nil {
			return fmt.Errorf("failed to send rejection email: %w", err)
		}
	default:
		log.Printf("Ignoring task notification for status %s", payload.TaskStatus)
	}

	return nil
}
