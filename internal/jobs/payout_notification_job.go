package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/refoapp/backend/internal/queue"
	"github.com/refoapp/backend/internal/services/email"
)

// PayoutNotificationPayload is the payload for payout outcome emails
type PayoutNotificationPayload struct {
	UserEmail string  `json:"user_email"`
	Amount    float64 `json:"amount"`
	Approved  bool    `json:"approved"`
	Reason    string  `json:"reason,omitempty"`
}

// PayoutNotificationJob emails users when their payout request is
// processed.
type PayoutNotificationJob struct {
	emailSvc *email.EmailService
}

// NewPayoutNotificationJob creates a new payout notification job handler
func NewPayoutNotificationJob(emailSvc *email.EmailService) *PayoutNotificationJob {
	return &PayoutNotificationJob{emailSvc: emailSvc}
}

// Process sends the payout outcome email
func (j *PayoutNotificationJob) Process(ctx context.Context, job queue.Job) error {
	var payload PayoutNotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payout notification payload: %w", err)
	}

	if err := j.emailSvc.SendPayoutProcessedEmail(payload.UserEmail, payload.Amount, payload.Approved, payload.Reason); err != nil {
		return fmt.Errorf("failed to send payout email: %w", err)
	}

	return nil
}
