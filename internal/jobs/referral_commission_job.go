package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/queue"
	"github.com/refoapp/backend/internal/services/referral"
)

// ReferralCommissionPayload is the payload for crediting a referral
// commission.
type ReferralCommissionPayload struct {
	ConversionID uuid.UUID `json:"conversion_id"`
}

// ReferralCommissionJob credits referrers when a referred user's first
// task is verified. Crediting is idempotent in the referral service, so
// retries are safe.
type ReferralCommissionJob struct {
	referralSvc *referral.ReferralService
}

// NewReferralCommissionJob creates a new referral commission job handler
func NewReferralCommissionJob(referralSvc *referral.ReferralService) *ReferralCommissionJob {
	return &ReferralCommissionJob{referralSvc: referralSvc}
}

// Process credits the commission for a conversion
func (j *ReferralCommissionJob) Process(ctx context.Context, job queue.Job) error {
	var payload ReferralCommissionPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal referral commission payload: %w", err)
	}

	if err := j.referralSvc.CreditConversion(payload.ConversionID); err != nil {
		return fmt.Errorf("failed to credit conversion %s: %w", payload.ConversionID, err)
	}

	return nil
}
