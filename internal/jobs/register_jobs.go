package jobs

import (
	"fmt"

	"github.com/go-co-op/gocron"
	"github.com/refoapp/backend/internal/queue"
	"github.com/refoapp/backend/internal/services/email"
	"github.com/refoapp/backend/internal/services/notification"
	"github.com/refoapp/backend/internal/services/referral"
	"github.com/refoapp/backend/internal/services/wallet"
	"gorm.io/gorm"
)

// RegisterAllJobHandlers wires every background job to its queue
func RegisterAllJobHandlers(
	processor *queue.JobProcessor,
	db *gorm.DB,
	emailSvc *email.EmailService,
	referralSvc *referral.ReferralService,
	notificationSvc *notification.NotificationService,
) {
	taskJob := NewTaskNotificationJob(db, emailSvc)
	processor.RegisterHandler(queue.QueueTaskNotification, taskJob.Process)

	commissionJob := NewReferralCommissionJob(referralSvc)
	processor.RegisterHandler(queue.QueueReferralCommission, commissionJob.Process)

	payoutJob := NewPayoutNotificationJob(emailSvc)
	processor.RegisterHandler(queue.QueuePayoutNotification, payoutJob.Process)

	broadcastJob := NewBroadcastJob(notificationSvc)
	processor.RegisterHandler(queue.QueueBroadcast, broadcastJob.Process)
}

// ScheduleRecurringJobs registers cron-style jobs on the scheduler
func ScheduleRecurringJobs(
	scheduler *gocron.Scheduler,
	db *gorm.DB,
	walletSvc *wallet.WalletService,
) error {
	reconcileJob := NewReconcileJob(db, walletSvc)
	if _, err := scheduler.Every(1).Day().At("02:30").Do(reconcileJob.Run); err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}

	return nil
}
