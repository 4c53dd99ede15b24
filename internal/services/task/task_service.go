package task

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/database"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/queue"
	"github.com/refoapp/backend/internal/services/wallet"
	"github.com/refoapp/backend/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateTask is returned when the user already has a task for
	// the offer.
	ErrDuplicateTask = errors.New("task already started for this offer")

	// ErrOfferUnavailable is returned when the offer is inactive or not
	// public.
	ErrOfferUnavailable = errors.New("offer not available")

	// ErrInvalidTransition is returned for transitions the task state
	// machine does not permit.
	ErrInvalidTransition = errors.New("invalid task status transition")

	// ErrNotTaskOwner is returned when a user operates on someone else's
	// task.
	ErrNotTaskOwner = errors.New("task does not belong to user")
)

// notificationPayload matches the task notification job payload
type notificationPayload struct {
	UserEmail       string  `json:"user_email"`
	TaskStatus      string  `json:"task_status"`
	OfferTitle      string  `json:"offer_title"`
	Reward          float64 `json:"reward"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
}

// commissionPayload matches the referral commission job payload
type commissionPayload struct {
	ConversionID uuid.UUID `json:"conversion_id"`
}

// TaskService manages the task verification workflow. Verification
// credits the offer reward to the user's wallet in the same database
// transaction as the status change.
type TaskService struct {
	db         *gorm.DB
	walletSvc  *wallet.WalletService
	jobQueue   queue.Enqueuer
	commission float64
}

// NewTaskService creates a new task service
func NewTaskService(db *gorm.DB, walletSvc *wallet.WalletService, jobQueue queue.Enqueuer, commission float64) *TaskService {
	return &TaskService{
		db:         db,
		walletSvc:  walletSvc,
		jobQueue:   jobQueue,
		commission: commission,
	}
}

// Start creates a pending task for a user against an active public offer
func (s *TaskService) Start(userID, offerID uuid.UUID) (*models.Task, error) {
	var offer models.Offer
	if err := s.db.First(&offer, "id = ?", offerID).Error; err != nil {
		return nil, fmt.Errorf("error finding offer: %w", err)
	}

	if offer.Status != models.OfferStatusActive || !offer.IsPublic {
		return nil, ErrOfferUnavailable
	}

	var existing models.Task
	result := s.db.Where("user_id = ? AND offer_id = ?", userID, offerID).First(&existing)
	if result.Error == nil {
		return nil, ErrDuplicateTask
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking existing task: %w", result.Error)
	}

	task := models.Task{
		UserID:  userID,
		OfferID: offerID,
		Status:  models.TaskStatusPending,
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	return &task, nil
}

// SubmitProof attaches proof to a user's own pending task and moves it
// to submitted.
func (s *TaskService) SubmitProof(userID, taskID uuid.UUID, proofURL string) (*models.Task, error) {
	if proofURL == "" {
		return nil, errors.New("proof URL is required")
	}

	var task models.Task
	if err := s.db.First(&task, "id = ?", taskID).Error; err != nil {
		return nil, fmt.Errorf("error finding task: %w", err)
	}

	if task.UserID != userID {
		return nil, ErrNotTaskOwner
	}

	if !task.Status.CanTransitionTo(models.TaskStatusSubmitted) {
		return nil, ErrInvalidTransition
	}

	task.Status = models.TaskStatusSubmitted
	task.ProofURL = proofURL

	if err := s.db.Save(&task).Error; err != nil {
		return nil, fmt.Errorf("error updating task: %w", err)
	}

	return &task, nil
}

// Verify transitions a task to verified and credits the offer reward to
// the user's wallet, all in one transaction. After commit, notification
// email and referral commission jobs are enqueued.
func (s *TaskService) Verify(adminID, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	var offer models.Offer
	var user models.User
	var conversionID *uuid.UUID

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := database.LockForUpdate(tx).First(&task, "id = ?", taskID).Error; err != nil {
			return fmt.Errorf("error finding task: %w", err)
		}

		if !task.Status.CanTransitionTo(models.TaskStatusVerified) {
			return ErrInvalidTransition
		}

		if err := tx.First(&offer, "id = ?", task.OfferID).Error; err != nil {
			return fmt.Errorf("error finding offer: %w", err)
		}
		if err := tx.First(&user, "id = ?", task.UserID).Error; err != nil {
			return fmt.Errorf("error finding user: %w", err)
		}

		now := time.Now()
		task.Status = models.TaskStatusVerified
		task.VerifiedAt = &now
		task.VerifiedBy = &adminID

		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("error updating task: %w", err)
		}

		reference := utils.GenerateTransactionReference("REWARD")
		_, err := s.walletSvc.CreditWithTx(tx, task.UserID, offer.Reward, reference,
			fmt.Sprintf("Reward for %s", offer.Title),
			map[string]interface{}{
				"task_id":     task.ID.String(),
				"offer_id":    offer.ID.String(),
				"verified_by": adminID.String(),
			})
		if err != nil {
			return err
		}

		// First verified task of a referred user produces a pending
		// conversion. The unique index on referred_user_id keeps this
		// idempotent.
		if user.ReferredBy != nil {
			id, err := s.recordConversion(tx, &user)
			if err != nil {
				return err
			}
			conversionID = id
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueNotification(&user, &task, &offer)
	if conversionID != nil {
		if _, err := s.jobQueue.Enqueue(queue.QueueReferralCommission, commissionPayload{ConversionID: *conversionID}); err != nil {
			log.Printf("Failed to enqueue referral commission job: %v", err)
		}
	}

	return &task, nil
}

// Reject transitions a task to rejected with a reason and enqueues the
// rejection email.
func (s *TaskService) Reject(adminID, taskID uuid.UUID, reason string) (*models.Task, error) {
	if reason == "" {
		return nil, errors.New("rejection reason is required")
	}

	var task models.Task
	var offer models.Offer
	var user models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := database.LockForUpdate(tx).First(&task, "id = ?", taskID).Error; err != nil {
			return fmt.Errorf("error finding task: %w", err)
		}

		if !task.Status.CanTransitionTo(models.TaskStatusRejected) {
			return ErrInvalidTransition
		}

		if err := tx.First(&offer, "id = ?", task.OfferID).Error; err != nil {
			return fmt.Errorf("error finding offer: %w", err)
		}
		if err := tx.First(&user, "id = ?", task.UserID).Error; err != nil {
			return fmt.Errorf("error finding user: %w", err)
		}

		task.Status = models.TaskStatusRejected
		task.RejectionReason = reason

		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("error updating task: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueNotification(&user, &task, &offer)

	return &task, nil
}

// recordConversion creates the user's referral conversion if it does not
// exist yet. Returns nil when the user was already converted.
func (s *TaskService) recordConversion(tx *gorm.DB, user *models.User) (*uuid.UUID, error) {
	var existing models.ReferralConversion
	result := tx.Where("referred_user_id = ?", user.ID).First(&existing)
	if result.Error == nil {
		return nil, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking conversion: %w", result.Error)
	}

	var link models.AffiliateLink
	if err := tx.Where("user_id = ?", *user.ReferredBy).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Referrer never generated a link; nothing to credit.
			return nil, nil
		}
		return nil, fmt.Errorf("error finding affiliate link: %w", err)
	}

	conversion := models.ReferralConversion{
		AffiliateLinkID: link.ID,
		ReferrerID:      *user.ReferredBy,
		ReferredUserID:  user.ID,
		RewardAmount:    s.commission,
		Status:          models.ConversionStatusPending,
	}

	if err := tx.Create(&conversion).Error; err != nil {
		return nil, fmt.Errorf("error creating conversion: %w", err)
	}

	if err := tx.Model(&link).Update("conversions", gorm.Expr("conversions + 1")).Error; err != nil {
		return nil, fmt.Errorf("error updating affiliate link: %w", err)
	}

	return &conversion.ID, nil
}

func (s *TaskService) enqueueNotification(user *models.User, task *models.Task, offer *models.Offer) {
	payload := notificationPayload{
		UserEmail:       user.Email,
		TaskStatus:      string(task.Status),
		OfferTitle:      offer.Title,
		Reward:          offer.Reward,
		RejectionReason: task.RejectionReason,
	}
	if _, err := s.jobQueue.Enqueue(queue.QueueTaskNotification, payload); err != nil {
		log.Printf("Failed to enqueue task notification job: %v", err)
	}
}

// GetTask fetches a single task with its offer preloaded
func (s *TaskService) GetTask(taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := s.db.Preload("Offer").First(&task, "id = ?", taskID).Error; err != nil {
		return nil, fmt.Errorf("error finding task: %w", err)
	}
	return &task, nil
}

// ListUserTasks lists a user's tasks with offers preloaded, newest first
func (s *TaskService) ListUserTasks(userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.Preload("Offer").Where("user_id = ?", userID).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return tasks, nil
}

// ListTasks lists all tasks for the admin review queue, optionally
// filtered by status, newest first.
func (s *TaskService) ListTasks(status models.TaskStatus, page, pageSize int) ([]models.Task, int64, error) {
	query := s.db.Model(&models.Task{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting tasks: %w", err)
	}

	var tasks []models.Task
	offset := (page - 1) * pageSize
	if err := query.Preload("Offer").Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("error listing tasks: %w", err)
	}

	return tasks, total, nil
}
