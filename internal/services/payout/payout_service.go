package payout

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
	// ErrBelowMinimum is returned when the requested amount is under the
	// configured payout threshold.
	ErrBelowMinimum = errors.New("amount below minimum payout")

	// ErrOverCommitted is returned when the amount plus already-pending
	// payout requests exceeds the wallet balance.
	ErrOverCommitted = errors.New("amount exceeds available balance")

	// ErrInvalidTransition is returned when a request is already in a
	// terminal state. Terminal states never transition again.
	ErrInvalidTransition = errors.New("payout request already processed")

	// ErrMissingDetails is returned when the payout method's details are
	// incomplete.
	ErrMissingDetails = errors.New("missing payout details for method")
)

// PayoutService manages the payout request lifecycle. Approval is a
// single database transaction covering the balance check, the ledger
// entry, the wallet debit, and the status change.
type PayoutService struct {
	db        *gorm.DB
	walletSvc *wallet.WalletService
	jobQueue  queue.Enqueuer
	minAmount float64
}

// NewPayoutService creates a new payout service
func NewPayoutService(db *gorm.DB, walletSvc *wallet.WalletService, jobQueue queue.Enqueuer, minAmount float64) *PayoutService {
	return &PayoutService{
		db:        db,
		walletSvc: walletSvc,
		jobQueue:  jobQueue,
		minAmount: minAmount,
	}
}

// notificationPayload matches the payout notification job payload
type notificationPayload struct {
	UserEmail string  `json:"user_email"`
	Amount    float64 `json:"amount"`
	Approved  bool    `json:"approved"`
	Reason    string  `json:"reason,omitempty"`
}

func (s *PayoutService) enqueueNotification(request *models.PayoutRequest, approved bool) {
	var user models.User
	if err := s.db.First(&user, "id = ?", request.UserID).Error; err != nil {
		log.Printf("Failed to load user for payout notification: %v", err)
		return
	}

	payload := notificationPayload{
		UserEmail: user.Email,
		Amount:    request.Amount,
		Approved:  approved,
		Reason:    request.RejectionReason,
	}
	if _, err := s.jobQueue.Enqueue(queue.QueuePayoutNotification, payload); err != nil {
		log.Printf("Failed to enqueue payout notification job: %v", err)
	}
}

// CreateRequestInput carries the user-supplied fields of a payout request
type CreateRequestInput struct {
	Amount      float64
	Method      models.PayoutMethod
	UPIAddress  string
	BankAccount string
	BankIFSC    string
}

// CreateRequest creates a pending payout request for a user. The amount
// must clear the minimum and, together with the balance already reserved
// by the user's other pending requests, must not exceed the wallet
// balance. The reserve is tracked on the wallet's pending balance, which
// is raised here and released when the request reaches a terminal state.
func (s *PayoutService) CreateRequest(userID uuid.UUID, input CreateRequestInput) (*models.PayoutRequest, error) {
	if input.Amount < s.minAmount {
		return nil, ErrBelowMinimum
	}

	switch input.Method {
	case models.PayoutMethodUPI:
		if input.UPIAddress == "" {
			return nil, ErrMissingDetails
		}
	case models.PayoutMethodBank:
		if input.BankAccount == "" || input.BankIFSC == "" {
			return nil, ErrMissingDetails
		}
	default:
		return nil, fmt.Errorf("unknown payout method %q", input.Method)
	}

	var request models.PayoutRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var w models.Wallet
		if err := database.LockForUpdate(tx).Where("user_id = ?", userID).First(&w).Error; err != nil {
			return fmt.Errorf("error finding wallet: %w", err)
		}

		if input.Amount+w.PendingBalance > w.TotalBalance {
			return ErrOverCommitted
		}

		request = models.PayoutRequest{
			UserID:      userID,
			Amount:      input.Amount,
			Method:      input.Method,
			UPIAddress:  input.UPIAddress,
			BankAccount: input.BankAccount,
			BankIFSC:    input.BankIFSC,
			Status:      models.PayoutStatusPending,
		}

		if err := tx.Create(&request).Error; err != nil {
			return fmt.Errorf("error creating payout request: %w", err)
		}

		if err := tx.Model(&models.Wallet{}).Where("id = ?", w.ID).
			Update("pending_balance", gorm.Expr("pending_balance + ?", input.Amount)).Error; err != nil {
			return fmt.Errorf("error reserving pending balance: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &request, nil
}

// releasePending frees the reserve a pending request held on the wallet.
// Called inside the approve and reject transactions.
func releasePending(tx *gorm.DB, request *models.PayoutRequest) error {
	err := tx.Model(&models.Wallet{}).Where("user_id = ?", request.UserID).
		Update("pending_balance", gorm.Expr("pending_balance - ?", request.Amount)).Error
	if err != nil {
		return fmt.Errorf("error releasing pending balance: %w", err)
	}
	return nil
}

// Approve transitions a pending request to completed, debiting the
// wallet and writing the withdrawal ledger entry in the same database
// transaction. A failure at any step rolls everything back.
func (s *PayoutService) Approve(adminID, requestID uuid.UUID) (*models.PayoutRequest, error) {
	var request models.PayoutRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Re-read with lock so a concurrent approval sees the terminal
		// state instead of double-debiting.
		if err := database.LockForUpdate(tx).First(&request, "id = ?", requestID).Error; err != nil {
			return fmt.Errorf("error finding payout request: %w", err)
		}

		if !request.Status.CanTransitionTo(models.PayoutStatusCompleted) {
			return ErrInvalidTransition
		}

		reference := utils.GenerateTransactionReference("PAYOUT")
		_, err := s.walletSvc.DebitWithTx(tx, request.UserID, request.Amount, reference,
			fmt.Sprintf("Payout via %s", request.Method),
			map[string]interface{}{
				"payout_request_id": request.ID.String(),
				"approved_by":       adminID.String(),
			})
		if err != nil {
			return err
		}

		now := time.Now()
		request.Status = models.PayoutStatusCompleted
		request.ProcessedAt = &now
		request.ProcessedBy = &adminID

		if err := tx.Save(&request).Error; err != nil {
			return fmt.Errorf("error updating payout request: %w", err)
		}

		return releasePending(tx, &request)
	})
	if err != nil {
		return nil, err
	}

	s.enqueueNotification(&request, true)

	return &request, nil
}

// Reject transitions a pending request to rejected. The balance is not
// debited; only the pending reserve is released.
func (s *PayoutService) Reject(adminID, requestID uuid.UUID, reason string) (*models.PayoutRequest, error) {
	if reason == "" {
		return nil, errors.New("rejection reason is required")
	}

	var request models.PayoutRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := database.LockForUpdate(tx).First(&request, "id = ?", requestID).Error; err != nil {
			return fmt.Errorf("error finding payout request: %w", err)
		}

		if !request.Status.CanTransitionTo(models.PayoutStatusRejected) {
			return ErrInvalidTransition
		}

		now := time.Now()
		request.Status = models.PayoutStatusRejected
		request.RejectionReason = reason
		request.ProcessedAt = &now
		request.ProcessedBy = &adminID

		if err := tx.Save(&request).Error; err != nil {
			return fmt.Errorf("error updating payout request: %w", err)
		}

		return releasePending(tx, &request)
	})
	if err != nil {
		return nil, err
	}

	s.enqueueNotification(&request, false)

	return &request, nil
}

// GetRequest fetches a single payout request
func (s *PayoutService) GetRequest(requestID uuid.UUID) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	if err := s.db.First(&request, "id = ?", requestID).Error; err != nil {
		return nil, fmt.Errorf("error finding payout request: %w", err)
	}
	return &request, nil
}

// ListRequests lists payout requests, optionally filtered by status,
// newest first.
func (s *PayoutService) ListRequests(status models.PayoutStatus, page, pageSize int) ([]models.PayoutRequest, int64, error) {
	query := s.db.Model(&models.PayoutRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting payout requests: %w", err)
	}

	var requests []models.PayoutRequest
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("error listing payout requests: %w", err)
	}

	return requests, total, nil
}

// ListUserRequests lists a user's own payout requests, newest first
func (s *PayoutService) ListUserRequests(userID uuid.UUID) ([]models.PayoutRequest, error) {
	var requests []models.PayoutRequest
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("error listing payout requests: %w", err)
	}
	return requests, nil
}

// CompletedPayoutTotal sums all completed withdrawal transactions for a
// user, for the admin payouts overview.
func (s *PayoutService) CompletedPayoutTotal(userID uuid.UUID) (float64, error) {
	var total float64
	err := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND status = ?", userID, models.TransactionTypeWithdrawal, models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("error summing payouts: %w", err)
	}
	return total, nil
}
