package wallet

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/database"
	"github.com/refoapp/backend/internal/models"
	"gorm.io/gorm"
)

// ErrInsufficientBalance is returned when a debit would take the balance
// negative. No writes happen when it is returned.
var ErrInsufficientBalance = errors.New("insufficient balance")

// WalletService handles wallet operations. All balance mutations run
// inside a database transaction together with their ledger entry.
type WalletService struct {
	db *gorm.DB
}

// NewWalletService creates a new wallet service
func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{db: db}
}

// GetOrCreateWallet gets a user's wallet or creates one if it doesn't exist
func (s *WalletService) GetOrCreateWallet(userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet

	err := s.db.Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}

	wallet = models.Wallet{UserID: userID}
	if err := s.db.Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error creating wallet: %w", err)
	}

	return &wallet, nil
}

// GetWallet gets a user's wallet
func (s *WalletService) GetWallet(userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}
	return &wallet, nil
}

// Credit adds funds to a user's wallet and records a ledger entry
func (s *WalletService) Credit(userID uuid.UUID, amount float64, reference, description string, metadata map[string]interface{}) (*models.Transaction, error) {
	var transaction *models.Transaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = s.CreditWithTx(tx, userID, amount, reference, description, metadata)
		return err
	})
	if err != nil {
		return nil, err
	}

	return transaction, nil
}

// CreditWithTx adds funds to a wallet using an existing transaction
func (s *WalletService) CreditWithTx(tx *gorm.DB, userID uuid.UUID, amount float64, reference, description string, metadata map[string]interface{}) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %.2f", amount)
	}

	var wallet models.Wallet

	// Get wallet with lock
	if err := database.LockForUpdate(tx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}

	balanceBefore := wallet.TotalBalance

	wallet.TotalBalance += amount
	if err := tx.Save(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error updating wallet balance: %w", err)
	}

	transaction := models.Transaction{
		UserID:        userID,
		WalletID:      wallet.ID,
		Type:          models.TransactionTypeCredit,
		Amount:        amount,
		Status:        models.TransactionStatusCompleted,
		Reference:     reference,
		Description:   description,
		MetaData:      metadata,
		BalanceBefore: balanceBefore,
		BalanceAfter:  wallet.TotalBalance,
	}

	if err := tx.Create(&transaction).Error; err != nil {
		return nil, fmt.Errorf("error creating transaction record: %w", err)
	}

	return &transaction, nil
}

// Debit removes funds from a user's wallet and records a ledger entry.
// Returns ErrInsufficientBalance without mutating anything when the
// wallet cannot cover the amount.
func (s *WalletService) Debit(userID uuid.UUID, amount float64, reference, description string, metadata map[string]interface{}) (*models.Transaction, error) {
	var transaction *models.Transaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = s.DebitWithTx(tx, userID, amount, reference, description, metadata)
		return err
	})
	if err != nil {
		return nil, err
	}

	return transaction, nil
}

// DebitWithTx removes funds from a wallet using an existing transaction
func (s *WalletService) DebitWithTx(tx *gorm.DB, userID uuid.UUID, amount float64, reference, description string, metadata map[string]interface{}) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %.2f", amount)
	}

	var wallet models.Wallet

	// Get wallet with lock
	if err := database.LockForUpdate(tx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}

	if wallet.TotalBalance < amount {
		return nil, ErrInsufficientBalance
	}

	balanceBefore := wallet.TotalBalance

	wallet.TotalBalance -= amount
	if err := tx.Save(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error updating wallet balance: %w", err)
	}

	transaction := models.Transaction{
		UserID:        userID,
		WalletID:      wallet.ID,
		Type:          models.TransactionTypeWithdrawal,
		Amount:        amount,
		Status:        models.TransactionStatusCompleted,
		Reference:     reference,
		Description:   description,
		MetaData:      metadata,
		BalanceBefore: balanceBefore,
		BalanceAfter:  wallet.TotalBalance,
	}

	if err := tx.Create(&transaction).Error; err != nil {
		return nil, fmt.Errorf("error creating transaction record: %w", err)
	}

	return &transaction, nil
}

// GetTransactionHistory gets a user's transaction history, newest first
func (s *WalletService) GetTransactionHistory(userID uuid.UUID, page, pageSize int) ([]models.Transaction, int64, error) {
	var transactions []models.Transaction
	var total int64

	if err := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting transactions: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding transactions: %w", err)
	}

	return transactions, total, nil
}

// DeriveBalance recomputes a wallet's balance from its transaction log.
// Used by the reconciliation job to detect drift between the stored
// balance and the append-only ledger.
func (s *WalletService) DeriveBalance(userID uuid.UUID) (float64, error) {
	var transactions []models.Transaction
	if err := s.db.Where("user_id = ? AND status = ?", userID, models.TransactionStatusCompleted).Find(&transactions).Error; err != nil {
		return 0, fmt.Errorf("error loading transactions: %w", err)
	}

	var balance float64
	for i := range transactions {
		balance += transactions[i].Signed()
	}
	return balance, nil
}
