package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionType classifies ledger entries. Amount is always stored
// positive and signed by the type.
type TransactionType string

const (
	TransactionTypeCredit     TransactionType = "credit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus is the status of a ledger entry
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// Wallet represents a user's balance record. One row per user.
type Wallet struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User           User           `gorm:"foreignKey:UserID" json:"-"`
	TotalBalance   float64        `gorm:"type:decimal(12,2);default:0" json:"total_balance"`
	PendingBalance float64        `gorm:"type:decimal(12,2);default:0" json:"pending_balance"`
	CreatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// Transaction represents a wallet ledger entry. The log is append-only:
// rows are never updated after completion, so a wallet balance can always
// be re-derived from its transactions.
type Transaction struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID         `gorm:"type:uuid;index;not null" json:"user_id"`
	WalletID      uuid.UUID         `gorm:"type:uuid;index;not null" json:"wallet_id"`
	Wallet        Wallet            `gorm:"foreignKey:WalletID" json:"-"`
	Type          TransactionType   `gorm:"type:varchar(20);not null" json:"type"`
	Amount        float64           `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status        TransactionStatus `gorm:"type:varchar(20);not null" json:"status"`
	Reference     string            `gorm:"type:varchar(100)" json:"reference"`
	Description   string            `gorm:"type:text" json:"description"`
	BalanceBefore float64           `gorm:"type:decimal(12,2)" json:"balance_before"`
	BalanceAfter  float64           `gorm:"type:decimal(12,2)" json:"balance_after"`
	MetaData      JSON              `gorm:"type:jsonb" json:"metadata"`
	CreatedAt     time.Time         `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// Signed returns the amount with its sign applied: positive for credits,
// negative for withdrawals.
func (t *Transaction) Signed() float64 {
	if t.Type == TransactionTypeWithdrawal {
		return -t.Amount
	}
	return t.Amount
}
