package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutStatus is the state of a payout request
type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusRejected  PayoutStatus = "rejected"
)

// PayoutMethod is how the payout is delivered
type PayoutMethod string

const (
	PayoutMethodUPI  PayoutMethod = "upi"
	PayoutMethodBank PayoutMethod = "bank"
)

// payoutTransitions is the closed transition table for payout requests.
// completed and rejected are terminal.
var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutStatusPending:   {PayoutStatusCompleted, PayoutStatusRejected},
	PayoutStatusCompleted: {},
	PayoutStatusRejected:  {},
}

// CanTransitionTo reports whether a payout request in status s may move
// to next.
func (s PayoutStatus) CanTransitionTo(next PayoutStatus) bool {
	for _, allowed := range payoutTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (s PayoutStatus) IsTerminal() bool {
	return len(payoutTransitions[s]) == 0
}

// PayoutRequest represents a user-initiated withdrawal against wallet
// balance. Created by the user, transitioned only by an admin.
type PayoutRequest struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	User            User           `gorm:"foreignKey:UserID" json:"-"`
	Amount          float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method          PayoutMethod   `gorm:"type:varchar(20);not null" json:"method"`
	UPIAddress      string         `gorm:"type:varchar(100)" json:"upi_address,omitempty"`
	BankAccount     string         `gorm:"type:varchar(50)" json:"bank_account,omitempty"`
	BankIFSC        string         `gorm:"type:varchar(20)" json:"bank_ifsc,omitempty"`
	Status          PayoutStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	ProcessedAt     *time.Time     `json:"processed_at"`
	ProcessedBy     *uuid.UUID     `gorm:"type:uuid" json:"processed_by"`
	CreatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
