package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is the state of a user's attempt at an offer. "verified" is
// the canonical success terminal state.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusSubmitted TaskStatus = "submitted"
	TaskStatusVerified  TaskStatus = "verified"
	TaskStatusRejected  TaskStatus = "rejected"
)

// taskTransitions is the closed transition table for tasks. Verification
// requires submitted proof; verified and rejected are terminal.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:   {TaskStatusSubmitted, TaskStatusRejected},
	TaskStatusSubmitted: {TaskStatusVerified, TaskStatusRejected},
	TaskStatusVerified:  {},
	TaskStatusRejected:  {},
}

// CanTransitionTo reports whether a task in status s may move to next.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (s TaskStatus) IsTerminal() bool {
	return len(taskTransitions[s]) == 0
}

// Task represents a user's attempt at an offer, tracked through the
// verification workflow. One task per (user, offer) pair.
type Task struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_tasks_user_offer" json:"user_id"`
	User            User           `gorm:"foreignKey:UserID" json:"-"`
	OfferID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_tasks_user_offer" json:"offer_id"`
	Offer           Offer          `gorm:"foreignKey:OfferID" json:"offer,omitempty"`
	Status          TaskStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ProofURL        string         `gorm:"type:text" json:"proof_url,omitempty"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	VerifiedAt      *time.Time     `json:"verified_at"`
	VerifiedBy      *uuid.UUID     `gorm:"type:uuid" json:"verified_by"`
	CreatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
