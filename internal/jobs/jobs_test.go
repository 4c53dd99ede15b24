package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/config"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/queue"
	"github.com/refoapp/backend/internal/services/email"
	"github.com/refoapp/backend/internal/services/referral"
	"github.com/refoapp/backend/internal/services/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.Wallet{}, &models.Transaction{},
		&models.AffiliateLink{}, &models.ReferralConversion{})
	require.NoError(t, err)

	return db
}

func jobWith(t *testing.T, queueName queue.JobType, payload interface{}) queue.Job {
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return queue.Job{ID: uuid.New().String(), Queue: queueName, Payload: raw}
}

func TestReferralCommissionJobRetriesAreSafe(t *testing.T) {
	db := setupTestDB(t)
	walletSvc := wallet.NewWalletService(db)
	referralSvc := referral.NewReferralService(db, walletSvc)
	job := NewReferralCommissionJob(referralSvc)

	referrer := models.User{
		Email:        "referrer@example.com",
		PasswordHash: "hashed",
		ReferralCode: "REFER123",
		IsActive:     true,
	}
	require.NoError(t, db.Create(&referrer).Error)
	_, err := walletSvc.GetOrCreateWallet(referrer.ID)
	require.NoError(t, err)

	link, err := referralSvc.GetOrCreateLink(referrer.ID)
	require.NoError(t, err)

	conversion := models.ReferralConversion{
		AffiliateLinkID: link.ID,
		ReferrerID:      referrer.ID,
		ReferredUserID:  uuid.New(),
		RewardAmount:    50,
		Status:          models.ConversionStatusPending,
	}
	require.NoError(t, db.Create(&conversion).Error)

	payload := ReferralCommissionPayload{ConversionID: conversion.ID}
	require.NoError(t, job.Process(context.Background(), jobWith(t, queue.QueueReferralCommission, payload)))

	// A redelivered job must not pay the commission twice
	require.NoError(t, job.Process(context.Background(), jobWith(t, queue.QueueReferralCommission, payload)))

	w, err := walletSvc.GetWallet(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, w.TotalBalance)
}

func TestReferralCommissionJobUnknownConversion(t *testing.T) {
	db := setupTestDB(t)
	walletSvc := wallet.NewWalletService(db)
	job := NewReferralCommissionJob(referral.NewReferralService(db, walletSvc))

	payload := ReferralCommissionPayload{ConversionID: uuid.New()}
	err := job.Process(context.Background(), jobWith(t, queue.QueueReferralCommission, payload))
	assert.Error(t, err)
}

func TestTaskNotificationJob(t *testing.T) {
	db := setupTestDB(t)
	// No API key configured, sending becomes a logged no-op
	job := NewTaskNotificationJob(db, email.NewEmailService(config.ResendConfig{}))

	verified := TaskNotificationPayload{
		UserEmail:  "user@example.com",
		TaskStatus: string(models.TaskStatusVerified),
		OfferTitle: "Install Super App",
		Reward:     100,
	}
	assert.NoError(t, job.Process(context.Background(), jobWith(t, queue.QueueTaskNotification, verified)))

	rejected := TaskNotificationPayload{
		UserEmail:       "user@example.com",
		TaskStatus:      string(models.TaskStatusRejected),
		OfferTitle:      "Install Super App",
		RejectionReason: "screenshot unreadable",
	}
	assert.NoError(t, job.Process(context.Background(), jobWith(t, queue.QueueTaskNotification, rejected)))

	malformed := queue.Job{ID: uuid.New().String(), Queue: queue.QueueTaskNotification, Payload: []byte("{")}
	assert.Error(t, job.Process(context.Background(), malformed))
}
