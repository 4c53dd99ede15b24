package wallet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/models"
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

	// A pooled second connection would see a different in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.Wallet{}, &models.Transaction{})
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	user := models.User{
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "hashed",
		ReferralCode: uuid.New().String()[:8],
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestGetOrCreateWallet(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWalletService(db)
	user := createTestUser(t, db)

	wallet, err := svc.GetOrCreateWallet(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, wallet.UserID)
	assert.Equal(t, 0.0, wallet.TotalBalance)

	// Second call must return the same wallet, not create another
	again, err := svc.GetOrCreateWallet(user.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, again.ID)
}

func TestCreditRecordsLedgerEntry(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWalletService(db)
	user := createTestUser(t, db)

	_, err := svc.GetOrCreateWallet(user.ID)
	require.NoError(t, err)

	txn, err := svc.Credit(user.ID, 100, "REWARD-1", "Task reward", map[string]interface{}{"task_id": "abc"})
	require.NoError(t, err)

	assert.Equal(t, models.TransactionTypeCredit, txn.Type)
	assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, 100.0, txn.Amount)
	assert.Equal(t, 0.0, txn.BalanceBefore)
	assert.Equal(t, 100.0, txn.BalanceAfter)

	wallet, err := svc.GetWallet(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, wallet.TotalBalance)
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWalletService(db)
	user := createTestUser(t, db)

	_, err := svc.GetOrCreateWallet(user.ID)
	require.NoError(t, err)

	_, err = svc.Credit(user.ID, 0, "REWARD-2", "nothing", nil)
	assert.Error(t, err)

	_, err = svc.Credit(user.ID, -10, "REWARD-3", "negative", nil)
	assert.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDebitUpdatesBalance(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWalletService(db)
	user := createTestUser(t, db)

	_, err := svc.GetOrCreateWallet(user.ID)
	require.NoError(t, err)
	_, err = svc.Credit(user.ID, 100, "REWARD-4", "Task reward", nil)
	require.NoError(t, err)

	txn, err := svc.Debit(user.ID, 60, "PAYOUT-1", "Payout", nil)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionTypeWithdrawal, txn.Type)
	assert.Equal(t, 100.0, txn.BalanceBefore)
	assert.Equal(t, 40.0, txn.BalanceAfter)
	assert.Equal(t, -60.0, txn.Signed())

	wallet, err := svc.GetWallet(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, wallet.TotalBalance)
}

func TestDebitInsufficientBalanceLeavesStateUnchanged(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWalletService(db)
	user := createTestUser(t, db)

	_, err := svc.GetOrCreateWallet(user.ID)
	require.NoError(t, err)
	_, err = svc.Credit(user.ID, 30, "REWARD-5", "Task reward", nil)
	require.NoError(t, err)

	_, err = svc.Debit(user.ID, 60, "PAYOUT-2", "Payout", nil)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	wallet, err := svc.GetWallet(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, wallet.TotalBalance)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("type = ?", models.TransactionTypeWithdrawal).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeriveBalanceMatchesStoredBalance(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWalletService(db)
	user := createTestUser(t, db)

	_, err := svc.GetOrCreateWallet(user.ID)
	require.NoError(t, err)

	_, err = svc.Credit(user.ID, 150, "REWARD-6", "Task reward", nil)
	require.NoError(t, err)
	_, err = svc.Credit(user.ID, 50, "REFBONUS-1", "Referral commission", nil)
	require.NoError(t, err)
	_, err = svc.Debit(user.ID, 75, "PAYOUT-3", "Payout", nil)
	require.NoError(t, err)

	wallet, err := svc.GetWallet(user.ID)
	require.NoError(t, err)

	derived, err := svc.DeriveBalance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.TotalBalance, derived)
	assert.Equal(t, 125.0, derived)
}

func TestGetTransactionHistoryPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := NewWalletService(db)
	user := createTestUser(t, db)

	_, err := svc.GetOrCreateWallet(user.ID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = svc.Credit(user.ID, 10, "REWARD", "Task reward", nil)
		require.NoError(t, err)
	}

	transactions, total, err := svc.GetTransactionHistory(user.ID, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, transactions, 3)

	transactions, total, err = svc.GetTransactionHistory(user.ID, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, transactions, 2)
}
