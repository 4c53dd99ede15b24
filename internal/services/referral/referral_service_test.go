package referral

import (
	"testing"

	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/models"
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

func setupService(t *testing.T) (*ReferralService, *wallet.WalletService, *gorm.DB) {
	db := setupTestDB(t)
	walletSvc := wallet.NewWalletService(db)
	return NewReferralService(db, walletSvc), walletSvc, db
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

func TestGetOrCreateLinkIsStable(t *testing.T) {
	svc, _, db := setupService(t)
	user := createTestUser(t, db)

	link, err := svc.GetOrCreateLink(user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, link.Code)

	again, err := svc.GetOrCreateLink(user.ID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, again.ID)
	assert.Equal(t, link.Code, again.Code)
}

func TestResolveCode(t *testing.T) {
	svc, _, db := setupService(t)
	user := createTestUser(t, db)

	link, err := svc.GetOrCreateLink(user.ID)
	require.NoError(t, err)

	referrer, err := svc.ResolveCode(link.Code)
	require.NoError(t, err)
	assert.Equal(t, user.ID, referrer.ID)

	_, err = svc.ResolveCode("nope")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestRecordClick(t *testing.T) {
	svc, _, db := setupService(t)
	user := createTestUser(t, db)

	link, err := svc.GetOrCreateLink(user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RecordClick(link.Code))
	require.NoError(t, svc.RecordClick(link.Code))

	reloaded, err := svc.GetOrCreateLink(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reloaded.Clicks)

	assert.ErrorIs(t, svc.RecordClick("nope"), ErrInvalidCode)
}

func TestCreditConversionIsIdempotent(t *testing.T) {
	svc, walletSvc, db := setupService(t)
	referrer := createTestUser(t, db)
	referred := createTestUser(t, db)

	_, err := walletSvc.GetOrCreateWallet(referrer.ID)
	require.NoError(t, err)

	link, err := svc.GetOrCreateLink(referrer.ID)
	require.NoError(t, err)

	conversion := models.ReferralConversion{
		AffiliateLinkID: link.ID,
		ReferrerID:      referrer.ID,
		ReferredUserID:  referred.ID,
		RewardAmount:    50,
		Status:          models.ConversionStatusPending,
	}
	require.NoError(t, db.Create(&conversion).Error)

	require.NoError(t, svc.CreditConversion(conversion.ID))

	w, err := walletSvc.GetWallet(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, w.TotalBalance)

	var reloaded models.ReferralConversion
	require.NoError(t, db.First(&reloaded, "id = ?", conversion.ID).Error)
	assert.Equal(t, models.ConversionStatusCredited, reloaded.Status)
	require.NotNil(t, reloaded.CreditedAt)

	// A retried commission job must not credit twice
	require.NoError(t, svc.CreditConversion(conversion.ID))

	w, err = walletSvc.GetWallet(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, w.TotalBalance)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("user_id = ?", referrer.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetStats(t *testing.T) {
	svc, walletSvc, db := setupService(t)
	referrer := createTestUser(t, db)

	_, err := walletSvc.GetOrCreateWallet(referrer.ID)
	require.NoError(t, err)

	link, err := svc.GetOrCreateLink(referrer.ID)
	require.NoError(t, err)
	require.NoError(t, svc.RecordClick(link.Code))

	for i := 0; i < 2; i++ {
		referred := createTestUser(t, db)
		conversion := models.ReferralConversion{
			AffiliateLinkID: link.ID,
			ReferrerID:      referrer.ID,
			ReferredUserID:  referred.ID,
			RewardAmount:    50,
			Status:          models.ConversionStatusPending,
		}
		require.NoError(t, db.Create(&conversion).Error)
		require.NoError(t, db.Model(&link).Update("conversions", gorm.Expr("conversions + 1")).Error)
		require.NoError(t, svc.CreditConversion(conversion.ID))
	}

	stats, err := svc.GetStats(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, link.Code, stats.Code)
	assert.Equal(t, int64(1), stats.Clicks)
	assert.Equal(t, int64(2), stats.Conversions)
	assert.Equal(t, 100.0, stats.TotalEarned)

	conversions, err := svc.ListConversions(referrer.ID)
	require.NoError(t, err)
	assert.Len(t, conversions, 2)
}
