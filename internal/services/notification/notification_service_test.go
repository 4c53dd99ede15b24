package notification

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

func setupService(t *testing.T) (*NotificationService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.Notification{})
	require.NoError(t, err)

	return NewNotificationService(db), db
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

func TestNotifyAndList(t *testing.T) {
	svc, db := setupService(t)
	user := createTestUser(t, db)

	_, err := svc.Notify(user.ID, models.NotificationTypeSuccess, "Task verified", "Your reward has been credited")
	require.NoError(t, err)
	_, err = svc.Notify(user.ID, models.NotificationTypeError, "Task rejected", "Screenshot unreadable")
	require.NoError(t, err)

	notifications, unread, err := svc.List(user.ID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, notifications, 2)
	assert.Equal(t, int64(2), unread)
}

func TestMarkRead(t *testing.T) {
	svc, db := setupService(t)
	user := createTestUser(t, db)
	other := createTestUser(t, db)

	notification, err := svc.Notify(user.ID, models.NotificationTypeInfo, "Welcome", "Thanks for joining")
	require.NoError(t, err)

	// Another user marking it read is a silent no-op
	require.NoError(t, svc.MarkRead(other.ID, notification.ID))
	_, unread, err := svc.List(user.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, svc.MarkRead(user.ID, notification.ID))
	notifications, unread, err := svc.List(user.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
	require.NotNil(t, notifications[0].ReadAt)
}

func TestMarkAllRead(t *testing.T) {
	svc, db := setupService(t)
	user := createTestUser(t, db)

	for i := 0; i < 3; i++ {
		_, err := svc.Notify(user.ID, models.NotificationTypeInfo, "Update", "Something happened")
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAllRead(user.ID))

	_, unread, err := svc.List(user.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestBroadcast(t *testing.T) {
	svc, db := setupService(t)
	first := createTestUser(t, db)
	second := createTestUser(t, db)

	count, err := svc.Broadcast(models.NotificationTypeInfo, "Maintenance", "Payouts paused tonight")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	for _, user := range []*models.User{first, second} {
		notifications, unread, err := svc.List(user.ID, 1, 20)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, "Maintenance", notifications[0].Title)
		assert.Equal(t, int64(1), unread)
	}
}

func TestBroadcastWithNoUsers(t *testing.T) {
	svc, _ := setupService(t)

	count, err := svc.Broadcast(models.NotificationTypeInfo, "Hello", "Anyone there?")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
