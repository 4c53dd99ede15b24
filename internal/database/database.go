package database

import (
	"fmt"
	"time"

	"github.com/refoapp/backend/internal/config"
	"github.com/refoapp/backend/internal/database/migrations"
	"github.com/refoapp/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the database connection with configuration
func InitDB(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dbConfig.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Versioned migrations run first, then AutoMigrate fills in columns
	// added since the last cut migration.
	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	return db, nil
}

// Migrate runs gorm auto-migration for all models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Users and referrals
		&models.User{},
		&models.AffiliateLink{},
		&models.ReferralConversion{},

		// Catalog
		&models.Category{},
		&models.Offer{},
		&models.Task{},

		// Ledger
		&models.Wallet{},
		&models.Transaction{},
		&models.PayoutRequest{},

		// Messaging
		&models.Notification{},
		&models.Chat{},
		&models.ChatMessage{},
	)
}
