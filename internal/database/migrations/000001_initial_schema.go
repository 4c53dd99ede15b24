package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// InitialSchema creates the core tables: users, wallets, the transaction
// ledger, payout requests, the offer catalog, and tasks.
func InitialSchema() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_initial_schema",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

				CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					username VARCHAR(50) UNIQUE,
					email VARCHAR(255) NOT NULL UNIQUE,
					password_hash VARCHAR(255) NOT NULL,
					phone VARCHAR(20),
					avatar_url TEXT,
					is_verified BOOLEAN DEFAULT FALSE,
					is_active BOOLEAN DEFAULT TRUE,
					is_admin BOOLEAN DEFAULT FALSE,
					is_owner BOOLEAN DEFAULT FALSE,
					referral_code VARCHAR(50) NOT NULL UNIQUE,
					referred_by UUID REFERENCES users(id),
					otp_secret VARCHAR(64),
					last_login_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
				CREATE INDEX IF NOT EXISTS idx_users_referral_code ON users(referral_code);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS wallets (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					user_id UUID NOT NULL UNIQUE REFERENCES users(id),
					total_balance DECIMAL(12,2) NOT NULL DEFAULT 0 CHECK (total_balance >= 0),
					pending_balance DECIMAL(12,2) NOT NULL DEFAULT 0,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE TABLE IF NOT EXISTS transactions (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					user_id UUID NOT NULL REFERENCES users(id),
					wallet_id UUID NOT NULL REFERENCES wallets(id),
					type VARCHAR(20) NOT NULL,
					amount DECIMAL(12,2) NOT NULL CHECK (amount > 0),
					status VARCHAR(20) NOT NULL,
					reference VARCHAR(100),
					description TEXT,
					balance_before DECIMAL(12,2),
					balance_after DECIMAL(12,2),
					meta_data JSONB,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
				CREATE INDEX IF NOT EXISTS idx_transactions_wallet_id ON transactions(wallet_id);

				CREATE TABLE IF NOT EXISTS payout_requests (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					user_id UUID NOT NULL REFERENCES users(id),
					amount DECIMAL(12,2) NOT NULL CHECK (amount > 0),
					method VARCHAR(20) NOT NULL,
					upi_address VARCHAR(100),
					bank_account VARCHAR(50),
					bank_ifsc VARCHAR(20),
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					rejection_reason TEXT,
					processed_at TIMESTAMP WITH TIME ZONE,
					processed_by UUID REFERENCES users(id),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_payout_requests_user_id ON payout_requests(user_id);
				CREATE INDEX IF NOT EXISTS idx_payout_requests_status ON payout_requests(status);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS offers (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					title VARCHAR(255) NOT NULL,
					slug VARCHAR(255) NOT NULL UNIQUE,
					description TEXT,
					reward DECIMAL(12,2) NOT NULL,
					category VARCHAR(100),
					logo_url TEXT,
					play_store_url TEXT,
					instructions JSONB,
					status VARCHAR(20) NOT NULL DEFAULT 'active',
					is_public BOOLEAN DEFAULT TRUE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE TABLE IF NOT EXISTS tasks (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					user_id UUID NOT NULL REFERENCES users(id),
					offer_id UUID NOT NULL REFERENCES offers(id),
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					proof_url TEXT,
					rejection_reason TEXT,
					verified_at TIMESTAMP WITH TIME ZONE,
					verified_by UUID REFERENCES users(id),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE,
					UNIQUE(user_id, offer_id)
				);

				CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS tasks;
				DROP TABLE IF EXISTS offers;
				DROP TABLE IF EXISTS payout_requests;
				DROP TABLE IF EXISTS transactions;
				DROP TABLE IF EXISTS wallets;
				DROP TABLE IF EXISTS users;
			`).Error
		},
	}
}
