package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// ReferralsChatNotifications adds affiliate links and conversions, the
// support chat tables, in-app notifications, and offer categories.
func ReferralsChatNotifications() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_referrals_chat_notifications",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS affiliate_links (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					user_id UUID NOT NULL UNIQUE REFERENCES users(id),
					code VARCHAR(50) NOT NULL UNIQUE,
					clicks BIGINT DEFAULT 0,
					conversions BIGINT DEFAULT 0,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE TABLE IF NOT EXISTS referral_conversions (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					affiliate_link_id UUID NOT NULL REFERENCES affiliate_links(id),
					referrer_id UUID NOT NULL REFERENCES users(id),
					referred_user_id UUID NOT NULL UNIQUE REFERENCES users(id),
					reward_amount DECIMAL(12,2) NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					credited_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_referral_conversions_referrer_id ON referral_conversions(referrer_id);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS chats (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					user_id UUID NOT NULL UNIQUE REFERENCES users(id),
					active_responder VARCHAR(10) NOT NULL DEFAULT 'ai',
					last_updated TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS chat_messages (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					chat_id UUID NOT NULL REFERENCES chats(id),
					user_id UUID NOT NULL REFERENCES users(id),
					sender VARCHAR(10) NOT NULL,
					message TEXT NOT NULL,
					timestamp TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_chat_messages_chat_id ON chat_messages(chat_id);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS notifications (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					user_id UUID NOT NULL REFERENCES users(id),
					title VARCHAR(255) NOT NULL,
					message TEXT NOT NULL,
					type VARCHAR(20) NOT NULL DEFAULT 'info',
					read_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id);

				CREATE TABLE IF NOT EXISTS categories (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					name VARCHAR(100) NOT NULL UNIQUE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS categories;
				DROP TABLE IF EXISTS notifications;
				DROP TABLE IF EXISTS chat_messages;
				DROP TABLE IF EXISTS chats;
				DROP TABLE IF EXISTS referral_conversions;
				DROP TABLE IF EXISTS affiliate_links;
			`).Error
		},
	}
}
