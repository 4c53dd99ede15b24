package referral

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/database"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/services/wallet"
	"github.com/refoapp/backend/internal/utils"
	"gorm.io/gorm"
)

// ErrInvalidCode is returned when a referral code does not resolve
var ErrInvalidCode = errors.New("invalid referral code")

// ReferralService manages affiliate links and commission crediting
type ReferralService struct {
	db        *gorm.DB
	walletSvc *wallet.WalletService
}

// NewReferralService creates a new referral service
func NewReferralService(db *gorm.DB, walletSvc *wallet.WalletService) *ReferralService {
	return &ReferralService{db: db, walletSvc: walletSvc}
}

// GetOrCreateLink returns the user's affiliate link, creating it on
// first use.
func (s *ReferralService) GetOrCreateLink(userID uuid.UUID) (*models.AffiliateLink, error) {
	var link models.AffiliateLink
	result := s.db.Where("user_id = ?", userID).First(&link)
	if result.Error == nil {
		return &link, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding affiliate link: %w", result.Error)
	}

	link = models.AffiliateLink{
		UserID: userID,
		Code:   utils.GenerateReferralCode(8),
	}
	if err := s.db.Create(&link).Error; err != nil {
		return nil, fmt.Errorf("error creating affiliate link: %w", err)
	}

	return &link, nil
}

// ResolveCode returns the referrer behind a referral code
func (s *ReferralService) ResolveCode(code string) (*models.User, error) {
	var link models.AffiliateLink
	if err := s.db.Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("error finding affiliate link: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", link.UserID).Error; err != nil {
		return nil, fmt.Errorf("error finding referrer: %w", err)
	}

	return &user, nil
}

// RecordClick increments the click counter for a referral code
func (s *ReferralService) RecordClick(code string) error {
	result := s.db.Model(&models.AffiliateLink{}).
		Where("code = ?", code).
		Update("clicks", gorm.Expr("clicks + 1"))
	if result.Error != nil {
		return fmt.Errorf("error recording click: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidCode
	}
	return nil
}

// CreditConversion credits the referrer's wallet for a pending
// conversion. Already-credited conversions are a no-op, so the
// commission job can retry safely.
func (s *ReferralService) CreditConversion(conversionID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var conversion models.ReferralConversion
		if err := database.LockForUpdate(tx).First(&conversion, "id = ?", conversionID).Error; err != nil {
			return fmt.Errorf("error finding conversion: %w", err)
		}

		if conversion.Status == models.ConversionStatusCredited {
			return nil
		}

		reference := utils.GenerateTransactionReference("REFBONUS")
		_, err := s.walletSvc.CreditWithTx(tx, conversion.ReferrerID, conversion.RewardAmount, reference,
			"Referral commission",
			map[string]interface{}{
				"conversion_id":    conversion.ID.String(),
				"referred_user_id": conversion.ReferredUserID.String(),
			})
		if err != nil {
			return err
		}

		now := time.Now()
		conversion.Status = models.ConversionStatusCredited
		conversion.CreditedAt = &now

		if err := tx.Save(&conversion).Error; err != nil {
			return fmt.Errorf("error updating conversion: %w", err)
		}

		return nil
	})
}

// ReferralStats summarizes a user's referral performance
type ReferralStats struct {
	Code        string  `json:"code"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	TotalEarned float64 `json:"total_earned"`
}

// GetStats returns a user's referral stats, creating the link if needed
func (s *ReferralService) GetStats(userID uuid.UUID) (*ReferralStats, error) {
	link, err := s.GetOrCreateLink(userID)
	if err != nil {
		return nil, err
	}

	var earned float64
	err = s.db.Model(&models.ReferralConversion{}).
		Where("referrer_id = ? AND status = ?", userID, models.ConversionStatusCredited).
		Select("COALESCE(SUM(reward_amount), 0)").
		Row().Scan(&earned)
	if err != nil {
		return nil, fmt.Errorf("error summing commissions: %w", err)
	}

	return &ReferralStats{
		Code:        link.Code,
		Clicks:      link.Clicks,
		Conversions: link.Conversions,
		TotalEarned: earned,
	}, nil
}

// ListConversions lists a referrer's conversions, newest first
func (s *ReferralService) ListConversions(userID uuid.UUID) ([]models.ReferralConversion, error) {
	var conversions []models.ReferralConversion
	if err := s.db.Where("referrer_id = ?", userID).Order("created_at DESC").Find(&conversions).Error; err != nil {
		return nil, fmt.Errorf("error listing conversions: %w", err)
	}
	return conversions, nil
}
