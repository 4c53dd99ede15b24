package offer

import (
	"testing"

	"github.com/refoapp/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupService(t *testing.T) (*OfferService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.Offer{}, &models.Category{})
	require.NoError(t, err)

	return NewOfferService(db), db
}

func TestCreateOfferDerivesSlug(t *testing.T) {
	svc, _ := setupService(t)

	offer, err := svc.CreateOffer(CreateOfferInput{
		Title:        "Install Super App and Earn",
		Reward:       100,
		Category:     "apps",
		Instructions: []string{"Install the app", "Open it once"},
	})
	require.NoError(t, err)

	assert.Equal(t, "install-super-app-and-earn", offer.Slug)
	assert.Equal(t, models.OfferStatusActive, offer.Status)
	assert.True(t, offer.IsPublic)

	found, err := svc.GetOfferBySlug("install-super-app-and-earn")
	require.NoError(t, err)
	assert.Equal(t, offer.ID, found.ID)
}

func TestCreateOfferSlugCollision(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.CreateOffer(CreateOfferInput{Title: "Install Super App", Reward: 100})
	require.NoError(t, err)

	_, err = svc.CreateOffer(CreateOfferInput{Title: "Install Super App", Reward: 200})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestSlugCollisionIncludesDeletedOffers(t *testing.T) {
	svc, _ := setupService(t)

	offer, err := svc.CreateOffer(CreateOfferInput{Title: "Install Super App", Reward: 100})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteOffer(offer.ID))

	// The slug stays reserved so old links never point at a new offer
	_, err = svc.CreateOffer(CreateOfferInput{Title: "Install Super App", Reward: 200})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestUpdateOfferKeepsSlug(t *testing.T) {
	svc, _ := setupService(t)

	offer, err := svc.CreateOffer(CreateOfferInput{Title: "Install Super App", Reward: 100})
	require.NoError(t, err)

	updated, err := svc.UpdateOffer(offer.ID, map[string]interface{}{
		"title":  "Install Super App v2",
		"reward": 150.0,
	})
	require.NoError(t, err)

	assert.Equal(t, "Install Super App v2", updated.Title)
	assert.Equal(t, 150.0, updated.Reward)
	assert.Equal(t, "install-super-app", updated.Slug)
}

func TestListPublicOffersFiltersInactiveAndPrivate(t *testing.T) {
	svc, _ := setupService(t)

	visible, err := svc.CreateOffer(CreateOfferInput{Title: "Visible offer", Reward: 100, Category: "apps"})
	require.NoError(t, err)

	inactive, err := svc.CreateOffer(CreateOfferInput{Title: "Inactive offer", Reward: 100})
	require.NoError(t, err)
	_, err = svc.SetStatus(inactive.ID, models.OfferStatusInactive)
	require.NoError(t, err)

	private := false
	_, err = svc.CreateOffer(CreateOfferInput{Title: "Private offer", Reward: 100, IsPublic: &private})
	require.NoError(t, err)

	offers, total, err := svc.ListPublicOffers("", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, offers, 1)
	assert.Equal(t, visible.ID, offers[0].ID)

	// Category filter
	offers, _, err = svc.ListPublicOffers("games", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, offers)

	offers, _, err = svc.ListPublicOffers("apps", 1, 20)
	require.NoError(t, err)
	assert.Len(t, offers, 1)

	// Admin listing sees everything
	all, total, err := svc.ListAllOffers(1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)
}

func TestDeleteOffer(t *testing.T) {
	svc, db := setupService(t)

	offer, err := svc.CreateOffer(CreateOfferInput{Title: "Install Super App", Reward: 100})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOffer(offer.ID))
	assert.ErrorIs(t, svc.DeleteOffer(offer.ID), gorm.ErrRecordNotFound)

	_, err = svc.GetOffer(offer.ID)
	assert.Error(t, err)

	// Soft deleted, the row survives for task references
	var count int64
	require.NoError(t, db.Unscoped().Model(&models.Offer{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCategories(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.CreateCategory("apps")
	require.NoError(t, err)
	_, err = svc.CreateCategory("games")
	require.NoError(t, err)

	categories, err := svc.ListCategories()
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}
