package jobs

import (
	"log"
	"math"

	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/services/wallet"
	"gorm.io/gorm"
)

// driftTolerance absorbs float rounding on two-decimal amounts
const driftTolerance = 0.005

// ReconcileJob verifies every wallet's stored balance against the sum
// of its completed transactions. Drift means a balance was changed
// outside the ledger path and needs investigation.
type ReconcileJob struct {
	db        *gorm.DB
	walletSvc *wallet.WalletService
}

// NewReconcileJob creates a new reconcile job
func NewReconcileJob(db *gorm.DB, walletSvc *wallet.WalletService) *ReconcileJob {
	return &ReconcileJob{db: db, walletSvc: walletSvc}
}

// Run scans all wallets and logs any drift. Scheduled nightly.
func (j *ReconcileJob) Run() {
	var wallets []models.Wallet
	if err := j.db.Find(&wallets).Error; err != nil {
		log.Printf("Reconciliation failed to list wallets: %v", err)
		return
	}

	checked := 0
	drifted := 0
	for _, w := range wallets {
		derived, err := j.walletSvc.DeriveBalance(w.UserID)
		if err != nil {
			log.Printf("Reconciliation failed for wallet %s: %v", w.ID, err)
			continue
		}

		checked++
		if math.Abs(derived-w.TotalBalance) > driftTolerance {
			drifted++
			log.Printf("Wallet %s (user %s) drift detected: stored=%.2f derived=%.2f",
				w.ID, w.UserID, w.TotalBalance, derived)
		}
	}

	log.Printf("Wallet reconciliation complete: %d checked, %d drifted", checked, drifted)
}
