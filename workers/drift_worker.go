package workers

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

// DriftChecker compares each profile's aggregate dove_balance against the
// sum of its unexpired itemized grants. The two can diverge when a step
// fails mid-operation (a sweep that marks grants expired but cannot
// settle the balance); the checker only reports, it never mutates
// balances.
type DriftChecker struct {
	DB *gorm.DB
}

func NewDriftChecker(db *gorm.DB) *DriftChecker {
	return &DriftChecker{DB: db}
}

// DriftRow is one profile whose ledger and aggregate disagree.
type DriftRow struct {
	UserID      string `gorm:"column:user_id" json:"user_id"`
	Username    string `gorm:"column:username" json:"username"`
	DoveBalance int64  `gorm:"column:dove_balance" json:"dove_balance"`
	LedgerSum   int64  `gorm:"column:ledger_sum" json:"ledger_sum"`
}

// FindDrift returns profiles whose aggregate balance exceeds the sum of
// their unexpired grants — balance with no backing grants. Ordinary
// spending moves things the other way (aggregate drops, grant rows stay
// until the sweep reclaims them), so that direction is not reported.
func (d *DriftChecker) FindDrift(ctx context.Context) ([]DriftRow, error) {
	var rows []DriftRow
	err := d.DB.WithContext(ctx).Raw(`
		SELECT p.id AS user_id, p.username, p.dove_balance,
		       COALESCE(SUM(t.amount), 0) AS ledger_sum
		FROM profiles p
		LEFT JOIN paloma_transactions t
		  ON t.user_id = p.id AND t.is_expired = false
		GROUP BY p.id, p.username, p.dove_balance
		HAVING COALESCE(SUM(t.amount), 0) < p.dove_balance
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// PollDrift runs the drift check on a fixed interval until ctx is done.
func PollDrift(ctx context.Context, checker *DriftChecker, pollInterval time.Duration) {
	log.Println("Starting balance drift checker...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Drift checker stopped.")
			return
		case <-ticker.C:
			rows, err := checker.FindDrift(ctx)
			if err != nil {
				log.Printf("❌ Drift check failed: %v", err)
				continue
			}
			if len(rows) == 0 {
				continue
			}
			for _, r := range rows {
				log.Printf("⚠️ [DRIFT] %s (%s): dove_balance=%d but unexpired ledger sum=%d",
					r.Username, r.UserID, r.DoveBalance, r.LedgerSum)
			}
			log.Printf("⚠️ [DRIFT] %d profile(s) need operational reconciliation", len(rows))
		}
	}
}
