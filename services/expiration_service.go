package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"casa-rewards-system/models"

	"github.com/google/uuid"
)

type ExpirationService struct {
	Store LedgerStore
}

func NewExpirationService(store LedgerStore) *ExpirationService {
	return &ExpirationService{Store: store}
}

// SweepUserResult is the per-user line of a sweep report.
type SweepUserResult struct {
	UserID           string `json:"userId"`
	Username         string `json:"username"`
	ExpiredAmount    int64  `json:"expiredAmount"`
	TransactionCount int    `json:"transactionCount"`
	OldBalance       int64  `json:"oldBalance"`
	NewBalance       int64  `json:"newBalance"`
}

// SweepReport is the aggregate outcome of one sweep run.
type SweepReport struct {
	Success               bool              `json:"success"`
	TotalExpired          int64             `json:"totalExpired"`
	UsersAffected         int               `json:"usersAffected"`
	TransactionsProcessed int               `json:"transactionsProcessed"`
	Details               []SweepUserResult `json:"details"`
}

// ExpirationForecast buckets a member's unexpired Palomas by how soon they
// expire, for warning display.
type ExpirationForecast struct {
	Expiring30         int64      `json:"expiring_30"`
	Expiring90         int64      `json:"expiring_90"`
	NextExpirationDate *time.Time `json:"next_expiration_date,omitempty"`
}

// RunSweep reclaims every Paloma grant past its expiry: marks the rows,
// deducts their value from the owner's balance (clamped at zero), and
// reports per-user and aggregate totals. Safe to re-invoke — already
// expired rows are excluded up front, so repeated runs converge. A
// store-level advisory lock keeps overlapping runs from double-deducting.
func (s *ExpirationService) RunSweep(ctx context.Context) (*SweepReport, error) {
	locked, err := s.Store.TrySweepLock(ctx)
	if err != nil {
		return nil, &DependencyError{Op: "acquire sweep lock", Err: err}
	}
	if !locked {
		log.Println("⏭️ [SWEEP] another sweep is running, skipping")
		return &SweepReport{Success: true, Details: []SweepUserResult{}}, nil
	}
	defer func() {
		if err := s.Store.ReleaseSweepLock(ctx); err != nil {
			log.Printf("⚠️ [SWEEP] failed to release sweep lock: %v", err)
		}
	}()

	// One "now" for the whole run
	now := time.Now()

	expired, err := s.Store.QueryExpiredTransactions(ctx, now)
	if err != nil {
		return nil, &DependencyError{Op: "query expired transactions", Err: err}
	}
	if len(expired) == 0 {
		return &SweepReport{Success: true, Details: []SweepUserResult{}}, nil
	}

	byUser := make(map[string][]models.PalomaTransaction)
	order := make([]string, 0)
	for _, txn := range expired {
		if _, seen := byUser[txn.UserID]; !seen {
			order = append(order, txn.UserID)
		}
		byUser[txn.UserID] = append(byUser[txn.UserID], txn)
	}

	report := &SweepReport{Success: true, Details: []SweepUserResult{}}

	for _, userID := range order {
		group := byUser[userID]

		var expiredForUser int64
		marked := 0
		for _, txn := range group {
			if err := s.Store.MarkTransactionExpired(ctx, txn.ID); err != nil {
				// Row stays eligible for the next run
				log.Printf("⚠️ [SWEEP] failed to mark transaction %s expired: %v", txn.ID, err)
				continue
			}
			expiredForUser += txn.Amount
			marked++
		}
		if marked == 0 {
			continue
		}

		profile, err := s.Store.GetProfile(ctx, userID)
		if err != nil || profile == nil {
			// Rows are already marked; the balance deduction is lost until
			// operational reconciliation. Logged, not retried in-run.
			log.Printf("⚠️ [SWEEP] skipping user %s: profile fetch failed (%v)", userID, err)
			continue
		}

		// The store clamps and deducts in one statement; a send or
		// cash-out landing since the fetch above is never overwritten.
		oldBalance, newBalance, err := s.Store.SettleExpiration(ctx, userID, expiredForUser, now)
		if err != nil {
			log.Printf("⚠️ [SWEEP] failed to settle balance for %s: %v", userID, err)
			continue
		}

		if err := s.Store.InsertLedgerEvent(ctx, &models.LedgerEvent{
			ID:          uuid.NewString(),
			UserID:      userID,
			Kind:        models.EventKindExpiry,
			Palomas:     -expiredForUser,
			Description: fmt.Sprintf("%d Palomas expired across %d grant(s)", expiredForUser, marked),
		}); err != nil {
			log.Printf("⚠️ [SWEEP] expiry audit event failed for %s: %v", userID, err)
		}

		report.Details = append(report.Details, SweepUserResult{
			UserID:           userID,
			Username:         profile.Username,
			ExpiredAmount:    expiredForUser,
			TransactionCount: marked,
			OldBalance:       oldBalance,
			NewBalance:       newBalance,
		})
		report.TotalExpired += expiredForUser
		report.UsersAffected++
		report.TransactionsProcessed += marked
	}

	log.Printf("🧹 [SWEEP] expired %d Palomas across %d user(s), %d transaction(s)",
		report.TotalExpired, report.UsersAffected, report.TransactionsProcessed)

	return report, nil
}

// Forecast classifies a member's unexpired Palomas into 30- and 90-day
// expiry buckets. Read-only; safe to call concurrently and often.
func (s *ExpirationService) Forecast(ctx context.Context, userID string) (*ExpirationForecast, error) {
	now := time.Now()
	txns, err := s.Store.QueryUnexpiredTransactions(ctx, userID, now)
	if err != nil {
		return nil, &DependencyError{Op: "query unexpired transactions", Err: err}
	}

	forecast := &ExpirationForecast{}
	if len(txns) == 0 {
		return forecast, nil
	}

	next := txns[0].ExpiresAt
	forecast.NextExpirationDate = &next

	cutoff30 := now.Add(30 * 24 * time.Hour)
	cutoff90 := now.Add(90 * 24 * time.Hour)
	for _, txn := range txns {
		switch {
		case !txn.ExpiresAt.After(cutoff30):
			forecast.Expiring30 += txn.Amount
		case !txn.ExpiresAt.After(cutoff90):
			forecast.Expiring90 += txn.Amount
		}
	}

	return forecast, nil
}
