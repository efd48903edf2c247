package services

import (
	"context"
	"errors"
	"time"

	"casa-rewards-system/models"

	"gorm.io/gorm"
)

// LedgerStore is the persistence surface the balance lifecycle runs on.
// Balance arithmetic happens server-side with guard clauses, never as
// read-modify-write, so concurrent sends cannot overdraw an account.
type LedgerStore interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error)
	ResolveAlias(ctx context.Context, alias string) (string, error)

	// TransferPalomas moves amount from one profile to another in a single
	// DB transaction and returns the sender's post-transfer balance.
	// Returns ErrInsufficientBalance when the sender's guarded decrement
	// matches no row.
	TransferPalomas(ctx context.Context, fromID, toID string, amount int64) (int64, error)

	// DebitPalomas is the guarded decrement alone (cash-out path).
	// Returns the post-debit balance.
	DebitPalomas(ctx context.Context, userID string, amount int64) (int64, error)

	// CreditPalomas increments a profile's spendable and lifetime totals.
	CreditPalomas(ctx context.Context, userID string, amount int64) error

	// AddLoveBalance returns the post-credit Love balance.
	AddLoveBalance(ctx context.Context, userID string, amount int64) (int64, error)

	InsertPalomaTransaction(ctx context.Context, txn *models.PalomaTransaction) error
	InsertLedgerEvent(ctx context.Context, event *models.LedgerEvent) error
	InsertCashOutRequest(ctx context.Context, req *models.CashOutRequest) error

	QueryExpiredTransactions(ctx context.Context, now time.Time) ([]models.PalomaTransaction, error)
	QueryUnexpiredTransactions(ctx context.Context, userID string, now time.Time) ([]models.PalomaTransaction, error)
	MarkTransactionExpired(ctx context.Context, id string) error

	// SettleExpiration deducts the expired amount server-side, clamped at
	// zero, and stamps last_expiration_check. Returns the old and new
	// balances. Atomic: a send or cash-out landing mid-sweep is never
	// overwritten.
	SettleExpiration(ctx context.Context, userID string, expiredAmount int64, checkedAt time.Time) (int64, int64, error)

	ListLedgerEvents(ctx context.Context, userID string, limit int) ([]models.LedgerEvent, error)

	// Advisory lock guarding the sweep against overlapping runs.
	TrySweepLock(ctx context.Context) (bool, error)
	ReleaseSweepLock(ctx context.Context) error
}

// sweepLockKey is the pg advisory lock key for the expiration sweep.
const sweepLockKey = 72504261

type GormLedgerStore struct {
	DB *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *GormLedgerStore {
	return &GormLedgerStore{DB: db}
}

func (s *GormLedgerStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormLedgerStore) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var p models.Profile
	err := s.DB.WithContext(ctx).Where("username = ?", username).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ResolveAlias returns the profile ID for an alias, or "" when the alias
// is unknown.
func (s *GormLedgerStore) ResolveAlias(ctx context.Context, alias string) (string, error) {
	var a models.ProfileAlias
	err := s.DB.WithContext(ctx).Where("alias = ?", alias).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return a.ProfileID, nil
}

func (s *GormLedgerStore) TransferPalomas(ctx context.Context, fromID, toID string, amount int64) (int64, error) {
	var senderBalance int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Raw(`
			UPDATE profiles
			SET dove_balance = dove_balance - ?
			WHERE id = ? AND dove_balance >= ?
			RETURNING dove_balance
		`, amount, fromID, amount).Scan(&senderBalance)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		res = tx.Model(&models.Profile{}).
			Where("id = ?", toID).
			UpdateColumns(map[string]interface{}{
				"dove_balance":            gorm.Expr("dove_balance + ?", amount),
				"total_palomas_collected": gorm.Expr("total_palomas_collected + ?", amount),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return senderBalance, nil
}

func (s *GormLedgerStore) DebitPalomas(ctx context.Context, userID string, amount int64) (int64, error) {
	var newBalance int64
	res := s.DB.WithContext(ctx).Raw(`
		UPDATE profiles
		SET dove_balance = dove_balance - ?
		WHERE id = ? AND dove_balance >= ?
		RETURNING dove_balance
	`, amount, userID, amount).Scan(&newBalance)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrInsufficientBalance
	}
	return newBalance, nil
}

func (s *GormLedgerStore) CreditPalomas(ctx context.Context, userID string, amount int64) error {
	res := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"dove_balance":            gorm.Expr("dove_balance + ?", amount),
			"total_palomas_collected": gorm.Expr("total_palomas_collected + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *GormLedgerStore) AddLoveBalance(ctx context.Context, userID string, amount int64) (int64, error) {
	var newBalance int64
	res := s.DB.WithContext(ctx).Raw(`
		UPDATE profiles
		SET love_balance = love_balance + ?
		WHERE id = ?
		RETURNING love_balance
	`, amount, userID).Scan(&newBalance)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return newBalance, nil
}

func (s *GormLedgerStore) InsertPalomaTransaction(ctx context.Context, txn *models.PalomaTransaction) error {
	return s.DB.WithContext(ctx).Create(txn).Error
}

func (s *GormLedgerStore) InsertLedgerEvent(ctx context.Context, event *models.LedgerEvent) error {
	return s.DB.WithContext(ctx).Create(event).Error
}

func (s *GormLedgerStore) InsertCashOutRequest(ctx context.Context, req *models.CashOutRequest) error {
	return s.DB.WithContext(ctx).Create(req).Error
}

func (s *GormLedgerStore) QueryExpiredTransactions(ctx context.Context, now time.Time) ([]models.PalomaTransaction, error) {
	var txns []models.PalomaTransaction
	if err := s.DB.WithContext(ctx).
		Where("expires_at <= ? AND is_expired = false", now).
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (s *GormLedgerStore) QueryUnexpiredTransactions(ctx context.Context, userID string, now time.Time) ([]models.PalomaTransaction, error) {
	var txns []models.PalomaTransaction
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND is_expired = false AND expires_at >= ?", userID, now).
		Order("expires_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (s *GormLedgerStore) MarkTransactionExpired(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Model(&models.PalomaTransaction{}).
		Where("id = ?", id).
		Update("is_expired", true).Error
}

// SettleExpiration clamps server-side: the deduction applies to whatever
// the balance is at commit time, so a debit landing mid-sweep stands.
func (s *GormLedgerStore) SettleExpiration(ctx context.Context, userID string, expiredAmount int64, checkedAt time.Time) (int64, int64, error) {
	var balances struct {
		OldBalance int64 `gorm:"column:old_balance"`
		NewBalance int64 `gorm:"column:new_balance"`
	}
	res := s.DB.WithContext(ctx).Raw(`
		UPDATE profiles p
		SET dove_balance = GREATEST(p.dove_balance - ?, 0),
		    last_expiration_check = ?
		FROM (SELECT id, dove_balance AS old_balance FROM profiles WHERE id = ? FOR UPDATE) o
		WHERE p.id = o.id
		RETURNING o.old_balance, p.dove_balance AS new_balance
	`, expiredAmount, checkedAt, userID).Scan(&balances)
	if res.Error != nil {
		return 0, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, 0, gorm.ErrRecordNotFound
	}
	return balances.OldBalance, balances.NewBalance, nil
}

func (s *GormLedgerStore) ListLedgerEvents(ctx context.Context, userID string, limit int) ([]models.LedgerEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.LedgerEvent
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GormLedgerStore) TrySweepLock(ctx context.Context) (bool, error) {
	var locked bool
	if err := s.DB.WithContext(ctx).
		Raw("SELECT pg_try_advisory_lock(?)", sweepLockKey).
		Scan(&locked).Error; err != nil {
		return false, err
	}
	return locked, nil
}

func (s *GormLedgerStore) ReleaseSweepLock(ctx context.Context) error {
	return s.DB.WithContext(ctx).Exec("SELECT pg_advisory_unlock(?)", sweepLockKey).Error
}
