package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"casa-rewards-system/models"
)

// mockLedgerStore is a simple in-memory mock for testing
type mockLedgerStore struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
	aliases  map[string]string
	txns     map[string]*models.PalomaTransaction
	events   []models.LedgerEvent
	cashouts []models.CashOutRequest

	// failure injection
	failProfileFetch  map[string]bool
	failMarkExpired   map[string]bool
	failEventInsert   bool
	failCashoutInsert bool
	lockBusy          bool
}

func newMockStore() *mockLedgerStore {
	return &mockLedgerStore{
		profiles:         make(map[string]*models.Profile),
		aliases:          make(map[string]string),
		txns:             make(map[string]*models.PalomaTransaction),
		failProfileFetch: make(map[string]bool),
		failMarkExpired:  make(map[string]bool),
	}
}

func (m *mockLedgerStore) addProfile(p *models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

func (m *mockLedgerStore) addTxn(t *models.PalomaTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[t.ID] = t
}

func (m *mockLedgerStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failProfileFetch[userID] {
		return nil, errors.New("profile fetch failed")
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockLedgerStore) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockLedgerStore) ResolveAlias(ctx context.Context, alias string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.aliases[alias], nil
}

func (m *mockLedgerStore) TransferPalomas(ctx context.Context, fromID, toID string, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, ok := m.profiles[fromID]
	if !ok || from.DoveBalance < amount {
		return 0, ErrInsufficientBalance
	}
	to, ok := m.profiles[toID]
	if !ok {
		return 0, errors.New("recipient not found")
	}
	from.DoveBalance -= amount
	to.DoveBalance += amount
	to.TotalPalomasCollected += amount
	return from.DoveBalance, nil
}

func (m *mockLedgerStore) DebitPalomas(ctx context.Context, userID string, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok || p.DoveBalance < amount {
		return 0, ErrInsufficientBalance
	}
	p.DoveBalance -= amount
	return p.DoveBalance, nil
}

func (m *mockLedgerStore) CreditPalomas(ctx context.Context, userID string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return errors.New("profile not found")
	}
	p.DoveBalance += amount
	p.TotalPalomasCollected += amount
	return nil
}

func (m *mockLedgerStore) AddLoveBalance(ctx context.Context, userID string, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return 0, errors.New("profile not found")
	}
	p.LoveBalance += amount
	return p.LoveBalance, nil
}

func (m *mockLedgerStore) InsertPalomaTransaction(ctx context.Context, txn *models.PalomaTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *txn
	m.txns[txn.ID] = &cp
	return nil
}

func (m *mockLedgerStore) InsertLedgerEvent(ctx context.Context, event *models.LedgerEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEventInsert {
		return errors.New("event insert failed")
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *mockLedgerStore) InsertCashOutRequest(ctx context.Context, req *models.CashOutRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCashoutInsert {
		return errors.New("cashout insert failed")
	}
	m.cashouts = append(m.cashouts, *req)
	return nil
}

func (m *mockLedgerStore) QueryExpiredTransactions(ctx context.Context, now time.Time) ([]models.PalomaTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PalomaTransaction
	for _, t := range m.txns {
		if !t.IsExpired && !t.ExpiresAt.After(now) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (m *mockLedgerStore) QueryUnexpiredTransactions(ctx context.Context, userID string, now time.Time) ([]models.PalomaTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PalomaTransaction
	for _, t := range m.txns {
		if t.UserID == userID && !t.IsExpired && !t.ExpiresAt.Before(now) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (m *mockLedgerStore) MarkTransactionExpired(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkExpired[id] {
		return errors.New("mark expired failed")
	}
	if t, ok := m.txns[id]; ok {
		t.IsExpired = true
	}
	return nil
}

func (m *mockLedgerStore) SettleExpiration(ctx context.Context, userID string, expiredAmount int64, checkedAt time.Time) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return 0, 0, errors.New("profile not found")
	}
	oldBalance := p.DoveBalance
	newBalance := oldBalance - expiredAmount
	if newBalance < 0 {
		newBalance = 0
	}
	p.DoveBalance = newBalance
	t := checkedAt
	p.LastExpirationCheck = &t
	return oldBalance, newBalance, nil
}

func (m *mockLedgerStore) ListLedgerEvents(ctx context.Context, userID string, limit int) ([]models.LedgerEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.LedgerEvent
	for _, e := range m.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockLedgerStore) TrySweepLock(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.lockBusy, nil
}

func (m *mockLedgerStore) ReleaseSweepLock(ctx context.Context) error {
	return nil
}

// raceDebitStore lands one debit against userID right after the first
// profile read, imitating a send that commits while another operation is
// between its read and its write.
type raceDebitStore struct {
	*mockLedgerStore
	userID      string
	debitAmount int64
	debited     bool
}

func (s *raceDebitStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.mockLedgerStore.GetProfile(ctx, userID)
	if err == nil && p != nil && userID == s.userID && !s.debited {
		s.debited = true
		if _, derr := s.mockLedgerStore.DebitPalomas(ctx, userID, s.debitAmount); derr != nil {
			return nil, derr
		}
	}
	return p, err
}

func (m *mockLedgerStore) eventsOfKind(userID string, kind models.LedgerEventKind) []models.LedgerEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.LedgerEvent
	for _, e := range m.events {
		if e.UserID == userID && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
