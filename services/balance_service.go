package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"casa-rewards-system/models"

	"github.com/google/uuid"
)

const (
	// Love granted per Paloma sent to the house
	loveBonusRate = 0.33
	// Smallest cash-out we bother the payout desk with
	MinCashOutAmount = 10
)

type BalanceService struct {
	Store LedgerStore
}

func NewBalanceService(store LedgerStore) *BalanceService {
	return &BalanceService{Store: store}
}

// SendResult is the user-facing outcome of a send.
type SendResult struct {
	DoveBalance int64  `json:"dove_balance"`
	LoveBalance int64  `json:"love_balance"`
	LoveBonus   int64  `json:"love_bonus"`
	Message     string `json:"message"`
}

// CashoutResult is the user-facing outcome of a cash-out submission.
type CashoutResult struct {
	RequestID   string           `json:"request_id"`
	DoveBalance int64            `json:"dove_balance"`
	Breakdown   CashOutBreakdown `json:"breakdown"`
	Message     string           `json:"message"`
}

// ResolveHouseAccount finds the house profile: alias first, then a direct
// username lookup. A single NotFound outcome when both miss.
func (s *BalanceService) ResolveHouseAccount(ctx context.Context) (*models.Profile, error) {
	houseID, err := s.Store.ResolveAlias(ctx, HouseAlias())
	if err != nil {
		return nil, &DependencyError{Op: "resolve house alias", Err: err}
	}
	if houseID != "" {
		house, err := s.Store.GetProfile(ctx, houseID)
		if err != nil {
			return nil, &DependencyError{Op: "fetch house profile", Err: err}
		}
		if house != nil {
			return house, nil
		}
	}

	house, err := s.Store.GetProfileByUsername(ctx, HouseUsername())
	if err != nil {
		return nil, &DependencyError{Op: "fetch house profile", Err: err}
	}
	if house == nil {
		return nil, &NotFoundError{What: "house account"}
	}
	return house, nil
}

// SendPalomas moves Palomas from a member to the house and awards the Love
// bonus. The debit+credit pair is one atomic store transaction; the audit
// trail and the bonus are secondary steps that log on failure instead of
// rolling the transfer back.
func (s *BalanceService) SendPalomas(ctx context.Context, senderID string, amount int64) (*SendResult, error) {
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be a positive number of Palomas"}
	}

	sender, err := s.Store.GetProfile(ctx, senderID)
	if err != nil {
		return nil, &DependencyError{Op: "fetch sender profile", Err: err}
	}
	if sender == nil {
		return nil, &NotFoundError{What: "sender profile"}
	}
	if amount > sender.DoveBalance {
		return nil, &ValidationError{Field: "amount", Reason: "exceeds your Paloma balance"}
	}

	house, err := s.ResolveHouseAccount(ctx)
	if err != nil {
		return nil, err
	}

	doveBalance, err := s.Store.TransferPalomas(ctx, sender.ID, house.ID, amount)
	if err != nil {
		if err == ErrInsufficientBalance {
			return nil, &ValidationError{Field: "amount", Reason: "exceeds your Paloma balance"}
		}
		return nil, &DependencyError{Op: "transfer Palomas", Err: err}
	}

	if err := s.Store.InsertLedgerEvent(ctx, &models.LedgerEvent{
		ID:                   uuid.NewString(),
		UserID:               sender.ID,
		Kind:                 models.EventKindTransferOut,
		CounterpartyUsername: house.Username,
		Palomas:              -amount,
		Description:          fmt.Sprintf("Sent %d Palomas to %s", amount, house.Username),
	}); err != nil {
		log.Printf("⚠️ [SEND] audit event failed for %s (send of %d): %v", sender.ID, amount, err)
	}

	loveBalance := sender.LoveBalance
	loveBonus := int64(math.Floor(float64(amount) * loveBonusRate))
	if loveBonus > 0 {
		newLove, err := s.Store.AddLoveBalance(ctx, sender.ID, loveBonus)
		if err != nil {
			log.Printf("⚠️ [SEND] love bonus credit failed for %s (%d Love): %v", sender.ID, loveBonus, err)
			loveBonus = 0
		} else {
			loveBalance = newLove
			if err := s.Store.InsertLedgerEvent(ctx, &models.LedgerEvent{
				ID:          uuid.NewString(),
				UserID:      sender.ID,
				Kind:        models.EventKindLoveBonus,
				Love:        loveBonus,
				Description: fmt.Sprintf("Love bonus for sending %d Palomas", amount),
			}); err != nil {
				log.Printf("⚠️ [SEND] love bonus audit failed for %s: %v", sender.ID, err)
			}
		}
	}

	msg := fmt.Sprintf("Sent %d Palomas to %s 🕊️", amount, house.Username)
	if loveBonus > 0 {
		msg = fmt.Sprintf("%s — you earned %d Love!", msg, loveBonus)
	}

	return &SendResult{
		DoveBalance: doveBalance,
		LoveBalance: loveBalance,
		LoveBonus:   loveBonus,
		Message:     msg,
	}, nil
}

// RequestCashout debits the member and files a pending cash-out request
// carrying the full tax breakdown. A failed request insert is surfaced to
// the caller even though the debit already landed; the drift worker and
// the audit trail make that state visible operationally.
func (s *BalanceService) RequestCashout(ctx context.Context, userID string, amount int64, email string) (*CashoutResult, error) {
	if amount < MinCashOutAmount {
		return nil, &ValidationError{Field: "amount", Reason: fmt.Sprintf("minimum cash-out is %d Palomas", MinCashOutAmount)}
	}
	if !strings.Contains(email, "@") {
		return nil, &ValidationError{Field: "payment_email", Reason: "must be a valid email address"}
	}

	user, err := s.Store.GetProfile(ctx, userID)
	if err != nil {
		return nil, &DependencyError{Op: "fetch profile", Err: err}
	}
	if user == nil {
		return nil, &NotFoundError{What: "profile"}
	}
	if amount > user.DoveBalance {
		return nil, &ValidationError{Field: "amount", Reason: "exceeds your Paloma balance"}
	}

	breakdown := CalculateCashOut(amount, user.ProgressionLevel, user.Username)

	newBalance, err := s.Store.DebitPalomas(ctx, user.ID, amount)
	if err != nil {
		if err == ErrInsufficientBalance {
			return nil, &ValidationError{Field: "amount", Reason: "exceeds your Paloma balance"}
		}
		return nil, &DependencyError{Op: "debit Palomas", Err: err}
	}

	if err := s.Store.InsertLedgerEvent(ctx, &models.LedgerEvent{
		ID:      uuid.NewString(),
		UserID:  user.ID,
		Kind:    models.EventKindCashedOut,
		Palomas: -amount,
		Description: fmt.Sprintf("Cashed out %d Palomas → $%d (%.1f%% tax) to %s",
			amount, breakdown.CashAmount, breakdown.TaxRate*100, email),
	}); err != nil {
		log.Printf("⚠️ [CASHOUT] audit event failed for %s (cash-out of %d): %v", user.ID, amount, err)
	}

	req := &models.CashOutRequest{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Username:     user.Username,
		PaymentEmail: email,
		PalomaAmount: amount,
		CashAmount:   breakdown.CashAmount,
		TaxRate:      breakdown.TaxRate,
		TaxAmount:    breakdown.TaxAmount,
		Status:       models.CashOutStatusPending,
	}
	if err := s.Store.InsertCashOutRequest(ctx, req); err != nil {
		log.Printf("❌ [CASHOUT] request insert failed for %s after debit of %d: %v", user.ID, amount, err)
		return nil, &DependencyError{Op: "file cash-out request", Err: err}
	}

	return &CashoutResult{
		RequestID:   req.ID,
		DoveBalance: newBalance,
		Breakdown:   breakdown,
		Message: fmt.Sprintf("Cash-out of %d Palomas submitted — $%d after %.1f%% tax",
			amount, breakdown.CashAmount, breakdown.TaxRate*100),
	}, nil
}

// GrantPalomas credits a member with fresh Palomas and writes the itemized
// grant the expiration sweep later reclaims. Used by the gateway-admin
// grant path (approved submissions, event rewards).
func (s *BalanceService) GrantPalomas(ctx context.Context, userID string, amount int64, source string) (*models.PalomaTransaction, error) {
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be a positive number of Palomas"}
	}
	if source == "" {
		source = "grant"
	}

	user, err := s.Store.GetProfile(ctx, userID)
	if err != nil {
		return nil, &DependencyError{Op: "fetch profile", Err: err}
	}
	if user == nil {
		return nil, &NotFoundError{What: "profile"}
	}

	if err := s.Store.CreditPalomas(ctx, user.ID, amount); err != nil {
		return nil, &DependencyError{Op: "credit Palomas", Err: err}
	}

	now := time.Now()
	txn := &models.PalomaTransaction{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		Amount:          amount,
		Source:          source,
		TransactionType: "received",
		CreatedAt:       now,
		ExpiresAt:       now.Add(models.RetentionWindow),
	}
	if err := s.Store.InsertPalomaTransaction(ctx, txn); err != nil {
		// Without the itemized row the grant would silently never expire.
		return nil, &DependencyError{Op: "record Paloma grant", Err: err}
	}

	if err := s.Store.InsertLedgerEvent(ctx, &models.LedgerEvent{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Kind:        models.EventKindTransferIn,
		Palomas:     amount,
		Description: fmt.Sprintf("Received %d Palomas (%s)", amount, source),
	}); err != nil {
		log.Printf("⚠️ [GRANT] audit event failed for %s (grant of %d): %v", user.ID, amount, err)
	}

	return txn, nil
}
