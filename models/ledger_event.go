package models

import "time"

// LedgerEventKind is structured provenance for the audit trail. Meaning
// lives in the column, not in a description string that gets parsed back
// later by history views.
type LedgerEventKind string

const (
	EventKindTransferIn  LedgerEventKind = "transfer_in"
	EventKindTransferOut LedgerEventKind = "transfer_out"
	EventKindLoveBonus   LedgerEventKind = "love_bonus"
	EventKindCashedOut   LedgerEventKind = "cashed_out"
	EventKindExpiry      LedgerEventKind = "expiry"
)

// LedgerEvent is the append-only audit trail: one row per balance-affecting
// event. Never updated or deleted; used for history display only, never for
// balance computation.
type LedgerEvent struct {
	ID     string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind   LedgerEventKind `gorm:"not null;index" json:"kind"`

	// Counterparty for transfers ("" when not applicable)
	CounterpartyUsername string `json:"counterparty_username,omitempty"`

	Palomas     int64  `json:"palomas"` // Palomas moved (signed from the user's view)
	Love        int64  `json:"love"`    // Love granted, if any
	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (LedgerEvent) TableName() string {
	return "ledger_events"
}
