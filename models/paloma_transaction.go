package models

import "time"

// RetentionWindow is how long a Paloma grant stays spendable before the
// expiration sweep reclaims it.
const RetentionWindow = 365 * 24 * time.Hour

// PalomaTransaction is one itemized Paloma grant. Amount is the value at
// grant time and is immutable; IsExpired only ever flips false→true.
type PalomaTransaction struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	Amount          int64  `gorm:"not null" json:"amount"`
	Source          string `gorm:"not null" json:"source"`           // provenance tag, e.g. "transfer_from_maria"
	TransactionType string `gorm:"not null" json:"transaction_type"` // "received", "sent", ...

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	IsExpired bool      `gorm:"not null;default:false;index" json:"is_expired"`
}

func (PalomaTransaction) TableName() string {
	return "paloma_transactions"
}
