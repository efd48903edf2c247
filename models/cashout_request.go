package models

import "time"

// CashOutStatus tracks a cash-out request through the admin payout flow.
// Only "pending" is written here; later states belong to the admin service.
type CashOutStatus string

const (
	CashOutStatusPending   CashOutStatus = "pending"
	CashOutStatusProcessed CashOutStatus = "processed"
	CashOutStatusRejected  CashOutStatus = "rejected"
)

// CashOutRequest is created once per submission; amount fields are
// immutable after creation.
type CashOutRequest struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string `gorm:"type:uuid;not null;index" json:"user_id"`
	Username     string `gorm:"not null" json:"username"`
	PaymentEmail string `gorm:"not null" json:"payment_email"`

	PalomaAmount int64   `gorm:"not null" json:"paloma_amount"`
	CashAmount   int64   `gorm:"not null" json:"cash_amount"`
	TaxRate      float64 `gorm:"not null" json:"tax_rate"`
	TaxAmount    int64   `gorm:"not null" json:"tax_amount"`

	Status    CashOutStatus `gorm:"not null;default:'pending';index" json:"status"`
	CreatedAt time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

func (CashOutRequest) TableName() string {
	return "cash_out_requests"
}
