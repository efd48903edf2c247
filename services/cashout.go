package services

import "math"

// CashOutBreakdown is the full tax breakdown for a requested payout.
type CashOutBreakdown struct {
	TaxRate          float64 `json:"tax_rate"`
	TaxAmount        int64   `json:"tax_amount"`
	CashAmount       int64   `json:"cash_amount"`
	PayoutPercentage float64 `json:"payout_percentage"`
}

// CalculateCashOut converts a Paloma amount into net cash and tax withheld.
// Pure and deterministic. The cash amount is floored from the unfloored
// tax (amount - amount*rate), not computed as amount - taxAmount; the two
// differ by one Paloma whenever the tax has a fractional part.
func CalculateCashOut(palomaAmount int64, level int, username string) CashOutBreakdown {
	rate := CashOutTaxRate(level, username)
	amt := float64(palomaAmount)
	return CashOutBreakdown{
		TaxRate:          rate,
		TaxAmount:        int64(math.Floor(amt * rate)),
		CashAmount:       int64(math.Floor(amt - amt*rate)),
		PayoutPercentage: (1 - rate) * 100,
	}
}
