package domain

import "time"

// PaymentCredit is a single-use authorization to run one generation job. It is
// created by the payment confirmation webhook and only ever mutated by the
// payment gate, which flips Redeemed exactly once.
type PaymentCredit struct {
	ID         string
	UserID     string
	Amount     int64
	Currency   string
	Reference  string
	Redeemed   bool
	PaidAt     time.Time
	RedeemedAt *time.Time
}
