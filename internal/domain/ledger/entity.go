package ledger

import "time"

// Transaction is a single signed money movement between a user and a merchant.
type Transaction struct {
	ID            int64
	UserID        int64
	MerchantID    int64
	AmountInCents int64 // negative amounts are debits
	Timestamp     time.Time
}

// MerchantBalance is the sum of a user's transactions with one merchant.
// Balance is a decimal string so large sums keep their precision.
type MerchantBalance struct {
	MerchantID int64
	Balance    string
}

// Filter narrows a transaction lookup. Zero values mean "no constraint".
type Filter struct {
	UserID     int64
	MerchantID int64
	Before     time.Time // exclusive
	After      time.Time // inclusive
	Limit      int
}
