package ledger

import "time"

// RecordTransactionRequest represents the request payload for recording a transaction.
type RecordTransactionRequest struct {
	UserID        int64 `validate:"gt=0"`
	MerchantID    int64 `validate:"gt=0"`
	AmountInCents int64
	Timestamp     time.Time // zero means now
}

// RecordTransactionResponse represents the response payload after recording a transaction.
type RecordTransactionResponse struct {
	ID int64
}

// ApproveRequest asks whether a user's balance covers Amount (integer cents, any size).
type ApproveRequest struct {
	UserID int64
	Amount string
}

// ListTransactionsRequest represents a filtered transaction lookup.
type ListTransactionsRequest struct {
	UserID     int64
	MerchantID int64
	Before     time.Time
	After      time.Time
	Limit      int
}

// ListTransactionsResponse holds one page of transactions.
type ListTransactionsResponse struct {
	Transactions []Transaction
	HasMore      bool
}

// Transaction represents a transaction DTO for API responses.
type Transaction struct {
	ID            int64
	UserID        int64
	MerchantID    int64
	AmountInCents int64
	Timestamp     time.Time
}

// MerchantBalance represents one merchant's share of a user's balance.
type MerchantBalance struct {
	MerchantID int64
	Balance    string
}
