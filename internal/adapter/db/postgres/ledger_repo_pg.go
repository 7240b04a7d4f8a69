package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-directory-service/internal/domain/ledger"
)

// LedgerRepoPG implements the ledger Repository interface using GORM.
type LedgerRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewLedgerRepoPG creates a new instance of LedgerRepoPG.
func NewLedgerRepoPG(db *gorm.DB, log *zap.Logger) *LedgerRepoPG {
	return &LedgerRepoPG{db: db, log: log}
}

// TransactionSchema represents the database schema for the transactions table.
type TransactionSchema struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	UserID        int64     `gorm:"not null;index:idx_transactions_user_merchant,priority:1"`
	MerchantID    int64     `gorm:"not null;index:idx_transactions_user_merchant,priority:2"`
	AmountInCents int64     `gorm:"not null"`
	OccurredAt    time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for the TransactionSchema model.
func (TransactionSchema) TableName() string {
	return "transactions"
}

// balanceExpr renders the sum as text so that values beyond int64 survive the driver.
// Postgres widens SUM(bigint) to numeric. SQLite raises "integer overflow"
// instead, so sumsNatively routes it through sumRows.
const balanceExpr = "CAST(COALESCE(SUM(amount_in_cents), 0) AS TEXT)"

func (r *LedgerRepoPG) sumsNatively() bool {
	return r.db.Dialector.Name() != "sqlite"
}

type merchantSum struct {
	merchantID int64
	total      *big.Int
}

// sumRows streams the user's amounts ordered by merchant and adds them
// with arbitrary precision. It also returns the number of rows read.
func (r *LedgerRepoPG) sumRows(ctx context.Context, userID int64) ([]merchantSum, int64, error) {
	rows, err := r.db.WithContext(ctx).
		Model(&TransactionSchema{}).
		Select("merchant_id, amount_in_cents").
		Where("user_id = ?", userID).
		Order("merchant_id").
		Rows()
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		sums  []merchantSum
		count int64
	)
	for rows.Next() {
		var merchantID, amount int64
		if err := rows.Scan(&merchantID, &amount); err != nil {
			return nil, 0, err
		}
		if len(sums) == 0 || sums[len(sums)-1].merchantID != merchantID {
			sums = append(sums, merchantSum{merchantID: merchantID, total: new(big.Int)})
		}
		last := sums[len(sums)-1].total
		last.Add(last, big.NewInt(amount))
		count++
	}
	return sums, count, rows.Err()
}

// Create inserts a transaction and returns its ID.
func (r *LedgerRepoPG) Create(ctx context.Context, tx *ledger.Transaction) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction cannot be nil")
	}

	model := TransactionSchema{
		UserID:        tx.UserID,
		MerchantID:    tx.MerchantID,
		AmountInCents: tx.AmountInCents,
		OccurredAt:    tx.Timestamp.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create transaction in db", zap.Error(err), zap.Int64("user_id", tx.UserID))
		return 0, fmt.Errorf("failed to create transaction: %w", err)
	}

	return model.ID, nil
}

// Balance sums the user's transactions.
func (r *LedgerRepoPG) Balance(ctx context.Context, userID int64) (string, int64, error) {
	if !r.sumsNatively() {
		sums, count, err := r.sumRows(ctx, userID)
		if err != nil {
			r.log.Error("failed to sum balance in db", zap.Error(err), zap.Int64("user_id", userID))
			return "", 0, fmt.Errorf("failed to sum balance: %w", err)
		}
		total := new(big.Int)
		for _, s := range sums {
			total.Add(total, s.total)
		}
		return total.String(), count, nil
	}

	var row struct {
		Balance string
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&TransactionSchema{}).
		Select(balanceExpr+" AS balance, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		r.log.Error("failed to sum balance in db", zap.Error(err), zap.Int64("user_id", userID))
		return "", 0, fmt.Errorf("failed to sum balance: %w", err)
	}

	return row.Balance, row.Count, nil
}

// Find returns the transactions matching f, oldest first.
func (r *LedgerRepoPG) Find(ctx context.Context, f ledger.Filter) ([]ledger.Transaction, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", f.UserID)
	if f.MerchantID > 0 {
		q = q.Where("merchant_id = ?", f.MerchantID)
	}
	if !f.Before.IsZero() {
		q = q.Where("occurred_at < ?", f.Before.UTC())
	}
	if !f.After.IsZero() {
		q = q.Where("occurred_at >= ?", f.After.UTC())
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var models []TransactionSchema
	if err := q.Order("occurred_at, id").Find(&models).Error; err != nil {
		r.log.Error("failed to find transactions in db", zap.Error(err), zap.Int64("user_id", f.UserID))
		return nil, fmt.Errorf("failed to find transactions: %w", err)
	}

	out := make([]ledger.Transaction, len(models))
	for i, m := range models {
		out[i] = ledger.Transaction{
			ID:            m.ID,
			UserID:        m.UserID,
			MerchantID:    m.MerchantID,
			AmountInCents: m.AmountInCents,
			Timestamp:     m.OccurredAt.UTC(),
		}
	}
	return out, nil
}

// BalancesByMerchant sums the user's transactions per merchant.
func (r *LedgerRepoPG) BalancesByMerchant(ctx context.Context, userID int64) ([]ledger.MerchantBalance, error) {
	if !r.sumsNatively() {
		sums, _, err := r.sumRows(ctx, userID)
		if err != nil {
			r.log.Error("failed to group balances in db", zap.Error(err), zap.Int64("user_id", userID))
			return nil, fmt.Errorf("failed to group balances: %w", err)
		}
		out := make([]ledger.MerchantBalance, len(sums))
		for i, s := range sums {
			out[i] = ledger.MerchantBalance{MerchantID: s.merchantID, Balance: s.total.String()}
		}
		return out, nil
	}

	var rows []struct {
		MerchantID int64
		Balance    string
	}
	err := r.db.WithContext(ctx).
		Model(&TransactionSchema{}).
		Select("merchant_id, " + balanceExpr + " AS balance").
		Where("user_id = ?", userID).
		Group("merchant_id").
		Order("merchant_id").
		Scan(&rows).Error
	if err != nil {
		r.log.Error("failed to group balances in db", zap.Error(err), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("failed to group balances: %w", err)
	}

	out := make([]ledger.MerchantBalance, len(rows))
	for i, row := range rows {
		out[i] = ledger.MerchantBalance{MerchantID: row.MerchantID, Balance: row.Balance}
	}
	return out, nil
}
