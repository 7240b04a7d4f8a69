package ledger

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-directory-service/internal/domain/ledger"
	userdomain "user-directory-service/internal/domain/user"
	pkgerrors "user-directory-service/pkg/errors"
)

const (
	msgNoBalance     = "No balance known"
	msgInvalidAmount = "Invalid amount"
	msgUserNotFound  = "User ID not found"
)

// Repository defines data access for transactions.
type Repository interface {
	Create(ctx context.Context, tx *domain.Transaction) (int64, error)
	// Balance returns the sum of the user's amounts as a decimal string and the number of rows summed.
	Balance(ctx context.Context, userID int64) (string, int64, error)
	Find(ctx context.Context, f domain.Filter) ([]domain.Transaction, error)
	BalancesByMerchant(ctx context.Context, userID int64) ([]domain.MerchantBalance, error)
}

// UserLookup is the part of the user repository the ledger needs.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
}

// Usecase implements balance and transaction queries.
type Usecase struct {
	repo     Repository
	users    UserLookup
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// New creates a ledger Usecase.
func New(repo Repository, users UserLookup, log *zap.Logger) *Usecase {
	return &Usecase{
		repo:     repo,
		users:    users,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

// RecordTransaction stores a transaction for an existing user.
func (uc *Usecase) RecordTransaction(ctx context.Context, in RecordTransactionRequest) (*RecordTransactionResponse, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		verr := pkgerrors.NewValidationError()
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				verr.Add("Value must be a positive integer", payloadNames[fe.Field()])
			}
		}
		return nil, verr
	}

	if _, err := uc.users.GetByID(ctx, in.UserID); err != nil {
		if errors.Is(err, userdomain.ErrNotFound) {
			return nil, pkgerrors.NewNotFoundError("user", msgUserNotFound)
		}
		return nil, pkgerrors.NewInternalError("failed to load user", err)
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = uc.now()
	}

	id, err := uc.repo.Create(ctx, &domain.Transaction{
		UserID:        in.UserID,
		MerchantID:    in.MerchantID,
		AmountInCents: in.AmountInCents,
		Timestamp:     ts.UTC(),
	})
	if err != nil {
		uc.log.Error("failed to record transaction", zap.Int64("user_id", in.UserID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to record transaction", err)
	}

	uc.log.Info("transaction recorded",
		zap.Int64("id", id),
		zap.Int64("user_id", in.UserID),
		zap.Int64("merchant_id", in.MerchantID),
	)
	return &RecordTransactionResponse{ID: id}, nil
}

// GetBalance returns the user's balance in cents as a decimal string.
func (uc *Usecase) GetBalance(ctx context.Context, userID int64) (string, error) {
	balance, count, err := uc.repo.Balance(ctx, userID)
	if err != nil {
		uc.log.Error("failed to sum balance", zap.Int64("user_id", userID), zap.Error(err))
		return "", pkgerrors.NewInternalError("failed to get balance", err)
	}
	if count == 0 {
		return "", pkgerrors.NewNotFoundError("balance", msgNoBalance)
	}
	return balance, nil
}

// Approve reports whether the user's balance covers the requested amount.
// A user without transactions has a balance of zero.
func (uc *Usecase) Approve(ctx context.Context, in ApproveRequest) (bool, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(in.Amount), 10)
	if !ok {
		return false, pkgerrors.NewInvalidArgumentError(msgInvalidAmount)
	}

	raw, count, err := uc.repo.Balance(ctx, in.UserID)
	if err != nil {
		uc.log.Error("failed to sum balance", zap.Int64("user_id", in.UserID), zap.Error(err))
		return false, pkgerrors.NewInternalError("failed to get balance", err)
	}

	balance := new(big.Int)
	if count > 0 {
		if _, ok := balance.SetString(raw, 10); !ok {
			return false, pkgerrors.NewInternalError("unparseable balance "+raw, nil)
		}
	}

	approved := balance.Cmp(amount) >= 0
	uc.log.Debug("approval checked",
		zap.Int64("user_id", in.UserID),
		zap.String("amount", amount.String()),
		zap.Bool("approved", approved),
	)
	return approved, nil
}

// ListTransactions returns the user's transactions matching the filter.
// With a limit, one extra row is fetched to tell whether more exist.
func (uc *Usecase) ListTransactions(ctx context.Context, in ListTransactionsRequest) (*ListTransactionsResponse, error) {
	f := domain.Filter{
		UserID:     in.UserID,
		MerchantID: in.MerchantID,
		Before:     in.Before,
		After:      in.After,
	}
	if in.Limit > 0 {
		f.Limit = in.Limit + 1
	}

	rows, err := uc.repo.Find(ctx, f)
	if err != nil {
		uc.log.Error("failed to find transactions", zap.Int64("user_id", in.UserID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list transactions", err)
	}

	resp := &ListTransactionsResponse{}
	if in.Limit > 0 && len(rows) > in.Limit {
		rows = rows[:in.Limit]
		resp.HasMore = true
	}

	resp.Transactions = make([]Transaction, len(rows))
	for i, r := range rows {
		resp.Transactions[i] = Transaction{
			ID:            r.ID,
			UserID:        r.UserID,
			MerchantID:    r.MerchantID,
			AmountInCents: r.AmountInCents,
			Timestamp:     r.Timestamp,
		}
	}
	return resp, nil
}

// BalancesByMerchant returns the user's balance per merchant, ordered by merchant.
func (uc *Usecase) BalancesByMerchant(ctx context.Context, userID int64) ([]MerchantBalance, error) {
	rows, err := uc.repo.BalancesByMerchant(ctx, userID)
	if err != nil {
		uc.log.Error("failed to group balances", zap.Int64("user_id", userID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get balances", err)
	}

	out := make([]MerchantBalance, len(rows))
	for i, r := range rows {
		out[i] = MerchantBalance{MerchantID: r.MerchantID, Balance: r.Balance}
	}
	return out, nil
}

// payloadNames maps request fields to their JSON names.
var payloadNames = map[string]string{
	"UserID":     "userId",
	"MerchantID": "merchantId",
}
