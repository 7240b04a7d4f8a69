package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-directory-service/internal/usecase/ledger"
)

// LedgerUsecase is the ledger behaviour the HTTP layer depends on.
type LedgerUsecase interface {
	RecordTransaction(ctx context.Context, in ledger.RecordTransactionRequest) (*ledger.RecordTransactionResponse, error)
	GetBalance(ctx context.Context, userID int64) (string, error)
	Approve(ctx context.Context, in ledger.ApproveRequest) (bool, error)
	ListTransactions(ctx context.Context, in ledger.ListTransactionsRequest) (*ledger.ListTransactionsResponse, error)
	BalancesByMerchant(ctx context.Context, userID int64) ([]ledger.MerchantBalance, error)
}

// LedgerHandler handles HTTP requests for balances and transactions
type LedgerHandler struct {
	uc  LedgerUsecase
	log *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler instance
func NewLedgerHandler(uc LedgerUsecase, log *zap.Logger) *LedgerHandler {
	return &LedgerHandler{uc: uc, log: log}
}

// RecordTransactionRequest represents the HTTP request body for recording a transaction
type RecordTransactionRequest struct {
	UserID        int64      `json:"userId"`
	MerchantID    int64      `json:"merchantId"`
	AmountInCents int64      `json:"amountInCents"`
	Timestamp     *time.Time `json:"timestamp"`
}

// TransactionResponse represents a transaction in HTTP responses
type TransactionResponse struct {
	TransactionID int64     `json:"transactionId"`
	UserID        int64     `json:"userId"`
	MerchantID    int64     `json:"merchantId"`
	AmountInCents int64     `json:"amountInCents"`
	Timestamp     time.Time `json:"timestamp"`
}

// ListTransactionsResponse is returned by GET /transactions/by-user/:id
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	HasMore      bool                  `json:"hasMore,omitempty"`
}

// MerchantBalanceResponse is one entry of GET /users/:id/balances-by-merchant
type MerchantBalanceResponse struct {
	MerchantID int64  `json:"merchantId"`
	Balance    string `json:"balance"`
}

// RecordTransaction handles POST /transactions
func (h *LedgerHandler) RecordTransaction(c *gin.Context) {
	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid record transaction request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON})
		return
	}

	in := ledger.RecordTransactionRequest{
		UserID:        req.UserID,
		MerchantID:    req.MerchantID,
		AmountInCents: req.AmountInCents,
	}
	if req.Timestamp != nil {
		in.Timestamp = *req.Timestamp
	}

	resp, err := h.uc.RecordTransaction(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transactionId": resp.ID})
}

// GetBalance handles GET /users/:id/balance
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	balance, err := h.uc.GetBalance(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// Approve handles GET /users/:id/approve?amount=N
func (h *LedgerHandler) Approve(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	approved, err := h.uc.Approve(c.Request.Context(), ledger.ApproveRequest{UserID: id, Amount: c.Query("amount")})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"approved": approved})
}

// ListTransactions handles GET /transactions/by-user/:id
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	in := ledger.ListTransactionsRequest{UserID: id}

	if raw, set := c.GetQuery("merchant"); set {
		merchant, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || merchant <= 0 {
			invalidQuery(c, "merchant", raw)
			return
		}
		in.MerchantID = merchant
	}
	if raw, set := c.GetQuery("limit"); set {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			invalidQuery(c, "limit", raw)
			return
		}
		in.Limit = limit
	}
	for _, bound := range []struct {
		name string
		dst  *time.Time
	}{
		{"before", &in.Before},
		{"after", &in.After},
	} {
		raw, set := c.GetQuery(bound.name)
		if !set {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			invalidQuery(c, bound.name, raw)
			return
		}
		*bound.dst = ts
	}

	resp, err := h.uc.ListTransactions(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := ListTransactionsResponse{
		Transactions: make([]TransactionResponse, len(resp.Transactions)),
		HasMore:      resp.HasMore,
	}
	for i, t := range resp.Transactions {
		out.Transactions[i] = TransactionResponse{
			TransactionID: t.ID,
			UserID:        t.UserID,
			MerchantID:    t.MerchantID,
			AmountInCents: t.AmountInCents,
			Timestamp:     t.Timestamp,
		}
	}

	c.JSON(http.StatusOK, out)
}

// BalancesByMerchant handles GET /users/:id/balances-by-merchant
func (h *LedgerHandler) BalancesByMerchant(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	balances, err := h.uc.BalancesByMerchant(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]MerchantBalanceResponse, len(balances))
	for i, b := range balances {
		out[i] = MerchantBalanceResponse{MerchantID: b.MerchantID, Balance: b.Balance}
	}
	c.JSON(http.StatusOK, out)
}

func invalidQuery(c *gin.Context, name, value string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Invalid %s: %q", name, value)})
}
