package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
)

// TransactionRequest is the request body shared by top-up, purchase, fee,
// reward and refund operations. Reference is the caller-supplied idempotency
// key; when empty the server generates one.
type TransactionRequest struct {
	Amount            decimal.Decimal   `json:"amount" binding:"required"`
	Reference         string            `json:"reference"`
	ExternalReference string            `json:"externalReference"`
	Description       string            `json:"description"`
	Metadata          map[string]string `json:"metadata"`
}

// TransferRequest is the request body for wallet-to-wallet transfers.
type TransferRequest struct {
	FromWalletID string          `json:"fromWalletID" binding:"required"`
	ToWalletID   string          `json:"toWalletID" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Reference    string          `json:"reference"`
	Description  string          `json:"description"`
}

// AdjustmentRequest is the request body for manual balance adjustments.
type AdjustmentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Side        string          `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
}

// TransactionResponse defines the transaction data returned by the API.
type TransactionResponse struct {
	TransactionID        string            `json:"transactionID"`
	TransactionReference string            `json:"transactionReference"`
	WalletID             string            `json:"walletID"`
	CounterpartyWalletID *string           `json:"counterpartyWalletID,omitempty"`
	Type                 string            `json:"type"`
	Amount               decimal.Decimal   `json:"amount"`
	CurrencyCode         string            `json:"currencyCode"`
	Status               string            `json:"status"`
	LedgerBatchRef       *string           `json:"ledgerBatchRef,omitempty"`
	ExternalReference    string            `json:"externalReference,omitempty"`
	Description          string            `json:"description,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	FailureReason        *string           `json:"failureReason,omitempty"`
	ReversalOfID         *string           `json:"reversalOfID,omitempty"`
	ReversedByID         *string           `json:"reversedByID,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
}

// ExecutionResponse is returned from mutating engine operations: the
// recorded transaction plus the wallet as it stands after the commit.
type ExecutionResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Wallet      WalletResponse      `json:"wallet"`
}

// ListTransactionsParams holds query parameters for transaction history.
type ListTransactionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse is a page of transaction history.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse maps a domain transaction to its response DTO.
func ToTransactionResponse(t *domain.WalletTransaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:        t.TransactionID,
		TransactionReference: t.TransactionReference,
		WalletID:             t.WalletID,
		CounterpartyWalletID: t.CounterpartyWalletID,
		Type:                 string(t.Type),
		Amount:               t.Amount,
		CurrencyCode:         t.CurrencyCode,
		Status:               string(t.Status),
		LedgerBatchRef:       t.LedgerBatchRef,
		ExternalReference:    t.ExternalReference,
		Description:          t.Description,
		Metadata:             t.Metadata,
		FailureReason:        t.FailureReason,
		ReversalOfID:         t.ReversalOfID,
		ReversedByID:         t.ReversedByID,
		CreatedAt:            t.CreatedAt,
	}
}

// ToTransactionResponses maps a slice of domain transactions.
func ToTransactionResponses(txns []domain.WalletTransaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i])
	}
	return out
}
