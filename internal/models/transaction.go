package models

import "github.com/shopspring/decimal"

// TransactionType classifies the business-level operation.
type TransactionType string

// TransactionStatus tracks the lifecycle of a wallet transaction.
type TransactionStatus string

// WalletTransaction represents a row in the wallet_transactions table.
// Metadata is stored as JSONB.
type WalletTransaction struct {
	TransactionID        string            `db:"transaction_id"`
	TransactionReference string            `db:"transaction_reference"`
	WalletID             string            `db:"wallet_id"`
	CounterpartyWalletID *string           `db:"counterparty_wallet_id"`
	Type                 TransactionType   `db:"transaction_type"`
	Amount               decimal.Decimal   `db:"amount"`
	CurrencyCode         string            `db:"currency_code"`
	Status               TransactionStatus `db:"status"`
	LedgerBatchRef       *string           `db:"ledger_batch_ref"`
	ExternalReference    string            `db:"external_reference"`
	Description          string            `db:"description"`
	Metadata             map[string]string `db:"metadata"`
	FailureReason        *string           `db:"failure_reason"`
	ReversalOfID         *string           `db:"reversal_of_id"`
	ReversedByID         *string           `db:"reversed_by_id"`
	AuditFields
}
