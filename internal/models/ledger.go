package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of a ledger account.
type AccountType string

// LedgerEntry represents a row in the append-only ledger_entries table.
// Rows are never updated or deleted.
type LedgerEntry struct {
	EntryID        string          `db:"entry_id"`
	BatchReference string          `db:"batch_reference"`
	TransactionID  string          `db:"transaction_id"`
	AccountCode    string          `db:"account_code"`
	AccountType    AccountType     `db:"account_type"`
	Sequence       int             `db:"sequence"`
	DebitAmount    decimal.Decimal `db:"debit_amount"`
	CreditAmount   decimal.Decimal `db:"credit_amount"`
	CurrencyCode   string          `db:"currency_code"`
	BalanceAfter   decimal.Decimal `db:"balance_after"`
	Description    string          `db:"description"`
	CreatedAt      time.Time       `db:"created_at"`
	CreatedBy      string          `db:"created_by"`
}

// LedgerAccount represents a row in the ledger_accounts table (system-side
// accounts: cash, revenue, fees, clearing).
type LedgerAccount struct {
	AccountCode  string          `db:"account_code"`
	AccountType  AccountType     `db:"account_type"`
	CurrencyCode string          `db:"currency_code"`
	Balance      decimal.Decimal `db:"balance"`
	AuditFields
}
