package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of a ledger account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// System account code builders. One system account exists per concern and
// currency; wallet accounts use WalletAccountCode.
func CashAccountCode(currency string) string     { return "CASH:" + currency }
func RevenueAccountCode(currency string) string  { return "REVENUE:" + currency }
func FeeAccountCode(currency string) string      { return "FEES:" + currency }
func RewardAccountCode(currency string) string   { return "REWARDS:" + currency }
func AdjustAccountCode(currency string) string   { return "ADJUST:" + currency }
func TransferAccountCode(currency string) string { return "TRANSFER_CLEARING:" + currency }

// EntrySide distinguishes the two sides of a ledger entry. Used where a
// caller must state a direction explicitly, e.g. manual adjustments.
type EntrySide string

const (
	SideDebit  EntrySide = "DEBIT"
	SideCredit EntrySide = "CREDIT"
)

// LedgerEntry is one immutable line of a balanced batch. Exactly one of
// DebitAmount and CreditAmount is non-zero. Corrections are made by new
// reversing entries, never by mutation.
type LedgerEntry struct {
	EntryID        string          `json:"entryID"`        // Primary Key (UUID)
	BatchReference string          `json:"batchReference"` // Shared by all entries of one transaction
	TransactionID  string          `json:"transactionID"`  // Owning wallet transaction
	AccountCode    string          `json:"accountCode"`
	AccountType    AccountType     `json:"accountType"`
	Sequence       int             `json:"sequence"` // Position within the batch
	DebitAmount    decimal.Decimal `json:"debitAmount"`
	CreditAmount   decimal.Decimal `json:"creditAmount"`
	CurrencyCode   string          `json:"currencyCode"`
	BalanceAfter   decimal.Decimal `json:"balanceAfter"` // Account balance snapshot for audit
	Description    string          `json:"description"`
	CreatedAt      time.Time       `json:"createdAt"`
	CreatedBy      string          `json:"createdBy"`
}

// SignedAmount returns the entry's effect on its account balance following
// the usual convention: debits increase ASSET/EXPENSE accounts and decrease
// the rest; credits mirror that.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	net := e.DebitAmount.Sub(e.CreditAmount)
	switch e.AccountType {
	case Asset, Expense:
		return net
	default:
		return net.Neg()
	}
}

// LedgerAccount is a system-side account row (cash, fees, revenue, clearing).
// Wallet-side balances live on the wallets table instead.
type LedgerAccount struct {
	AccountCode  string          `json:"accountCode"` // Primary Key
	AccountType  AccountType     `json:"accountType"`
	CurrencyCode string          `json:"currencyCode"`
	Balance      decimal.Decimal `json:"balance"`
	AuditFields
}

// AccountSums carries the running debit/credit totals for one account code,
// used to reconcile cached balances against the journal.
type AccountSums struct {
	AccountCode string          `json:"accountCode"`
	DebitTotal  decimal.Decimal `json:"debitTotal"`
	CreditTotal decimal.Decimal `json:"creditTotal"`
	EntryCount  int64           `json:"entryCount"`
}
