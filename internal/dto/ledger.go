package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
)

// LedgerEntryResponse defines the journal entry data returned by the API.
type LedgerEntryResponse struct {
	EntryID        string          `json:"entryID"`
	BatchReference string          `json:"batchReference"`
	TransactionID  string          `json:"transactionID"`
	AccountCode    string          `json:"accountCode"`
	AccountType    string          `json:"accountType"`
	Sequence       int             `json:"sequence"`
	DebitAmount    decimal.Decimal `json:"debitAmount"`
	CreditAmount   decimal.Decimal `json:"creditAmount"`
	CurrencyCode   string          `json:"currencyCode"`
	BalanceAfter   decimal.Decimal `json:"balanceAfter"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ListLedgerEntriesParams holds query parameters for journal listings.
type ListLedgerEntriesParams struct {
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Limit     int        `form:"limit"`
	NextToken *string    `form:"nextToken"`
}

// ListLedgerEntriesResponse is a page of journal entries.
type ListLedgerEntriesResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// ReconciliationResponse reports whether a wallet's cached balance matches
// the balance recomputed purely from its journal entries.
type ReconciliationResponse struct {
	WalletID       string          `json:"walletID"`
	AccountCode    string          `json:"accountCode"`
	CachedBalance  decimal.Decimal `json:"cachedBalance"`
	JournalBalance decimal.Decimal `json:"journalBalance"`
	Drift          decimal.Decimal `json:"drift"`
	InSync         bool            `json:"inSync"`
}

// ToLedgerEntryResponse maps a domain entry to its DTO.
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:        e.EntryID,
		BatchReference: e.BatchReference,
		TransactionID:  e.TransactionID,
		AccountCode:    e.AccountCode,
		AccountType:    string(e.AccountType),
		Sequence:       e.Sequence,
		DebitAmount:    e.DebitAmount,
		CreditAmount:   e.CreditAmount,
		CurrencyCode:   e.CurrencyCode,
		BalanceAfter:   e.BalanceAfter,
		Description:    e.Description,
		CreatedAt:      e.CreatedAt,
	}
}

// ToLedgerEntryResponses maps a slice of domain entries.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToLedgerEntryResponse(&entries[i])
	}
	return out
}
