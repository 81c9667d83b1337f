package mapping

import (
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	"github.com/nexabot/wallet_billing_core/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry to its model
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:        d.EntryID,
		BatchReference: d.BatchReference,
		TransactionID:  d.TransactionID,
		AccountCode:    d.AccountCode,
		AccountType:    models.AccountType(d.AccountType),
		Sequence:       d.Sequence,
		DebitAmount:    d.DebitAmount,
		CreditAmount:   d.CreditAmount,
		CurrencyCode:   d.CurrencyCode,
		BalanceAfter:   d.BalanceAfter,
		Description:    d.Description,
		CreatedAt:      d.CreatedAt,
		CreatedBy:      d.CreatedBy,
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to its domain form
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:        m.EntryID,
		BatchReference: m.BatchReference,
		TransactionID:  m.TransactionID,
		AccountCode:    m.AccountCode,
		AccountType:    domain.AccountType(m.AccountType),
		Sequence:       m.Sequence,
		DebitAmount:    m.DebitAmount,
		CreditAmount:   m.CreditAmount,
		CurrencyCode:   m.CurrencyCode,
		BalanceAfter:   m.BalanceAfter,
		Description:    m.Description,
		CreatedAt:      m.CreatedAt,
		CreatedBy:      m.CreatedBy,
	}
}

// ToDomainLedgerEntrySlice converts a slice of model entries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}

// ToDomainLedgerAccount converts a model LedgerAccount to its domain form
func ToDomainLedgerAccount(m models.LedgerAccount) domain.LedgerAccount {
	return domain.LedgerAccount{
		AccountCode:  m.AccountCode,
		AccountType:  domain.AccountType(m.AccountType),
		CurrencyCode: m.CurrencyCode,
		Balance:      m.Balance,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
