package mapping

import (
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	"github.com/nexabot/wallet_billing_core/internal/models"
)

// ToModelTransaction converts a domain WalletTransaction to its model
func ToModelTransaction(d domain.WalletTransaction) models.WalletTransaction {
	return models.WalletTransaction{
		TransactionID:        d.TransactionID,
		TransactionReference: d.TransactionReference,
		WalletID:             d.WalletID,
		CounterpartyWalletID: d.CounterpartyWalletID,
		Type:                 models.TransactionType(d.Type),
		Amount:               d.Amount,
		CurrencyCode:         d.CurrencyCode,
		Status:               models.TransactionStatus(d.Status),
		LedgerBatchRef:       d.LedgerBatchRef,
		ExternalReference:    d.ExternalReference,
		Description:          d.Description,
		Metadata:             d.Metadata,
		FailureReason:        d.FailureReason,
		ReversalOfID:         d.ReversalOfID,
		ReversedByID:         d.ReversedByID,
		AuditFields:          ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model WalletTransaction to its domain form
func ToDomainTransaction(m models.WalletTransaction) domain.WalletTransaction {
	return domain.WalletTransaction{
		TransactionID:        m.TransactionID,
		TransactionReference: m.TransactionReference,
		WalletID:             m.WalletID,
		CounterpartyWalletID: m.CounterpartyWalletID,
		Type:                 domain.TransactionType(m.Type),
		Amount:               m.Amount,
		CurrencyCode:         m.CurrencyCode,
		Status:               domain.TransactionStatus(m.Status),
		LedgerBatchRef:       m.LedgerBatchRef,
		ExternalReference:    m.ExternalReference,
		Description:          m.Description,
		Metadata:             m.Metadata,
		FailureReason:        m.FailureReason,
		ReversalOfID:         m.ReversalOfID,
		ReversedByID:         m.ReversedByID,
		AuditFields:          ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactionSlice converts a slice of model transactions
func ToDomainTransactionSlice(ms []models.WalletTransaction) []domain.WalletTransaction {
	ds := make([]domain.WalletTransaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}
