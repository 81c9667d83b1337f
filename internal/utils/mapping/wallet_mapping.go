package mapping

import (
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	"github.com/nexabot/wallet_billing_core/internal/models"
)

// ToModelWallet converts a domain Wallet to a model Wallet
func ToModelWallet(d domain.Wallet) models.Wallet {
	return models.Wallet{
		WalletID:     d.WalletID,
		OwnerUserID:  d.OwnerUserID,
		TenantID:     d.TenantID,
		CurrencyCode: d.CurrencyCode,
		Balance:      d.Balance,
		Version:      d.Version,
		Status:       models.WalletStatus(d.Status),
		IsActive:     d.IsActive,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainWallet converts a model Wallet to a domain Wallet
func ToDomainWallet(m models.Wallet) domain.Wallet {
	return domain.Wallet{
		WalletID:     m.WalletID,
		OwnerUserID:  m.OwnerUserID,
		TenantID:     m.TenantID,
		CurrencyCode: m.CurrencyCode,
		Balance:      m.Balance,
		Version:      m.Version,
		Status:       domain.WalletStatus(m.Status),
		IsActive:     m.IsActive,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
