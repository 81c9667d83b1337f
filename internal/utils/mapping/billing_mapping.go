package mapping

import (
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	"github.com/nexabot/wallet_billing_core/internal/models"
)

// ToModelBillingAccount converts a domain BillingAccount to its model
func ToModelBillingAccount(d domain.BillingAccount) models.BillingAccount {
	return models.BillingAccount{
		BillingAccountID: d.BillingAccountID,
		TenantID:         d.TenantID,
		AccountNumber:    d.AccountNumber,
		BillingType:      models.BillingType(d.BillingType),
		CurrencyCode:     d.CurrencyCode,
		CreditLimit:      d.CreditLimit,
		CurrentBalance:   d.CurrentBalance,
		AutoPayment:      d.AutoPayment,
		IsActive:         d.IsActive,
		SuspendedAt:      d.SuspendedAt,
		SuspensionReason: d.SuspensionReason,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBillingAccount converts a model BillingAccount to its domain form
func ToDomainBillingAccount(m models.BillingAccount) domain.BillingAccount {
	return domain.BillingAccount{
		BillingAccountID: m.BillingAccountID,
		TenantID:         m.TenantID,
		AccountNumber:    m.AccountNumber,
		BillingType:      domain.BillingType(m.BillingType),
		CurrencyCode:     m.CurrencyCode,
		CreditLimit:      m.CreditLimit,
		CurrentBalance:   m.CurrentBalance,
		AutoPayment:      m.AutoPayment,
		IsActive:         m.IsActive,
		SuspendedAt:      m.SuspendedAt,
		SuspensionReason: m.SuspensionReason,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
