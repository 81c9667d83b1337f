package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingType determines how much debt a tenant's wallets may carry.
type BillingType string

const (
	BillingPrepaid      BillingType = "PREPAID"
	BillingPostpaid     BillingType = "POSTPAID"
	BillingSubscription BillingType = "SUBSCRIPTION"
	BillingUsageBased   BillingType = "USAGE_BASED"
)

// AllowsNegativeBalance reports whether wallets under this billing type may
// go below zero, up to the account's credit limit. PREPAID wallets may not.
func (t BillingType) AllowsNegativeBalance() bool {
	return t != BillingPrepaid
}

// BillingAccount holds a tenant's credit terms. One exists per tenant.
// CurrentBalance is the tenant's outstanding debt (positive means owed);
// a nil CreditLimit means unlimited credit. Suspension is only ever set by
// the credit evaluation step, never by direct mutation.
type BillingAccount struct {
	BillingAccountID string           `json:"billingAccountID"` // Primary Key (UUID)
	TenantID         string           `json:"tenantID"`         // Unique per tenant
	AccountNumber    string           `json:"accountNumber"`    // Unique human-facing number
	BillingType      BillingType      `json:"billingType"`
	CurrencyCode     string           `json:"currencyCode"`
	CreditLimit      *decimal.Decimal `json:"creditLimit,omitempty"` // nil => unlimited
	CurrentBalance   decimal.Decimal  `json:"currentBalance"`
	AutoPayment      bool             `json:"autoPayment"`
	IsActive         bool             `json:"isActive"`
	SuspendedAt      *time.Time       `json:"suspendedAt,omitempty"`
	SuspensionReason *string          `json:"suspensionReason,omitempty"`
	AuditFields
}

// IsSuspended reports whether the account is currently suspended.
func (a BillingAccount) IsSuspended() bool {
	return a.SuspendedAt != nil
}

// OverCreditLimit reports whether the outstanding balance exceeds the
// configured credit limit. Accounts without a limit are never over it.
func (a BillingAccount) OverCreditLimit() bool {
	if a.CreditLimit == nil {
		return false
	}
	return a.CurrentBalance.GreaterThan(*a.CreditLimit)
}
