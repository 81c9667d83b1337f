package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingType determines how much debt a tenant's wallets may carry.
type BillingType string

// BillingAccount represents a row in the billing_accounts table.
type BillingAccount struct {
	BillingAccountID string           `db:"billing_account_id"`
	TenantID         string           `db:"tenant_id"`
	AccountNumber    string           `db:"account_number"`
	BillingType      BillingType      `db:"billing_type"`
	CurrencyCode     string           `db:"currency_code"`
	CreditLimit      *decimal.Decimal `db:"credit_limit"`
	CurrentBalance   decimal.Decimal  `db:"current_balance"`
	AutoPayment      bool             `db:"auto_payment"`
	IsActive         bool             `db:"is_active"`
	SuspendedAt      *time.Time       `db:"suspended_at"`
	SuspensionReason *string          `db:"suspension_reason"`
	AuditFields
}
