package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
)

// CreateBillingAccountRequest provisions billing terms for a tenant.
type CreateBillingAccountRequest struct {
	BillingType  string           `json:"billingType" binding:"required,oneof=PREPAID POSTPAID SUBSCRIPTION USAGE_BASED"`
	CurrencyCode string           `json:"currencyCode" binding:"required,currencycode"`
	CreditLimit  *decimal.Decimal `json:"creditLimit"`
	AutoPayment  bool             `json:"autoPayment"`
}

// ExternalPaymentRequest reports a successful external charge captured by
// the payment collaborator; it reduces the tenant's outstanding balance.
type ExternalPaymentRequest struct {
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	ExternalReference string          `json:"externalReference" binding:"required"`
}

// BillingAccountResponse defines the billing account data returned by the API.
type BillingAccountResponse struct {
	BillingAccountID string           `json:"billingAccountID"`
	TenantID         string           `json:"tenantID"`
	AccountNumber    string           `json:"accountNumber"`
	BillingType      string           `json:"billingType"`
	CurrencyCode     string           `json:"currencyCode"`
	CreditLimit      *decimal.Decimal `json:"creditLimit,omitempty"`
	CurrentBalance   decimal.Decimal  `json:"currentBalance"`
	AutoPayment      bool             `json:"autoPayment"`
	IsActive         bool             `json:"isActive"`
	SuspendedAt      *time.Time       `json:"suspendedAt,omitempty"`
	SuspensionReason *string          `json:"suspensionReason,omitempty"`
}

// ToBillingAccountResponse maps a domain billing account to its DTO.
func ToBillingAccountResponse(a *domain.BillingAccount) BillingAccountResponse {
	return BillingAccountResponse{
		BillingAccountID: a.BillingAccountID,
		TenantID:         a.TenantID,
		AccountNumber:    a.AccountNumber,
		BillingType:      string(a.BillingType),
		CurrencyCode:     a.CurrencyCode,
		CreditLimit:      a.CreditLimit,
		CurrentBalance:   a.CurrentBalance,
		AutoPayment:      a.AutoPayment,
		IsActive:         a.IsActive,
		SuspendedAt:      a.SuspendedAt,
		SuspensionReason: a.SuspensionReason,
	}
}
