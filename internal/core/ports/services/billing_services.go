package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	"github.com/nexabot/wallet_billing_core/internal/dto"
)

// BillingSvcFacade manages per-tenant credit terms and the credit
// evaluation step that drives suspension.
type BillingSvcFacade interface {
	// GetOrCreateBillingAccount provisions billing terms for a tenant on
	// first use; creation is idempotent on the tenant ID.
	GetOrCreateBillingAccount(ctx context.Context, tenantID string, req dto.CreateBillingAccountRequest, userID string) (*domain.BillingAccount, error)

	// GetBillingAccount retrieves the tenant's billing account.
	GetBillingAccount(ctx context.Context, tenantID string) (*domain.BillingAccount, error)

	// EvaluateCredit recomputes the over-limit condition for one tenant,
	// suspending or reactivating as needed. Safe to call after every debit
	// and from the periodic sweep.
	EvaluateCredit(ctx context.Context, tenantID, userID string) (*domain.BillingAccount, error)

	// EvaluateAllOverLimit sweeps accounts whose balance exceeds their
	// limit and suspends them. Returns the number suspended.
	EvaluateAllOverLimit(ctx context.Context, userID string) (int, error)

	// RecordExternalPayment applies a successful external charge reported
	// by the payment collaborator, reducing the outstanding balance and
	// reactivating the account if it drops back under the limit.
	RecordExternalPayment(ctx context.Context, tenantID string, amount decimal.Decimal, externalReference, userID string) (*domain.BillingAccount, error)

	// SuspendTenant suspends the billing account with the given reason.
	SuspendTenant(ctx context.Context, tenantID, reason, userID string, now time.Time) error
}
