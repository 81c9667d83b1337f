package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
)

// BillingAccountReader defines read operations for billing accounts.
type BillingAccountReader interface {
	// FindBillingAccountByTenantID retrieves the tenant's billing account.
	FindBillingAccountByTenantID(ctx context.Context, tenantID string) (*domain.BillingAccount, error)

	// ListAccountsOverLimit retrieves active, unsuspended accounts whose
	// balance exceeds their credit limit (candidates for suspension).
	ListAccountsOverLimit(ctx context.Context, limit int) ([]domain.BillingAccount, error)
}

// BillingAccountWriter defines write operations for billing accounts.
type BillingAccountWriter interface {
	// CreateBillingAccountIdempotent inserts a billing account unless the
	// tenant already has one, and returns the surviving row.
	CreateBillingAccountIdempotent(ctx context.Context, account domain.BillingAccount) (*domain.BillingAccount, error)

	// SuspendBillingAccount sets suspendedAt and the reason.
	SuspendBillingAccount(ctx context.Context, tenantID, reason, userID string, now time.Time) error

	// ReactivateBillingAccount clears suspendedAt and the reason.
	ReactivateBillingAccount(ctx context.Context, tenantID, userID string, now time.Time) error

	// ApplyBillingDelta adjusts the tenant's outstanding balance outside an
	// engine commit (external payments reported by the collaborator).
	ApplyBillingDelta(ctx context.Context, tenantID string, delta decimal.Decimal, userID string, now time.Time) error
}

// BillingTransactionSupport defines billing operations that run inside an
// open database transaction during an engine commit.
type BillingTransactionSupport interface {
	// FindBillingAccountForShareInTx reads the tenant's billing account
	// under a share lock so suspension cannot land between check and commit.
	FindBillingAccountForShareInTx(ctx context.Context, tx pgx.Tx, tenantID string) (*domain.BillingAccount, error)

	// ApplyBillingDeltaInTx adjusts the tenant's outstanding balance.
	ApplyBillingDeltaInTx(ctx context.Context, tx pgx.Tx, tenantID string, delta decimal.Decimal, userID string, now time.Time) error
}

// BillingRepositoryFacade combines all billing account interfaces.
type BillingRepositoryFacade interface {
	BillingAccountReader
	BillingAccountWriter
	BillingTransactionSupport
}
