package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/apperrors"
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	portsrepo "github.com/nexabot/wallet_billing_core/internal/core/ports/repositories"
	"github.com/nexabot/wallet_billing_core/internal/models"
	"github.com/nexabot/wallet_billing_core/internal/utils/mapping"
)

type PgxBillingRepository struct {
	BaseRepository
}

// newPgxBillingRepository creates a new repository for billing accounts.
func newPgxBillingRepository(pool *pgxpool.Pool) portsrepo.BillingRepositoryFacade {
	return &PgxBillingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BillingRepositoryFacade = (*PgxBillingRepository)(nil)

const billingColumns = `billing_account_id, tenant_id, account_number, billing_type, currency_code, credit_limit, current_balance, auto_payment, is_active, suspended_at, suspension_reason, created_at, created_by, last_updated_at, last_updated_by`

func scanBillingAccount(row pgx.Row) (*models.BillingAccount, error) {
	var m models.BillingAccount
	err := row.Scan(
		&m.BillingAccountID,
		&m.TenantID,
		&m.AccountNumber,
		&m.BillingType,
		&m.CurrencyCode,
		&m.CreditLimit,
		&m.CurrentBalance,
		&m.AutoPayment,
		&m.IsActive,
		&m.SuspendedAt,
		&m.SuspensionReason,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindBillingAccountByTenantID retrieves the tenant's billing account.
func (r *PgxBillingRepository) FindBillingAccountByTenantID(ctx context.Context, tenantID string) (*domain.BillingAccount, error) {
	query := `SELECT ` + billingColumns + ` FROM billing_accounts WHERE tenant_id = $1;`

	m, err := scanBillingAccount(r.Pool.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find billing account for tenant "+tenantID, err)
	}

	account := mapping.ToDomainBillingAccount(*m)
	return &account, nil
}

// ListAccountsOverLimit retrieves active, unsuspended accounts whose balance
// exceeds their credit limit.
func (r *PgxBillingRepository) ListAccountsOverLimit(ctx context.Context, limit int) ([]domain.BillingAccount, error) {
	query := `
		SELECT ` + billingColumns + `
		FROM billing_accounts
		WHERE is_active = TRUE
		  AND suspended_at IS NULL
		  AND credit_limit IS NOT NULL
		  AND current_balance > credit_limit
		ORDER BY current_balance - credit_limit DESC
		LIMIT $1;
	`
	rows, err := r.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query over-limit billing accounts", err)
	}
	defer rows.Close()

	accounts := []domain.BillingAccount{}
	for rows.Next() {
		m, err := scanBillingAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan billing account row", err)
		}
		accounts = append(accounts, mapping.ToDomainBillingAccount(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading billing account rows", err)
	}
	return accounts, nil
}

// CreateBillingAccountIdempotent inserts a billing account unless the tenant
// already has one, and returns the surviving row.
func (r *PgxBillingRepository) CreateBillingAccountIdempotent(ctx context.Context, account domain.BillingAccount) (*domain.BillingAccount, error) {
	m := mapping.ToModelBillingAccount(account)
	query := `
		INSERT INTO billing_accounts (` + billingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.BillingAccountID,
		m.TenantID,
		m.AccountNumber,
		m.BillingType,
		m.CurrencyCode,
		m.CreditLimit,
		m.CurrentBalance,
		m.AutoPayment,
		m.IsActive,
		m.SuspendedAt,
		m.SuspensionReason,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return r.FindBillingAccountByTenantID(ctx, account.TenantID)
		}
		return nil, apperrors.NewAppError(500, "failed to insert billing account for tenant "+m.TenantID, err)
	}
	return &account, nil
}

// SuspendBillingAccount sets suspendedAt and the reason.
func (r *PgxBillingRepository) SuspendBillingAccount(ctx context.Context, tenantID, reason, userID string, now time.Time) error {
	query := `
		UPDATE billing_accounts
		SET suspended_at = $2, suspension_reason = $3, last_updated_at = $4, last_updated_by = $5
		WHERE tenant_id = $1 AND suspended_at IS NULL;
	`
	_, err := r.Pool.Exec(ctx, query, tenantID, now, reason, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to suspend billing account for tenant "+tenantID, err)
	}
	return nil
}

// ReactivateBillingAccount clears suspendedAt and the reason.
func (r *PgxBillingRepository) ReactivateBillingAccount(ctx context.Context, tenantID, userID string, now time.Time) error {
	query := `
		UPDATE billing_accounts
		SET suspended_at = NULL, suspension_reason = NULL, last_updated_at = $2, last_updated_by = $3
		WHERE tenant_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, tenantID, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to reactivate billing account for tenant "+tenantID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ApplyBillingDelta adjusts the tenant's outstanding balance outside an
// engine commit (external payments).
func (r *PgxBillingRepository) ApplyBillingDelta(ctx context.Context, tenantID string, delta decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE billing_accounts
		SET current_balance = current_balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE tenant_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, tenantID, delta, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to apply billing delta for tenant "+tenantID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindBillingAccountForShareInTx reads the tenant's billing account under a
// share lock so suspension cannot land between check and commit.
func (r *PgxBillingRepository) FindBillingAccountForShareInTx(ctx context.Context, tx pgx.Tx, tenantID string) (*domain.BillingAccount, error) {
	query := `SELECT ` + billingColumns + ` FROM billing_accounts WHERE tenant_id = $1 FOR SHARE;`

	m, err := scanBillingAccount(tx.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to lock billing account for tenant "+tenantID, err)
	}

	account := mapping.ToDomainBillingAccount(*m)
	return &account, nil
}

// ApplyBillingDeltaInTx adjusts the tenant's outstanding balance inside an
// open engine commit.
func (r *PgxBillingRepository) ApplyBillingDeltaInTx(ctx context.Context, tx pgx.Tx, tenantID string, delta decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE billing_accounts
		SET current_balance = current_balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE tenant_id = $1;
	`
	_, err := tx.Exec(ctx, query, tenantID, delta, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to apply billing delta for tenant "+tenantID, err)
	}
	return nil
}
