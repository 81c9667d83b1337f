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

// uniqueViolationCode is the Postgres error code for unique constraint violations.
const uniqueViolationCode = "23505"

type PgxWalletRepository struct {
	BaseRepository
}

// newPgxWalletRepository creates a new repository for wallet data.
func newPgxWalletRepository(pool *pgxpool.Pool) portsrepo.WalletRepositoryFacade {
	return &PgxWalletRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.WalletRepositoryFacade = (*PgxWalletRepository)(nil)

const walletColumns = `wallet_id, owner_user_id, tenant_id, currency_code, balance, version, status, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var m models.Wallet
	err := row.Scan(
		&m.WalletID,
		&m.OwnerUserID,
		&m.TenantID,
		&m.CurrencyCode,
		&m.Balance,
		&m.Version,
		&m.Status,
		&m.IsActive,
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

// FindWalletByID retrieves a wallet by its unique identifier.
func (r *PgxWalletRepository) FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE wallet_id = $1;`

	m, err := scanWallet(r.Pool.QueryRow(ctx, query, walletID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find wallet by ID "+walletID, err)
	}

	wallet := mapping.ToDomainWallet(*m)
	return &wallet, nil
}

// FindWalletByOwner retrieves the wallet for an (owner, tenant, currency) triple.
func (r *PgxWalletRepository) FindWalletByOwner(ctx context.Context, ownerUserID, tenantID, currencyCode string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_user_id = $1 AND tenant_id = $2 AND currency_code = $3;`

	m, err := scanWallet(r.Pool.QueryRow(ctx, query, ownerUserID, tenantID, currencyCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find wallet by owner", err)
	}

	wallet := mapping.ToDomainWallet(*m)
	return &wallet, nil
}

// ListWalletsByTenant retrieves all wallets belonging to a tenant.
func (r *PgxWalletRepository) ListWalletsByTenant(ctx context.Context, tenantID string) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE tenant_id = $1 ORDER BY created_at;`

	rows, err := r.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list wallets for tenant "+tenantID, err)
	}
	defer rows.Close()

	wallets := []domain.Wallet{}
	for rows.Next() {
		m, err := scanWallet(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan wallet row", err)
		}
		wallets = append(wallets, mapping.ToDomainWallet(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading wallet rows", err)
	}
	return wallets, nil
}

// CreateWalletIdempotent inserts a wallet unless one already exists for its
// (owner, tenant, currency) key, and returns the surviving row.
func (r *PgxWalletRepository) CreateWalletIdempotent(ctx context.Context, wallet domain.Wallet) (*domain.Wallet, error) {
	m := mapping.ToModelWallet(wallet)
	query := `
		INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.WalletID,
		m.OwnerUserID,
		m.TenantID,
		m.CurrencyCode,
		m.Balance,
		m.Version,
		m.Status,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			// Lost the race: the concurrently created wallet wins.
			return r.FindWalletByOwner(ctx, wallet.OwnerUserID, wallet.TenantID, wallet.CurrencyCode)
		}
		return nil, apperrors.NewAppError(500, "failed to insert wallet "+m.WalletID, err)
	}
	return &wallet, nil
}

// SetWalletStatus updates the wallet's status (suspend/activate).
func (r *PgxWalletRepository) SetWalletStatus(ctx context.Context, walletID string, status domain.WalletStatus, userID string, now time.Time) error {
	query := `
		UPDATE wallets
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE wallet_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, walletID, string(status), now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update wallet status for "+walletID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeactivateWallet marks a wallet inactive. Wallets are never deleted.
func (r *PgxWalletRepository) DeactivateWallet(ctx context.Context, walletID string, userID string, now time.Time) error {
	query := `
		UPDATE wallets
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE wallet_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, walletID, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to deactivate wallet "+walletID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ApplyDeltaInTx applies a signed balance delta via compare-and-swap on the
// wallet's version. Zero rows affected means the version moved underneath
// us, reported as apperrors.ErrConcurrency.
func (r *PgxWalletRepository) ApplyDeltaInTx(ctx context.Context, tx pgx.Tx, walletID string, delta decimal.Decimal, expectedVersion int64, userID string, now time.Time) (*domain.Wallet, error) {
	query := `
		UPDATE wallets
		SET balance = balance + $2, version = version + 1, last_updated_at = $4, last_updated_by = $5
		WHERE wallet_id = $1 AND version = $3
		RETURNING ` + walletColumns + `;
	`
	m, err := scanWallet(tx.QueryRow(ctx, query, walletID, delta, expectedVersion, now, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConcurrency
		}
		return nil, apperrors.NewAppError(500, "failed to apply balance delta to wallet "+walletID, err)
	}

	wallet := mapping.ToDomainWallet(*m)
	return &wallet, nil
}
