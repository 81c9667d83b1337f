package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
)

// WalletReader defines read operations for wallet data.
type WalletReader interface {
	// FindWalletByID retrieves a wallet by its unique identifier.
	FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error)

	// FindWalletByOwner retrieves the wallet for an (owner, tenant, currency) triple.
	FindWalletByOwner(ctx context.Context, ownerUserID, tenantID, currencyCode string) (*domain.Wallet, error)

	// ListWalletsByTenant retrieves all wallets belonging to a tenant.
	ListWalletsByTenant(ctx context.Context, tenantID string) ([]domain.Wallet, error)
}

// WalletWriter defines write operations for wallet data.
type WalletWriter interface {
	// CreateWalletIdempotent inserts a wallet unless one already exists for
	// its (owner, tenant, currency) key, and returns the surviving row.
	CreateWalletIdempotent(ctx context.Context, wallet domain.Wallet) (*domain.Wallet, error)

	// SetWalletStatus updates the wallet's status (suspend/activate).
	SetWalletStatus(ctx context.Context, walletID string, status domain.WalletStatus, userID string, now time.Time) error

	// DeactivateWallet marks a wallet inactive. Wallets are never deleted.
	DeactivateWallet(ctx context.Context, walletID string, userID string, now time.Time) error
}

// WalletTransactionSupport defines wallet operations that run inside an
// open database transaction during an engine commit.
type WalletTransactionSupport interface {
	// ApplyDeltaInTx applies a signed balance delta via compare-and-swap on
	// the wallet's version. Returns apperrors.ErrConcurrency when the
	// expected version no longer matches.
	ApplyDeltaInTx(ctx context.Context, tx pgx.Tx, walletID string, delta decimal.Decimal, expectedVersion int64, userID string, now time.Time) (*domain.Wallet, error)
}

// WalletRepositoryFacade combines all wallet repository interfaces.
type WalletRepositoryFacade interface {
	WalletReader
	WalletWriter
	WalletTransactionSupport
}
