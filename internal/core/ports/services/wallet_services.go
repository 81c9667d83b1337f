package services

import (
	"context"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	"github.com/nexabot/wallet_billing_core/internal/dto"
)

// WalletSvcFacade exposes wallet lifecycle and balance reads. All balance
// mutation goes through the engine (EngineSvcFacade), never through here.
type WalletSvcFacade interface {
	// GetOrCreateWallet lazily creates the wallet for the (owner, tenant,
	// currency) triple; creation is idempotent on that key.
	GetOrCreateWallet(ctx context.Context, ownerUserID, tenantID, currencyCode, userID string) (*domain.Wallet, error)

	// GetWallet retrieves a wallet, scoped to the requesting tenant.
	GetWallet(ctx context.Context, tenantID, walletID string) (*domain.Wallet, error)

	// GetBalance retrieves the slim balance view.
	GetBalance(ctx context.Context, tenantID, walletID string) (*dto.BalanceResponse, error)

	// SuspendWallet and ActivateWallet are administrative operations; they
	// are not reachable from the normal transaction flow.
	SuspendWallet(ctx context.Context, tenantID, walletID, userID string) error
	ActivateWallet(ctx context.Context, tenantID, walletID, userID string) error
}

// LedgerSvcFacade exposes journal reads and reconciliation.
type LedgerSvcFacade interface {
	// GetEntriesByTransactionID retrieves the batch a transaction produced.
	GetEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)

	// ListEntriesByAccountCode retrieves a token-paginated journal slice.
	ListEntriesByAccountCode(ctx context.Context, accountCode string, params dto.ListLedgerEntriesParams) (*dto.ListLedgerEntriesResponse, error)

	// ReconcileWallet recomputes a wallet balance purely from the journal
	// and compares it with the cached projection.
	ReconcileWallet(ctx context.Context, tenantID, walletID string) (*dto.ReconciliationResponse, error)
}
