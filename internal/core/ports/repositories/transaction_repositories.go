package repositories

import (
	"context"
	"time"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionReader defines read operations for the transaction log.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction by its ID.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.WalletTransaction, error)

	// FindTransactionByReference retrieves a transaction by its idempotency reference.
	FindTransactionByReference(ctx context.Context, reference string) (*domain.WalletTransaction, error)

	// ListTransactionsByWalletID retrieves a token-paginated transaction history.
	ListTransactionsByWalletID(ctx context.Context, walletID string, limit int, nextToken *string) ([]domain.WalletTransaction, *string, error)
}

// TransactionWriter defines write operations for the transaction log.
type TransactionWriter interface {
	// CreatePending inserts a PENDING transaction row. Returns
	// apperrors.ErrDuplicate when the reference is already taken.
	CreatePending(ctx context.Context, txn domain.WalletTransaction) error

	// MarkFailed transitions a PENDING transaction to FAILED, recording the reason.
	MarkFailed(ctx context.Context, transactionID, reason, userID string, now time.Time) error
}

// EngineCommit is the single atomic unit of an engine execution: ledger
// batch append, wallet compare-and-swap deltas, billing balance adjustment
// and the transaction's terminal status, all in one database transaction.
type EngineCommit struct {
	// TransactionIDs to transition PENDING -> COMPLETED with BatchReference.
	TransactionIDs []string
	BatchReference string

	// Entries is the validated, balanced ledger batch.
	Entries []domain.LedgerEntry

	// WalletDeltas are applied via compare-and-swap in slice order; callers
	// order them by ascending wallet ID.
	WalletDeltas []WalletDelta

	// SystemDeltas adjust non-wallet ledger accounts, keyed by account code.
	SystemDeltas map[string]decimal.Decimal
	SystemTypes  map[string]domain.AccountType

	// BillingDelta adjusts the tenant's outstanding billing balance
	// (positive on debits, negative on credits). Zero means no change.
	BillingTenantID string
	BillingDelta    decimal.Decimal

	// RequireNotSuspended re-checks the tenant's suspension flag inside the
	// commit scope and aborts with apperrors.ErrSuspended if set.
	RequireNotSuspended bool

	// MarkReversedIDs transition those COMPLETED transactions to REVERSED
	// as part of the same commit (used by compensations).
	MarkReversedIDs []string

	CurrencyCode string
	UserID       string
	Now          time.Time
}

// WalletDelta is one wallet's signed balance change within an EngineCommit.
type WalletDelta struct {
	WalletID        string
	Delta           decimal.Decimal
	ExpectedVersion int64
}

// EngineCommitter executes an EngineCommit atomically. No partial state is
// ever observable: either every effect lands or none does.
type EngineCommitter interface {
	CommitExecution(ctx context.Context, commit EngineCommit) error
}

// TransactionRepositoryFacade combines all transaction log interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
	EngineCommitter
}
