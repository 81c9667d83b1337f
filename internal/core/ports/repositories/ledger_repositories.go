package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
)

// LedgerReader defines read operations over the append-only journal.
type LedgerReader interface {
	// FindEntriesByTransactionID retrieves the entries a transaction produced.
	FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)

	// FindEntriesByBatchReference retrieves all entries of one batch in
	// sequence order.
	FindEntriesByBatchReference(ctx context.Context, batchReference string) ([]domain.LedgerEntry, error)

	// ListEntriesByAccountCode retrieves a token-paginated list of entries
	// for an account code within an optional date range.
	ListEntriesByAccountCode(ctx context.Context, accountCode string, from, to *time.Time, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// SumsByAccountCode computes the running debit/credit totals for an
	// account code, independent of any cached balance projection.
	SumsByAccountCode(ctx context.Context, accountCode string) (*domain.AccountSums, error)
}

// LedgerTransactionSupport defines journal operations that run inside an
// open database transaction during an engine commit.
type LedgerTransactionSupport interface {
	// InsertEntriesInTx appends a batch of entries. The batch is only
	// observable once the surrounding transaction commits.
	InsertEntriesInTx(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error

	// LockSystemAccountsInTx selects the named system accounts FOR UPDATE,
	// creating missing ones, and returns them keyed by account code. Codes
	// are locked in ascending order to keep lock acquisition deadlock-free.
	LockSystemAccountsInTx(ctx context.Context, tx pgx.Tx, accounts map[string]domain.AccountType, currencyCode string) (map[string]domain.LedgerAccount, error)

	// UpdateSystemAccountBalancesInTx applies signed balance deltas to
	// previously locked system accounts.
	UpdateSystemAccountBalancesInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, userID string, now time.Time) error
}

// LedgerRepositoryFacade combines all journal repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerTransactionSupport
}
