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
	"github.com/nexabot/wallet_billing_core/internal/utils/pagination"
)

type PgxTransactionRepository struct {
	BaseRepository
	walletRepo  portsrepo.WalletTransactionSupport
	ledgerRepo  portsrepo.LedgerTransactionSupport
	billingRepo portsrepo.BillingTransactionSupport
}

// newPgxTransactionRepository creates the transaction log repository. The
// injected tx-support interfaces let CommitExecution touch wallets, the
// journal and billing inside one database transaction.
func newPgxTransactionRepository(
	pool *pgxpool.Pool,
	walletRepo portsrepo.WalletTransactionSupport,
	ledgerRepo portsrepo.LedgerTransactionSupport,
	billingRepo portsrepo.BillingTransactionSupport,
) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
		walletRepo:     walletRepo,
		ledgerRepo:     ledgerRepo,
		billingRepo:    billingRepo,
	}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

const transactionColumns = `transaction_id, transaction_reference, wallet_id, counterparty_wallet_id, transaction_type, amount, currency_code, status, ledger_batch_ref, external_reference, description, metadata, failure_reason, reversal_of_id, reversed_by_id, created_at, created_by, last_updated_at, last_updated_by`

func scanTransaction(row pgx.Row) (*models.WalletTransaction, error) {
	var m models.WalletTransaction
	err := row.Scan(
		&m.TransactionID,
		&m.TransactionReference,
		&m.WalletID,
		&m.CounterpartyWalletID,
		&m.Type,
		&m.Amount,
		&m.CurrencyCode,
		&m.Status,
		&m.LedgerBatchRef,
		&m.ExternalReference,
		&m.Description,
		&m.Metadata,
		&m.FailureReason,
		&m.ReversalOfID,
		&m.ReversedByID,
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

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.WalletTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE transaction_id = $1;`

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction by ID "+transactionID, err)
	}

	txn := mapping.ToDomainTransaction(*m)
	return &txn, nil
}

// FindTransactionByReference retrieves a transaction by its idempotency reference.
func (r *PgxTransactionRepository) FindTransactionByReference(ctx context.Context, reference string) (*domain.WalletTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE transaction_reference = $1;`

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction by reference", err)
	}

	txn := mapping.ToDomainTransaction(*m)
	return &txn, nil
}

// ListTransactionsByWalletID retrieves a token-paginated transaction history,
// newest first.
func (r *PgxTransactionRepository) ListTransactionsByWalletID(ctx context.Context, walletID string, limit int, nextToken *string) ([]domain.WalletTransaction, *string, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE (wallet_id = $1 OR counterparty_wallet_id = $1)`
	args := []any{walletID}

	if nextToken != nil && *nextToken != "" {
		tokenTime, tokenID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid pagination token", err)
		}
		args = append(args, tokenTime, tokenID)
		query += ` AND (created_at, transaction_id) < ($2, $3)`
	}

	args = append(args, limit+1)
	query += ` ORDER BY created_at DESC, transaction_id DESC LIMIT $` + itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions for wallet "+walletID, err)
	}
	defer rows.Close()

	txns := []models.WalletTransaction{}
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		txns = append(txns, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed reading transaction rows", err)
	}

	var token *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		t := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		token = &t
	}
	return mapping.ToDomainTransactionSlice(txns), token, nil
}

// CreatePending inserts a PENDING transaction row. A unique violation on the
// reference maps to apperrors.ErrDuplicate.
func (r *PgxTransactionRepository) CreatePending(ctx context.Context, txn domain.WalletTransaction) error {
	m := mapping.ToModelTransaction(txn)
	query := `
		INSERT INTO wallet_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.TransactionID,
		m.TransactionReference,
		m.WalletID,
		m.CounterpartyWalletID,
		m.Type,
		m.Amount,
		m.CurrencyCode,
		m.Status,
		m.LedgerBatchRef,
		m.ExternalReference,
		m.Description,
		m.Metadata,
		m.FailureReason,
		m.ReversalOfID,
		m.ReversedByID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert transaction "+m.TransactionID, err)
	}
	return nil
}

// MarkFailed transitions a PENDING transaction to FAILED, recording the reason.
func (r *PgxTransactionRepository) MarkFailed(ctx context.Context, transactionID, reason, userID string, now time.Time) error {
	query := `
		UPDATE wallet_transactions
		SET status = 'FAILED', failure_reason = $2, last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = $1 AND status = 'PENDING';
	`
	tag, err := r.Pool.Exec(ctx, query, transactionID, reason, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark transaction FAILED "+transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// CommitExecution applies one engine execution atomically: suspension
// re-check, wallet compare-and-swap deltas, system account updates, ledger
// batch append with balance snapshots, billing adjustment and the
// transaction status transitions, all inside a single database transaction.
func (r *PgxTransactionRepository) CommitExecution(ctx context.Context, commit portsrepo.EngineCommit) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// Balance snapshots per entry are computed from the balances as they
	// stand inside this transaction, keyed by account code.
	runningBalances := make(map[string]decimal.Decimal)

	// 1. Suspension re-check under a share lock, so a concurrent suspension
	// cannot land between the engine's check and this commit.
	if commit.RequireNotSuspended || !commit.BillingDelta.IsZero() {
		account, err := r.billingRepo.FindBillingAccountForShareInTx(ctx, tx, commit.BillingTenantID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if account != nil && commit.RequireNotSuspended && account.IsSuspended() {
			return apperrors.ErrSuspended
		}
	}

	// 2. Wallet deltas via compare-and-swap, in the caller's (ascending
	// wallet ID) order.
	for _, wd := range commit.WalletDeltas {
		updated, err := r.walletRepo.ApplyDeltaInTx(ctx, tx, wd.WalletID, wd.Delta, wd.ExpectedVersion, commit.UserID, commit.Now)
		if err != nil {
			return err
		}
		// Running balance starts at the pre-delta value; entries re-apply
		// their own effect below.
		runningBalances[updated.AccountCode()] = updated.Balance.Sub(wd.Delta)
	}

	// 3. Lock system accounts in ascending code order and seed their
	// running balances.
	if len(commit.SystemTypes) > 0 {
		locked, err := r.ledgerRepo.LockSystemAccountsInTx(ctx, tx, commit.SystemTypes, commit.CurrencyCode)
		if err != nil {
			return err
		}
		for code, account := range locked {
			runningBalances[code] = account.Balance
		}
	}

	// 4. Compute per-entry balance snapshots and append the batch.
	entries := make([]domain.LedgerEntry, len(commit.Entries))
	copy(entries, commit.Entries)
	for i := range entries {
		current, ok := runningBalances[entries[i].AccountCode]
		if !ok {
			return apperrors.NewAppError(500, "ledger entry references unlocked account "+entries[i].AccountCode, nil)
		}
		current = current.Add(entries[i].SignedAmount())
		runningBalances[entries[i].AccountCode] = current
		entries[i].BalanceAfter = current
	}
	if err := r.ledgerRepo.InsertEntriesInTx(ctx, tx, entries); err != nil {
		return err
	}

	// 5. System account balances.
	if len(commit.SystemDeltas) > 0 {
		if err := r.ledgerRepo.UpdateSystemAccountBalancesInTx(ctx, tx, commit.SystemDeltas, commit.UserID, commit.Now); err != nil {
			return err
		}
	}

	// 6. Billing outstanding balance.
	if !commit.BillingDelta.IsZero() {
		if err := r.billingRepo.ApplyBillingDeltaInTx(ctx, tx, commit.BillingTenantID, commit.BillingDelta, commit.UserID, commit.Now); err != nil {
			return err
		}
	}

	// 7. PENDING -> COMPLETED for the executing transaction(s).
	completeQuery := `
		UPDATE wallet_transactions
		SET status = 'COMPLETED', ledger_batch_ref = $2, last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = ANY($1) AND status = 'PENDING';
	`
	tag, err := tx.Exec(ctx, completeQuery, commit.TransactionIDs, commit.BatchReference, commit.Now, commit.UserID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to complete transactions for batch "+commit.BatchReference, err)
	}
	if int(tag.RowsAffected()) != len(commit.TransactionIDs) {
		// A row left PENDING concurrently; the caller re-resolves and retries.
		return apperrors.ErrConcurrency
	}

	// 8. COMPLETED -> REVERSED for originals of a compensation.
	if len(commit.MarkReversedIDs) > 0 {
		reverseQuery := `
			UPDATE wallet_transactions
			SET status = 'REVERSED', reversed_by_id = $2, last_updated_at = $3, last_updated_by = $4
			WHERE transaction_id = ANY($1) AND status = 'COMPLETED';
		`
		tag, err := tx.Exec(ctx, reverseQuery, commit.MarkReversedIDs, commit.TransactionIDs[0], commit.Now, commit.UserID)
		if err != nil {
			return apperrors.NewAppError(500, "failed to mark transactions REVERSED", err)
		}
		if int(tag.RowsAffected()) != len(commit.MarkReversedIDs) {
			// Someone else reversed (or otherwise moved) the original first.
			return apperrors.ErrConflict
		}
	}

	return r.Commit(ctx, tx)
}
