package pgsql

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/apperrors"
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	portsrepo "github.com/nexabot/wallet_billing_core/internal/core/ports/repositories"
	"github.com/nexabot/wallet_billing_core/internal/models"
	"github.com/nexabot/wallet_billing_core/internal/utils/mapping"
	"github.com/nexabot/wallet_billing_core/internal/utils/pagination"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for the append-only journal.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

const ledgerEntryColumns = `entry_id, batch_reference, transaction_id, account_code, account_type, sequence, debit_amount, credit_amount, currency_code, balance_after, description, created_at, created_by`

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID,
		&m.BatchReference,
		&m.TransactionID,
		&m.AccountCode,
		&m.AccountType,
		&m.Sequence,
		&m.DebitAmount,
		&m.CreditAmount,
		&m.CurrencyCode,
		&m.BalanceAfter,
		&m.Description,
		&m.CreatedAt,
		&m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgxLedgerRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger entries", err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		m, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger entry row", err)
		}
		entries = append(entries, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading ledger entry rows", err)
	}
	return mapping.ToDomainLedgerEntrySlice(entries), nil
}

// FindEntriesByTransactionID retrieves the entries a transaction produced.
func (r *PgxLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE transaction_id = $1 ORDER BY sequence;`
	return r.queryEntries(ctx, query, transactionID)
}

// FindEntriesByBatchReference retrieves all entries of one batch in sequence order.
func (r *PgxLedgerRepository) FindEntriesByBatchReference(ctx context.Context, batchReference string) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE batch_reference = $1 ORDER BY sequence;`
	entries, err := r.queryEntries(ctx, query, batchReference)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return entries, nil
}

// ListEntriesByAccountCode retrieves a token-paginated list of entries for an
// account code within an optional date range, newest first.
func (r *PgxLedgerRepository) ListEntriesByAccountCode(ctx context.Context, accountCode string, from, to *time.Time, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE account_code = $1`
	args := []any{accountCode}

	if from != nil {
		args = append(args, *from)
		query += ` AND created_at >= $` + itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += ` AND created_at <= $` + itoa(len(args))
	}
	if nextToken != nil && *nextToken != "" {
		tokenTime, tokenID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid pagination token", err)
		}
		args = append(args, tokenTime)
		tsIdx := len(args)
		args = append(args, tokenID)
		idIdx := len(args)
		query += ` AND (created_at, entry_id) < ($` + itoa(tsIdx) + `, $` + itoa(idIdx) + `)`
	}

	// Fetch one extra row to detect whether another page exists.
	args = append(args, limit+1)
	query += ` ORDER BY created_at DESC, entry_id DESC LIMIT $` + itoa(len(args)) + `;`

	entries, err := r.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		t := pagination.EncodeToken(last.CreatedAt, last.EntryID)
		token = &t
	}
	return entries, token, nil
}

// SumsByAccountCode computes the running debit/credit totals for an account
// code, independent of any cached balance projection.
func (r *PgxLedgerRepository) SumsByAccountCode(ctx context.Context, accountCode string) (*domain.AccountSums, error) {
	query := `
		SELECT COALESCE(SUM(debit_amount), 0), COALESCE(SUM(credit_amount), 0), COUNT(*)
		FROM ledger_entries
		WHERE account_code = $1;
	`
	sums := domain.AccountSums{AccountCode: accountCode}
	err := r.Pool.QueryRow(ctx, query, accountCode).Scan(&sums.DebitTotal, &sums.CreditTotal, &sums.EntryCount)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to compute sums for account "+accountCode, err)
	}
	return &sums, nil
}

// InsertEntriesInTx appends a batch of entries inside an open transaction.
func (r *PgxLedgerRepository) InsertEntriesInTx(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO ledger_entries (` + ledgerEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	for _, e := range entries {
		m := mapping.ToModelLedgerEntry(e)
		batch.Queue(query,
			m.EntryID,
			m.BatchReference,
			m.TransactionID,
			m.AccountCode,
			m.AccountType,
			m.Sequence,
			m.DebitAmount,
			m.CreditAmount,
			m.CurrencyCode,
			m.BalanceAfter,
			m.Description,
			m.CreatedAt,
			m.CreatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger entry batch", err)
	}
	return nil
}

// LockSystemAccountsInTx selects the named system accounts FOR UPDATE,
// creating missing ones first. Codes are locked in ascending order so
// concurrent commits always acquire locks in the same sequence.
func (r *PgxLedgerRepository) LockSystemAccountsInTx(ctx context.Context, tx pgx.Tx, accounts map[string]domain.AccountType, currencyCode string) (map[string]domain.LedgerAccount, error) {
	codes := make([]string, 0, len(accounts))
	for code := range accounts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	insertQuery := `
		INSERT INTO ledger_accounts (account_code, account_type, currency_code, balance, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, 0, NOW(), 'system', NOW(), 'system')
		ON CONFLICT (account_code) DO NOTHING;
	`
	selectQuery := `
		SELECT account_code, account_type, currency_code, balance, created_at, created_by, last_updated_at, last_updated_by
		FROM ledger_accounts
		WHERE account_code = $1
		FOR UPDATE;
	`

	locked := make(map[string]domain.LedgerAccount, len(codes))
	for _, code := range codes {
		if _, err := tx.Exec(ctx, insertQuery, code, string(accounts[code]), currencyCode); err != nil {
			return nil, apperrors.NewAppError(500, "failed to ensure system account "+code, err)
		}

		var m models.LedgerAccount
		err := tx.QueryRow(ctx, selectQuery, code).Scan(
			&m.AccountCode,
			&m.AccountType,
			&m.CurrencyCode,
			&m.Balance,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to lock system account "+code, err)
		}
		locked[code] = mapping.ToDomainLedgerAccount(m)
	}
	return locked, nil
}

// UpdateSystemAccountBalancesInTx applies signed balance deltas to
// previously locked system accounts.
func (r *PgxLedgerRepository) UpdateSystemAccountBalancesInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE ledger_accounts
		SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_code = $1;
	`
	codes := make([]string, 0, len(deltas))
	for code := range deltas {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		tag, err := tx.Exec(ctx, query, code, deltas[code], now, userID)
		if err != nil {
			return apperrors.NewAppError(500, "failed to update balance of system account "+code, err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewAppError(500, "system account vanished during commit: "+code, nil)
		}
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
