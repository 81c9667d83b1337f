package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/apperrors"
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	portsrepo "github.com/nexabot/wallet_billing_core/internal/core/ports/repositories"
	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/dto"
	"github.com/nexabot/wallet_billing_core/internal/middleware"
	"github.com/nexabot/wallet_billing_core/internal/utils"
	"github.com/nexabot/wallet_billing_core/internal/utils/accounting"
)

var (
	ErrInsufficientFunds      = errors.New("insufficient wallet balance")
	ErrCreditLimitExceeded    = errors.New("credit limit exceeded")
	ErrDuplicateReference     = errors.New("transaction reference already used with a different payload")
	ErrConcurrencyExhausted   = errors.New("concurrent update retries exhausted")
	ErrInvalidStateTransition = errors.New("invalid transaction state transition")
	ErrCurrencyMismatch       = errors.New("currency does not match wallet currency")
	ErrWalletInactive         = errors.New("wallet is not active")
	ErrSameWallet             = errors.New("cannot transfer to the same wallet")
	ErrAlreadyReversed        = errors.New("transaction has already been reversed")
)

// maxCommitAttempts bounds the optimistic-concurrency retry loop. Every
// execution resolves to COMPLETED, FAILED or a typed error within this many
// commit attempts.
const maxCommitAttempts = 3

// engineService is the wallet transaction engine: the only writer permitted
// to invoke ledger, wallet and transaction mutations together.
type engineService struct {
	txnRepo     portsrepo.TransactionRepositoryFacade
	walletRepo  portsrepo.WalletRepositoryFacade
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	billingRepo portsrepo.BillingRepositoryFacade
	billingSvc  portssvc.BillingSvcFacade
}

// NewEngineService creates the wallet transaction engine.
func NewEngineService(
	txnRepo portsrepo.TransactionRepositoryFacade,
	walletRepo portsrepo.WalletRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	billingRepo portsrepo.BillingRepositoryFacade,
	billingSvc portssvc.BillingSvcFacade,
) portssvc.EngineSvcFacade {
	return &engineService{
		txnRepo:     txnRepo,
		walletRepo:  walletRepo,
		ledgerRepo:  ledgerRepo,
		billingRepo: billingRepo,
		billingSvc:  billingSvc,
	}
}

var _ portssvc.EngineSvcFacade = (*engineService)(nil)

// executeParams carries one validated engine operation.
type executeParams struct {
	tenantID       string
	walletID       string
	txnType        domain.TransactionType
	amount         decimal.Decimal
	reference      string
	externalRef    string
	description    string
	metadata       map[string]string
	adjustmentSide domain.EntrySide
	toWalletID     string // transfers only
	userID         string
}

func (s *engineService) TopUp(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*portssvc.ExecutionResult, error) {
	return s.execute(ctx, paramsFromRequest(tenantID, walletID, domain.TypeTopUp, req, userID))
}

func (s *engineService) Purchase(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*portssvc.ExecutionResult, error) {
	return s.execute(ctx, paramsFromRequest(tenantID, walletID, domain.TypePurchase, req, userID))
}

func (s *engineService) Fee(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*portssvc.ExecutionResult, error) {
	return s.execute(ctx, paramsFromRequest(tenantID, walletID, domain.TypeFee, req, userID))
}

func (s *engineService) Reward(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*portssvc.ExecutionResult, error) {
	return s.execute(ctx, paramsFromRequest(tenantID, walletID, domain.TypeReward, req, userID))
}

func (s *engineService) Refund(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*portssvc.ExecutionResult, error) {
	return s.execute(ctx, paramsFromRequest(tenantID, walletID, domain.TypeRefund, req, userID))
}

func (s *engineService) Adjust(ctx context.Context, tenantID, walletID string, req dto.AdjustmentRequest, userID string) (*portssvc.ExecutionResult, error) {
	return s.execute(ctx, executeParams{
		tenantID:       tenantID,
		walletID:       walletID,
		txnType:        domain.TypeAdjustment,
		amount:         req.Amount,
		reference:      req.Reference,
		description:    req.Description,
		adjustmentSide: domain.EntrySide(req.Side),
		userID:         userID,
	})
}

func (s *engineService) Transfer(ctx context.Context, tenantID string, req dto.TransferRequest, userID string) (*portssvc.ExecutionResult, error) {
	if req.FromWalletID == req.ToWalletID {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrSameWallet)
	}
	return s.execute(ctx, executeParams{
		tenantID:    tenantID,
		walletID:    req.FromWalletID,
		txnType:     domain.TypeTransferOut,
		amount:      req.Amount,
		reference:   req.Reference,
		description: req.Description,
		toWalletID:  req.ToWalletID,
		userID:      userID,
	})
}

func paramsFromRequest(tenantID, walletID string, txnType domain.TransactionType, req dto.TransactionRequest, userID string) executeParams {
	return executeParams{
		tenantID:    tenantID,
		walletID:    walletID,
		txnType:     txnType,
		amount:      req.Amount,
		reference:   req.Reference,
		externalRef: req.ExternalReference,
		description: req.Description,
		metadata:    req.Metadata,
		userID:      userID,
	}
}

// execute runs the engine state machine: validate, create the PENDING row
// (or resume an idempotent replay), derive the balanced entries, enforce
// funds and credit rules, then commit ledger + wallet + transaction as one
// atomic unit with a bounded optimistic retry loop.
func (s *engineService) execute(ctx context.Context, p executeParams) (*portssvc.ExecutionResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// Fail-fast validation: no transaction row is created for bad input.
	if p.amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if p.txnType == domain.TypeAdjustment && p.adjustmentSide != domain.SideDebit && p.adjustmentSide != domain.SideCredit {
		return nil, fmt.Errorf("%w: adjustment side must be DEBIT or CREDIT", apperrors.ErrValidation)
	}

	wallet, err := s.loadActiveWallet(ctx, p.tenantID, p.walletID)
	if err != nil {
		return nil, err
	}

	var counterparty *domain.Wallet
	if p.txnType == domain.TypeTransferOut {
		counterparty, err = s.loadCounterparty(ctx, wallet, p.toWalletID)
		if err != nil {
			return nil, err
		}
	}

	// Resolve the idempotency reference: generate when absent, short-circuit
	// on replay, reject on payload mismatch.
	reference := p.reference
	if reference == "" {
		reference, err = utils.GenerateSecureRandomString(16)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to generate transaction reference", err)
		}
	}

	txn, replayResult, err := s.resolvePending(ctx, p, wallet, reference)
	if err != nil || replayResult != nil {
		return replayResult, err
	}

	result, err := s.commitWithRetries(ctx, p, txn, wallet, counterparty)
	if err != nil {
		return nil, err
	}

	// Debits make the tenant a candidate for credit-limit suspension;
	// re-evaluate outside the commit (eventual consistency, spec-sanctioned).
	if p.txnType.IsDebit() || (p.txnType == domain.TypeAdjustment && p.adjustmentSide == domain.SideDebit) {
		if _, evalErr := s.billingSvc.EvaluateCredit(ctx, p.tenantID, p.userID); evalErr != nil && !errors.Is(evalErr, apperrors.ErrNotFound) {
			logger.Warn("Credit evaluation after debit failed", slog.String("tenant_id", p.tenantID), slog.String("error", evalErr.Error()))
		}
	}

	return result, nil
}

func (s *engineService) loadActiveWallet(ctx context.Context, tenantID, walletID string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.FindWalletByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet.TenantID != tenantID {
		// Obscure existence of other tenants' wallets.
		return nil, apperrors.ErrNotFound
	}
	if !wallet.IsActive || wallet.Status != domain.WalletActive {
		return nil, fmt.Errorf("%w: wallet %s", ErrWalletInactive, walletID)
	}
	return wallet, nil
}

func (s *engineService) loadCounterparty(ctx context.Context, from *domain.Wallet, toWalletID string) (*domain.Wallet, error) {
	to, err := s.walletRepo.FindWalletByID(ctx, toWalletID)
	if err != nil {
		return nil, err
	}
	if !to.IsActive || to.Status != domain.WalletActive {
		return nil, fmt.Errorf("%w: wallet %s", ErrWalletInactive, toWalletID)
	}
	if to.CurrencyCode != from.CurrencyCode {
		return nil, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, from.CurrencyCode, to.CurrencyCode)
	}
	return to, nil
}

// resolvePending creates the PENDING transaction row, or resolves an
// idempotent replay. A terminal replay returns the recorded result without
// re-executing side effects; a matching PENDING row is resumed so callers
// can safely retry after a transient failure with the same reference.
func (s *engineService) resolvePending(ctx context.Context, p executeParams, wallet *domain.Wallet, reference string) (*domain.WalletTransaction, *portssvc.ExecutionResult, error) {
	existing, err := s.txnRepo.FindTransactionByReference(ctx, reference)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, err
	}
	if existing != nil {
		if !s.payloadMatches(existing, p, wallet.WalletID) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateReference, reference)
		}
		if existing.Status == domain.TxnPending {
			return existing, nil, nil // resume the in-flight execution
		}
		result := &portssvc.ExecutionResult{Transaction: *existing, Wallet: *wallet}
		return nil, result, nil
	}

	now := time.Now().UTC()
	txn := &domain.WalletTransaction{
		TransactionID:        uuid.NewString(),
		TransactionReference: reference,
		WalletID:             wallet.WalletID,
		Type:                 p.txnType,
		Amount:               p.amount,
		CurrencyCode:         wallet.CurrencyCode,
		Status:               domain.TxnPending,
		ExternalReference:    p.externalRef,
		Description:          p.description,
		Metadata:             p.metadata,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     p.userID,
			LastUpdatedAt: now,
			LastUpdatedBy: p.userID,
		},
	}
	if p.toWalletID != "" {
		txn.CounterpartyWalletID = &p.toWalletID
	}

	if err := s.txnRepo.CreatePending(ctx, *txn); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost a race with a concurrent identical request; re-resolve.
			return s.resolvePending(ctx, p, wallet, reference)
		}
		return nil, nil, err
	}
	return txn, nil, nil
}

// payloadMatches compares the full request payload against the stored row.
// A reused reference only counts as a replay when every field matches.
func (s *engineService) payloadMatches(existing *domain.WalletTransaction, p executeParams, walletID string) bool {
	if existing.WalletID != walletID ||
		existing.Type != p.txnType ||
		!existing.Amount.Equal(p.amount) ||
		existing.ExternalReference != p.externalRef ||
		existing.Description != p.description {
		return false
	}
	if p.toWalletID != "" {
		if existing.CounterpartyWalletID == nil || *existing.CounterpartyWalletID != p.toWalletID {
			return false
		}
	} else if existing.CounterpartyWalletID != nil {
		return false
	}
	return maps.Equal(existing.Metadata, p.metadata)
}

// commitWithRetries derives the ledger batch and commits atomically,
// re-reading wallet state and re-validating funds after every optimistic
// concurrency conflict, up to maxCommitAttempts.
func (s *engineService) commitWithRetries(ctx context.Context, p executeParams, txn *domain.WalletTransaction, wallet, counterparty *domain.Wallet) (*portssvc.ExecutionResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	batchRef := uuid.NewString()
	now := time.Now().UTC()

	var inTxn *domain.WalletTransaction
	if p.txnType == domain.TypeTransferOut {
		var err error
		inTxn, err = s.createTransferInLeg(ctx, txn, counterparty, p, now)
		if err != nil {
			return nil, err
		}
	}

	billingAccount, err := s.billingRepo.FindBillingAccountByTenantID(ctx, p.tenantID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		entries, err := s.buildEntries(batchRef, txn, inTxn, wallet, counterparty, p, now)
		if err != nil {
			// Entry derivation failures are engine bugs, not user errors.
			logger.Error("Ledger entry derivation failed", slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
			return nil, apperrors.NewAppError(500, "failed to derive ledger entries", err)
		}

		walletDelta := accounting.AccountDelta(entries, wallet.AccountCode())
		newBalance := wallet.Balance.Add(walletDelta)

		if err := s.checkFunds(billingAccount, wallet, walletDelta, newBalance); err != nil {
			s.markFailed(ctx, txn, inTxn, err.Error(), p.userID)
			return nil, err
		}

		commit, err := s.buildCommit(batchRef, entries, txn, inTxn, wallet, counterparty, billingAccount, walletDelta, p, now)
		if err != nil {
			return nil, err
		}

		err = s.txnRepo.CommitExecution(ctx, *commit)
		if err == nil {
			txn.Status = domain.TxnCompleted
			txn.LedgerBatchRef = &batchRef
			updated := *wallet
			updated.Balance = newBalance
			updated.Version = wallet.Version + 1
			logger.Info("Transaction committed",
				slog.String("transaction_id", txn.TransactionID),
				slog.String("batch_reference", batchRef),
				slog.String("type", string(txn.Type)),
				slog.String("amount", txn.Amount.String()),
			)
			return &portssvc.ExecutionResult{Transaction: *txn, Wallet: updated}, nil
		}

		switch {
		case errors.Is(err, apperrors.ErrConcurrency):
			logger.Debug("Optimistic concurrency conflict, retrying", slog.Int("attempt", attempt), slog.String("wallet_id", wallet.WalletID))
			wallet, counterparty, err = s.refreshWallets(ctx, wallet.WalletID, counterparty)
			if err != nil {
				return nil, err
			}
			continue
		case errors.Is(err, apperrors.ErrSuspended):
			s.markFailed(ctx, txn, inTxn, "billing account suspended", p.userID)
			return nil, fmt.Errorf("%w: tenant %s", apperrors.ErrSuspended, p.tenantID)
		default:
			return nil, err
		}
	}

	// Retries exhausted: leave the transaction PENDING so the caller can
	// safely retry with the same idempotency reference.
	logger.Warn("Commit retries exhausted", slog.String("transaction_id", txn.TransactionID))
	return nil, fmt.Errorf("%w: transaction %s", ErrConcurrencyExhausted, txn.TransactionID)
}

func (s *engineService) createTransferInLeg(ctx context.Context, outTxn *domain.WalletTransaction, to *domain.Wallet, p executeParams, now time.Time) (*domain.WalletTransaction, error) {
	inRef := outTxn.TransactionReference + ":in"
	existing, err := s.txnRepo.FindTransactionByReference(ctx, inRef)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	inTxn := &domain.WalletTransaction{
		TransactionID:        uuid.NewString(),
		TransactionReference: inRef,
		WalletID:             to.WalletID,
		CounterpartyWalletID: &outTxn.WalletID,
		Type:                 domain.TypeTransferIn,
		Amount:               p.amount,
		CurrencyCode:         to.CurrencyCode,
		Status:               domain.TxnPending,
		Description:          p.description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     p.userID,
			LastUpdatedAt: now,
			LastUpdatedBy: p.userID,
		},
	}
	if err := s.txnRepo.CreatePending(ctx, *inTxn); err != nil && !errors.Is(err, apperrors.ErrDuplicate) {
		return nil, err
	}
	return inTxn, nil
}

func (s *engineService) buildEntries(batchRef string, txn, inTxn *domain.WalletTransaction, wallet, counterparty *domain.Wallet, p executeParams, now time.Time) ([]domain.LedgerEntry, error) {
	in := accounting.BatchInput{
		BatchReference: batchRef,
		TransactionID:  txn.TransactionID,
		Wallet:         *wallet,
		Type:           p.txnType,
		AdjustmentSide: p.adjustmentSide,
		Amount:         p.amount,
		Description:    p.description,
		Now:            now,
		UserID:         p.userID,
	}
	if counterparty != nil && inTxn != nil {
		in.Counterparty = counterparty
		in.CounterpartyTransactionID = inTxn.TransactionID
	}
	return accounting.BuildEntries(in)
}

// checkFunds enforces the funding rules for debits: PREPAID wallets may not
// go negative; credit-based billing types block debits only while the
// account is suspended or already over its limit. The transaction that
// crosses the limit commits, and the next credit evaluation suspends the
// account. Credits are always allowed.
func (s *engineService) checkFunds(account *domain.BillingAccount, wallet *domain.Wallet, walletDelta, newBalance decimal.Decimal) error {
	if !walletDelta.IsNegative() {
		return nil
	}
	if account != nil && account.IsSuspended() {
		return fmt.Errorf("%w: tenant %s", apperrors.ErrSuspended, wallet.TenantID)
	}
	if account == nil || !account.BillingType.AllowsNegativeBalance() {
		if newBalance.IsNegative() {
			return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, wallet.Balance.String(), walletDelta.Abs().String())
		}
		return nil
	}
	if account.CreditLimit != nil && account.CurrentBalance.GreaterThan(*account.CreditLimit) {
		return fmt.Errorf("%w: outstanding balance %s over limit %s", ErrCreditLimitExceeded, account.CurrentBalance.String(), account.CreditLimit.String())
	}
	return nil
}

func (s *engineService) buildCommit(batchRef string, entries []domain.LedgerEntry, txn, inTxn *domain.WalletTransaction, wallet, counterparty *domain.Wallet, account *domain.BillingAccount, walletDelta decimal.Decimal, p executeParams, now time.Time) (*portsrepo.EngineCommit, error) {
	walletCodes := map[string]bool{wallet.AccountCode(): true}
	deltas := []portsrepo.WalletDelta{{WalletID: wallet.WalletID, Delta: walletDelta, ExpectedVersion: wallet.Version}}
	txnIDs := []string{txn.TransactionID}

	if counterparty != nil && inTxn != nil {
		walletCodes[counterparty.AccountCode()] = true
		cpDelta := accounting.AccountDelta(entries, counterparty.AccountCode())
		deltas = append(deltas, portsrepo.WalletDelta{WalletID: counterparty.WalletID, Delta: cpDelta, ExpectedVersion: counterparty.Version})
		txnIDs = append(txnIDs, inTxn.TransactionID)
	}

	// Fixed global lock order: ascending wallet ID, so two opposite-direction
	// transfers can never deadlock.
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].WalletID < deltas[j].WalletID })

	systemDeltas := accounting.SystemDeltas(entries, walletCodes)
	systemTypes := make(map[string]domain.AccountType)
	for _, e := range entries {
		if !walletCodes[e.AccountCode] {
			systemTypes[e.AccountCode] = e.AccountType
		}
	}

	billingDelta := decimal.Zero
	if account != nil && account.BillingType.AllowsNegativeBalance() {
		// Outstanding debt moves opposite to the wallet balance.
		billingDelta = walletDelta.Neg()
	}

	return &portsrepo.EngineCommit{
		TransactionIDs:      txnIDs,
		BatchReference:      batchRef,
		Entries:             entries,
		WalletDeltas:        deltas,
		SystemDeltas:        systemDeltas,
		SystemTypes:         systemTypes,
		BillingTenantID:     p.tenantID,
		BillingDelta:        billingDelta,
		RequireNotSuspended: walletDelta.IsNegative(),
		CurrencyCode:        wallet.CurrencyCode,
		UserID:              p.userID,
		Now:                 now,
	}, nil
}

func (s *engineService) refreshWallets(ctx context.Context, walletID string, counterparty *domain.Wallet) (*domain.Wallet, *domain.Wallet, error) {
	wallet, err := s.walletRepo.FindWalletByID(ctx, walletID)
	if err != nil {
		return nil, nil, err
	}
	if counterparty == nil {
		return wallet, nil, nil
	}
	cp, err := s.walletRepo.FindWalletByID(ctx, counterparty.WalletID)
	if err != nil {
		return nil, nil, err
	}
	return wallet, cp, nil
}

// markFailed records the business failure reason on the PENDING row(s).
func (s *engineService) markFailed(ctx context.Context, txn, inTxn *domain.WalletTransaction, reason, userID string) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()
	if err := s.txnRepo.MarkFailed(ctx, txn.TransactionID, reason, userID, now); err != nil {
		logger.Error("Failed to mark transaction FAILED", slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
	}
	txn.Status = domain.TxnFailed
	txn.FailureReason = &reason
	if inTxn != nil {
		if err := s.txnRepo.MarkFailed(ctx, inTxn.TransactionID, reason, userID, now); err != nil {
			logger.Error("Failed to mark transfer-in leg FAILED", slog.String("transaction_id", inTxn.TransactionID), slog.String("error", err.Error()))
		}
	}
}

// Reverse creates a compensating transaction mirroring a COMPLETED one's
// ledger batch and marks the original REVERSED. Reversals restore every
// affected balance; the original row is never deleted.
func (s *engineService) Reverse(ctx context.Context, tenantID, transactionID, userID string) (*portssvc.ExecutionResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.FindWalletByID(ctx, original.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}

	if original.Type == domain.TypeTransferIn {
		// The whole 4-entry batch reverses through the out-leg; reversing the
		// in-leg alone would leave the out-leg COMPLETED with its effect undone.
		return nil, fmt.Errorf("%w: reverse the TRANSFER_OUT leg of the transfer", apperrors.ErrValidation)
	}
	if original.Status == domain.TxnReversed || original.ReversedByID != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyReversed, transactionID)
	}
	if !original.Status.CanTransitionTo(domain.TxnReversed) {
		return nil, fmt.Errorf("%w: cannot reverse transaction in status %s", ErrInvalidStateTransition, original.Status)
	}
	if original.LedgerBatchRef == nil {
		return nil, apperrors.NewAppError(500, "completed transaction missing ledger batch reference", nil)
	}

	reversalRef := "REV:" + original.TransactionReference
	var resumed *domain.WalletTransaction
	if existing, err := s.txnRepo.FindTransactionByReference(ctx, reversalRef); err == nil {
		if existing.Status == domain.TxnCompleted {
			return &portssvc.ExecutionResult{Transaction: *existing, Wallet: *wallet}, nil
		}
		// A prior attempt created the row but never committed; resume it so
		// the commit targets the stored transaction ID.
		resumed = existing
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	originalEntries, err := s.ledgerRepo.FindEntriesByBatchReference(ctx, *original.LedgerBatchRef)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	batchRef := uuid.NewString()
	description := "Reversal of " + original.TransactionReference

	reversal := resumed
	if reversal == nil {
		reversal = &domain.WalletTransaction{
			TransactionID:        uuid.NewString(),
			TransactionReference: reversalRef,
			WalletID:             original.WalletID,
			CounterpartyWalletID: original.CounterpartyWalletID,
			Type:                 domain.TypeAdjustment,
			Amount:               original.Amount,
			CurrencyCode:         original.CurrencyCode,
			Status:               domain.TxnPending,
			Description:          description,
			ReversalOfID:         &original.TransactionID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.txnRepo.CreatePending(ctx, *reversal); err != nil {
			if !errors.Is(err, apperrors.ErrDuplicate) {
				return nil, err
			}
			// Lost a race with a concurrent reversal; reuse the stored row.
			stored, findErr := s.txnRepo.FindTransactionByReference(ctx, reversalRef)
			if findErr != nil {
				return nil, findErr
			}
			if stored.Status == domain.TxnCompleted {
				return &portssvc.ExecutionResult{Transaction: *stored, Wallet: *wallet}, nil
			}
			reversal = stored
		}
	}

	entries, err := accounting.BuildReversalEntries(originalEntries, batchRef, reversal.TransactionID, description, now, userID)
	if err != nil {
		logger.Error("Reversal entry derivation failed", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
		return nil, apperrors.NewAppError(500, "failed to derive reversal entries", err)
	}

	billingAccount, err := s.billingRepo.FindBillingAccountByTenantID(ctx, tenantID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	// Identify every wallet the original batch touched so transfers reverse
	// both legs atomically.
	wallets, err := s.walletsForEntries(ctx, entries)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		walletCodes := make(map[string]bool, len(wallets))
		for code := range wallets {
			walletCodes[code] = true
		}

		deltas := make([]portsrepo.WalletDelta, 0, len(wallets))
		var primaryDelta decimal.Decimal
		for code, w := range wallets {
			d := accounting.AccountDelta(entries, code)
			deltas = append(deltas, portsrepo.WalletDelta{WalletID: w.WalletID, Delta: d, ExpectedVersion: w.Version})
			if w.WalletID == wallet.WalletID {
				primaryDelta = d
			}
		}
		sort.Slice(deltas, func(i, j int) bool { return deltas[i].WalletID < deltas[j].WalletID })

		systemDeltas := accounting.SystemDeltas(entries, walletCodes)
		systemTypes := make(map[string]domain.AccountType)
		for _, e := range entries {
			if !walletCodes[e.AccountCode] {
				systemTypes[e.AccountCode] = e.AccountType
			}
		}

		billingDelta := decimal.Zero
		if billingAccount != nil && billingAccount.BillingType.AllowsNegativeBalance() {
			billingDelta = primaryDelta.Neg()
		}

		reversedIDs := []string{original.TransactionID}
		if original.Type == domain.TypeTransferOut {
			if inLeg, err := s.txnRepo.FindTransactionByReference(ctx, original.TransactionReference+":in"); err == nil && inLeg.Status == domain.TxnCompleted {
				reversedIDs = append(reversedIDs, inLeg.TransactionID)
			}
		}

		err = s.txnRepo.CommitExecution(ctx, portsrepo.EngineCommit{
			TransactionIDs:  []string{reversal.TransactionID},
			BatchReference:  batchRef,
			Entries:         entries,
			WalletDeltas:    deltas,
			SystemDeltas:    systemDeltas,
			SystemTypes:     systemTypes,
			BillingTenantID: tenantID,
			BillingDelta:    billingDelta,
			MarkReversedIDs: reversedIDs,
			CurrencyCode:    original.CurrencyCode,
			UserID:          userID,
			Now:             now,
		})
		if err == nil {
			reversal.Status = domain.TxnCompleted
			reversal.LedgerBatchRef = &batchRef
			updated := *wallets[wallet.AccountCode()]
			updated.Balance = updated.Balance.Add(primaryDelta)
			updated.Version++
			logger.Info("Transaction reversed",
				slog.String("original_id", original.TransactionID),
				slog.String("reversal_id", reversal.TransactionID),
			)
			return &portssvc.ExecutionResult{Transaction: *reversal, Wallet: updated}, nil
		}
		if errors.Is(err, apperrors.ErrConcurrency) {
			wallets, err = s.walletsForEntries(ctx, entries)
			if err != nil {
				return nil, err
			}
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("%w: reversal of %s", ErrConcurrencyExhausted, transactionID)
}

// walletsForEntries resolves the wallets behind every wallet account code a
// batch touches, keyed by account code.
func (s *engineService) walletsForEntries(ctx context.Context, entries []domain.LedgerEntry) (map[string]*domain.Wallet, error) {
	const walletPrefix = "WALLET:"
	wallets := make(map[string]*domain.Wallet)
	for _, e := range entries {
		if len(e.AccountCode) <= len(walletPrefix) || e.AccountCode[:len(walletPrefix)] != walletPrefix {
			continue
		}
		if _, seen := wallets[e.AccountCode]; seen {
			continue
		}
		w, err := s.walletRepo.FindWalletByID(ctx, e.AccountCode[len(walletPrefix):])
		if err != nil {
			return nil, err
		}
		wallets[e.AccountCode] = w
	}
	return wallets, nil
}

func (s *engineService) GetTransaction(ctx context.Context, tenantID, transactionID string) (*domain.WalletTransaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	wallet, err := s.walletRepo.FindWalletByID(ctx, txn.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return txn, nil
}

func (s *engineService) ListTransactions(ctx context.Context, tenantID, walletID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	wallet, err := s.walletRepo.FindWalletByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	txns, nextToken, err := s.txnRepo.ListTransactionsByWalletID(ctx, walletID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}
