package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nexabot/wallet_billing_core/internal/apperrors"
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	portsrepo "github.com/nexabot/wallet_billing_core/internal/core/ports/repositories"
	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/dto"
	"github.com/nexabot/wallet_billing_core/internal/middleware"
)

// ledgerService exposes journal reads and reconciliation over the
// append-only ledger. It never writes; only engine commits append entries.
type ledgerService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	walletRepo portsrepo.WalletRepositoryFacade
}

// NewLedgerService creates a new ledger query service.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade, walletRepo portsrepo.WalletRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{ledgerRepo: ledgerRepo, walletRepo: walletRepo}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) GetEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	entries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve ledger entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return entries, nil
}

func (s *ledgerService) ListEntriesByAccountCode(ctx context.Context, accountCode string, params dto.ListLedgerEntriesParams) (*dto.ListLedgerEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	entries, nextToken, err := s.ledgerRepo.ListEntriesByAccountCode(ctx, accountCode, params.From, params.To, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	return &dto.ListLedgerEntriesResponse{
		Entries:   dto.ToLedgerEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// ReconcileWallet recomputes the wallet balance purely from journal sums and
// compares it against the cached projection. A wallet is a liability
// account, so its journal balance is credits minus debits.
func (s *ledgerService) ReconcileWallet(ctx context.Context, tenantID, walletID string) (*dto.ReconciliationResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	wallet, err := s.walletRepo.FindWalletByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}

	sums, err := s.ledgerRepo.SumsByAccountCode(ctx, wallet.AccountCode())
	if err != nil {
		return nil, fmt.Errorf("failed to compute journal sums: %w", err)
	}

	journalBalance := sums.CreditTotal.Sub(sums.DebitTotal)
	drift := wallet.Balance.Sub(journalBalance)
	inSync := drift.IsZero()

	if !inSync {
		logger.Error("Wallet balance drift detected",
			slog.String("wallet_id", walletID),
			slog.String("cached", wallet.Balance.String()),
			slog.String("journal", journalBalance.String()),
			slog.String("drift", drift.String()),
		)
	}

	return &dto.ReconciliationResponse{
		WalletID:       walletID,
		AccountCode:    wallet.AccountCode(),
		CachedBalance:  wallet.Balance,
		JournalBalance: journalBalance,
		Drift:          drift,
		InSync:         inSync,
	}, nil
}
