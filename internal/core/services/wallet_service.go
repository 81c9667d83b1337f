package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/apperrors"
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	portsrepo "github.com/nexabot/wallet_billing_core/internal/core/ports/repositories"
	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/dto"
	"github.com/nexabot/wallet_billing_core/internal/middleware"
)

// walletService implements wallet lifecycle and reads. Balance mutation is
// the engine's job; this service never touches the ledger.
type walletService struct {
	walletRepo  portsrepo.WalletRepositoryFacade
	currencySvc portssvc.CurrencySvcFacade
}

// NewWalletService creates a new wallet service.
func NewWalletService(walletRepo portsrepo.WalletRepositoryFacade, currencySvc portssvc.CurrencySvcFacade) portssvc.WalletSvcFacade {
	return &walletService{walletRepo: walletRepo, currencySvc: currencySvc}
}

var _ portssvc.WalletSvcFacade = (*walletService)(nil)

func (s *walletService) GetOrCreateWallet(ctx context.Context, ownerUserID, tenantID, currencyCode, userID string) (*domain.Wallet, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.currencySvc.GetCurrency(ctx, currencyCode); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unsupported currency %s", apperrors.ErrValidation, currencyCode)
		}
		return nil, err
	}

	existing, err := s.walletRepo.FindWalletByOwner(ctx, ownerUserID, tenantID, currencyCode)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	wallet := domain.Wallet{
		WalletID:     uuid.NewString(),
		OwnerUserID:  ownerUserID,
		TenantID:     tenantID,
		CurrencyCode: currencyCode,
		Balance:      decimal.Zero,
		Version:      1,
		Status:       domain.WalletActive,
		IsActive:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	created, err := s.walletRepo.CreateWalletIdempotent(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	if created.WalletID == wallet.WalletID {
		logger.Info("Wallet created",
			slog.String("wallet_id", created.WalletID),
			slog.String("tenant_id", tenantID),
			slog.String("currency", currencyCode),
		)
	}
	return created, nil
}

func (s *walletService) GetWallet(ctx context.Context, tenantID, walletID string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.FindWalletByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return wallet, nil
}

func (s *walletService) GetBalance(ctx context.Context, tenantID, walletID string) (*dto.BalanceResponse, error) {
	wallet, err := s.GetWallet(ctx, tenantID, walletID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToBalanceResponse(wallet)
	return &resp, nil
}

func (s *walletService) SuspendWallet(ctx context.Context, tenantID, walletID, userID string) error {
	wallet, err := s.GetWallet(ctx, tenantID, walletID)
	if err != nil {
		return err
	}
	if wallet.Status == domain.WalletSuspended {
		return nil
	}
	now := time.Now().UTC()
	if err := s.walletRepo.SetWalletStatus(ctx, walletID, domain.WalletSuspended, userID, now); err != nil {
		return err
	}
	middleware.GetLoggerFromCtx(ctx).Info("Wallet suspended", slog.String("wallet_id", walletID))
	return nil
}

func (s *walletService) ActivateWallet(ctx context.Context, tenantID, walletID, userID string) error {
	wallet, err := s.GetWallet(ctx, tenantID, walletID)
	if err != nil {
		return err
	}
	if wallet.Status == domain.WalletActive {
		return nil
	}
	now := time.Now().UTC()
	if err := s.walletRepo.SetWalletStatus(ctx, walletID, domain.WalletActive, userID, now); err != nil {
		return err
	}
	middleware.GetLoggerFromCtx(ctx).Info("Wallet activated", slog.String("wallet_id", walletID))
	return nil
}
