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

// suspensionReasonOverLimit is recorded when the sweep or a post-debit
// evaluation suspends a tenant for exceeding its credit limit.
const suspensionReasonOverLimit = "credit limit exceeded"

// billingService manages per-tenant credit terms and the over-limit
// evaluation that drives suspension and reactivation.
type billingService struct {
	billingRepo portsrepo.BillingRepositoryFacade
	currencySvc portssvc.CurrencySvcFacade
}

// NewBillingService creates a new billing account service.
func NewBillingService(billingRepo portsrepo.BillingRepositoryFacade, currencySvc portssvc.CurrencySvcFacade) portssvc.BillingSvcFacade {
	return &billingService{billingRepo: billingRepo, currencySvc: currencySvc}
}

var _ portssvc.BillingSvcFacade = (*billingService)(nil)

func (s *billingService) GetOrCreateBillingAccount(ctx context.Context, tenantID string, req dto.CreateBillingAccountRequest, userID string) (*domain.BillingAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.currencySvc.GetCurrency(ctx, req.CurrencyCode); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unsupported currency %s", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, err
	}

	billingType := domain.BillingType(req.BillingType)
	if req.CreditLimit != nil {
		if !billingType.AllowsNegativeBalance() {
			return nil, fmt.Errorf("%w: credit limit is not applicable to %s accounts", apperrors.ErrValidation, billingType)
		}
		if req.CreditLimit.IsNegative() {
			return nil, fmt.Errorf("%w: credit limit must not be negative", apperrors.ErrValidation)
		}
	}

	existing, err := s.billingRepo.FindBillingAccountByTenantID(ctx, tenantID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	account := domain.BillingAccount{
		BillingAccountID: uuid.NewString(),
		TenantID:         tenantID,
		AccountNumber:    "BA-" + uuid.NewString()[:8],
		BillingType:      billingType,
		CurrencyCode:     req.CurrencyCode,
		CreditLimit:      req.CreditLimit,
		CurrentBalance:   decimal.Zero,
		AutoPayment:      req.AutoPayment,
		IsActive:         true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	created, err := s.billingRepo.CreateBillingAccountIdempotent(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create billing account: %w", err)
	}
	if created.BillingAccountID == account.BillingAccountID {
		logger.Info("Billing account created",
			slog.String("tenant_id", tenantID),
			slog.String("billing_type", string(billingType)),
		)
	}
	return created, nil
}

func (s *billingService) GetBillingAccount(ctx context.Context, tenantID string) (*domain.BillingAccount, error) {
	return s.billingRepo.FindBillingAccountByTenantID(ctx, tenantID)
}

// EvaluateCredit re-derives the suspension state from the current balance:
// over the limit suspends, back at or under the limit reactivates accounts
// that were suspended for the over-limit reason.
func (s *billingService) EvaluateCredit(ctx context.Context, tenantID, userID string) (*domain.BillingAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.billingRepo.FindBillingAccountByTenantID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	switch {
	case account.OverCreditLimit() && !account.IsSuspended():
		if err := s.billingRepo.SuspendBillingAccount(ctx, tenantID, suspensionReasonOverLimit, userID, now); err != nil {
			return nil, err
		}
		logger.Warn("Tenant suspended for exceeding credit limit",
			slog.String("tenant_id", tenantID),
			slog.String("balance", account.CurrentBalance.String()),
		)
	case !account.OverCreditLimit() && account.IsSuspended() &&
		account.SuspensionReason != nil && *account.SuspensionReason == suspensionReasonOverLimit:
		if err := s.billingRepo.ReactivateBillingAccount(ctx, tenantID, userID, now); err != nil {
			return nil, err
		}
		logger.Info("Tenant reactivated after balance correction", slog.String("tenant_id", tenantID))
	default:
		return account, nil
	}

	return s.billingRepo.FindBillingAccountByTenantID(ctx, tenantID)
}

func (s *billingService) EvaluateAllOverLimit(ctx context.Context, userID string) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	const batchSize = 100
	suspended := 0
	for {
		accounts, err := s.billingRepo.ListAccountsOverLimit(ctx, batchSize)
		if err != nil {
			return suspended, fmt.Errorf("failed to list over-limit accounts: %w", err)
		}
		if len(accounts) == 0 {
			return suspended, nil
		}
		now := time.Now().UTC()
		for _, account := range accounts {
			if err := s.billingRepo.SuspendBillingAccount(ctx, account.TenantID, suspensionReasonOverLimit, userID, now); err != nil {
				logger.Error("Failed to suspend over-limit tenant",
					slog.String("tenant_id", account.TenantID),
					slog.String("error", err.Error()),
				)
				continue
			}
			suspended++
		}
		if len(accounts) < batchSize {
			return suspended, nil
		}
	}
}

// RecordExternalPayment applies a successful charge captured by the external
// payment collaborator, reducing the outstanding balance and re-evaluating
// the suspension state.
func (s *billingService) RecordExternalPayment(ctx context.Context, tenantID string, amount decimal.Decimal, externalReference, userID string) (*domain.BillingAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	if _, err := s.billingRepo.FindBillingAccountByTenantID(ctx, tenantID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.billingRepo.ApplyBillingDelta(ctx, tenantID, amount.Neg(), userID, now); err != nil {
		return nil, fmt.Errorf("failed to apply external payment: %w", err)
	}

	logger.Info("External payment recorded",
		slog.String("tenant_id", tenantID),
		slog.String("amount", amount.String()),
		slog.String("external_reference", externalReference),
	)

	return s.EvaluateCredit(ctx, tenantID, userID)
}

func (s *billingService) SuspendTenant(ctx context.Context, tenantID, reason, userID string, now time.Time) error {
	if _, err := s.billingRepo.FindBillingAccountByTenantID(ctx, tenantID); err != nil {
		return err
	}
	if err := s.billingRepo.SuspendBillingAccount(ctx, tenantID, reason, userID, now); err != nil {
		return err
	}
	middleware.GetLoggerFromCtx(ctx).Warn("Tenant suspended",
		slog.String("tenant_id", tenantID),
		slog.String("reason", reason),
	)
	return nil
}
