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

var (
	ErrPlanNotFound        = errors.New("plan not found or inactive")
	ErrSubscriptionExists  = errors.New("tenant already has a subscription")
	ErrNoWalletForCurrency = errors.New("tenant has no wallet in the plan currency")
)

// systemUserID attributes lifecycle-driven mutations (sweep renewals,
// suspensions) in audit fields.
const systemUserID = "system"

const sweepBatchSize = 100

// suspensionReasonPastDue is recorded when the sweep suspends a tenant whose
// subscription stayed past due beyond the grace period.
const suspensionReasonPastDue = "subscription payment past due"

// subscriptionService drives the subscription lifecycle. Renewal charges go
// through the engine so every balance change stays on the ledger.
type subscriptionService struct {
	subRepo     portsrepo.SubscriptionRepositoryFacade
	walletRepo  portsrepo.WalletRepositoryFacade
	engine      portssvc.EngineSvcFacade
	billingSvc  portssvc.BillingSvcFacade
	gracePeriod time.Duration
}

// NewSubscriptionService creates the subscription lifecycle manager.
// gracePeriod is how long a PAST_DUE subscription may stay uncorrected
// before the sweep suspends the tenant.
func NewSubscriptionService(
	subRepo portsrepo.SubscriptionRepositoryFacade,
	walletRepo portsrepo.WalletRepositoryFacade,
	engine portssvc.EngineSvcFacade,
	billingSvc portssvc.BillingSvcFacade,
	gracePeriod time.Duration,
) portssvc.SubscriptionSvcFacade {
	return &subscriptionService{
		subRepo:     subRepo,
		walletRepo:  walletRepo,
		engine:      engine,
		billingSvc:  billingSvc,
		gracePeriod: gracePeriod,
	}
}

var _ portssvc.SubscriptionSvcFacade = (*subscriptionService)(nil)

func (s *subscriptionService) StartSubscription(ctx context.Context, tenantID string, req dto.StartSubscriptionRequest, userID string) (*domain.Subscription, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	plan, err := s.subRepo.FindPlanByCode(ctx, req.PlanCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, req.PlanCode)
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, req.PlanCode)
	}

	if existing, err := s.subRepo.FindSubscriptionByTenantID(ctx, tenantID); err == nil {
		if existing.PlanCode == plan.PlanCode && !existing.Status.IsTerminal() {
			return existing, nil // idempotent re-subscribe to the same plan
		}
		if !existing.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: tenant %s", ErrSubscriptionExists, tenantID)
		}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	account, err := s.billingSvc.GetBillingAccount(ctx, tenantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: tenant %s has no billing account", apperrors.ErrValidation, tenantID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	sub := domain.Subscription{
		SubscriptionID:   uuid.NewString(),
		TenantID:         tenantID,
		BillingAccountID: account.BillingAccountID,
		PlanCode:         plan.PlanCode,
		StartsAt:         now,
		AutoRenew:        req.AutoRenew,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if plan.TrialDays > 0 {
		trialEnd := now.AddDate(0, 0, plan.TrialDays)
		sub.Status = domain.SubTrialing
		sub.TrialStart = &now
		sub.TrialEnd = &trialEnd
		sub.NextBillingDate = &trialEnd
	} else {
		// No trial: the first period is charged up front, before the
		// subscription exists. The period-stamped reference makes retries of
		// a failed start idempotent.
		if err := s.chargePeriod(ctx, tenantID, &sub, plan, now); err != nil {
			return nil, err
		}
		next := now.AddDate(0, 0, plan.BillingPeriodDays)
		sub.Status = domain.SubActive
		sub.LastBillingDate = &now
		sub.NextBillingDate = &next
	}

	created, err := s.subRepo.CreateSubscriptionIdempotent(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	logger.Info("Subscription started",
		slog.String("tenant_id", tenantID),
		slog.String("plan_code", plan.PlanCode),
		slog.String("status", string(created.Status)),
	)
	return created, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, tenantID string) (*domain.Subscription, error) {
	return s.subRepo.FindSubscriptionByTenantID(ctx, tenantID)
}

func (s *subscriptionService) Cancel(ctx context.Context, tenantID, userID string) (*domain.Subscription, error) {
	sub, err := s.subRepo.FindSubscriptionByTenantID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.SubCancelled {
		return sub, nil
	}
	if !sub.Status.CanTransitionTo(domain.SubCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel subscription in status %s", ErrInvalidStateTransition, sub.Status)
	}

	now := time.Now().UTC()
	sub.Status = domain.SubCancelled
	sub.CancelledAt = &now
	sub.AutoRenew = false
	if sub.EndsAt == nil {
		// Access continues until the end of the paid period.
		if sub.NextBillingDate != nil && sub.NextBillingDate.After(now) {
			sub.EndsAt = sub.NextBillingDate
		} else {
			sub.EndsAt = &now
		}
	}
	sub.LastUpdatedAt = now
	sub.LastUpdatedBy = userID

	if err := s.subRepo.UpdateSubscription(ctx, *sub); err != nil {
		return nil, err
	}
	middleware.GetLoggerFromCtx(ctx).Info("Subscription cancelled", slog.String("tenant_id", tenantID))
	return sub, nil
}

// RunSweep performs the scheduled transitions in three phases: trial expiry,
// renewals due, and past-due suspension. Each subscription is handled
// independently so one failure never blocks the rest of the sweep.
func (s *subscriptionService) RunSweep(ctx context.Context, now time.Time) (*portssvc.SweepResult, error) {
	result := &portssvc.SweepResult{}

	if err := s.sweepTrials(ctx, now, result); err != nil {
		return result, err
	}
	if err := s.sweepRenewals(ctx, now, result); err != nil {
		return result, err
	}
	if err := s.sweepPastDue(ctx, now, result); err != nil {
		return result, err
	}
	return result, nil
}

func (s *subscriptionService) sweepTrials(ctx context.Context, now time.Time, result *portssvc.SweepResult) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	subs, err := s.subRepo.ListTrialsEndingBefore(ctx, now, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list ending trials: %w", err)
	}
	for i := range subs {
		sub := subs[i]
		if !sub.AutoRenew {
			s.expireTrial(ctx, &sub, now)
			result.TrialsExpired++
			continue
		}
		switch renewErr := s.renewOne(ctx, &sub, now); {
		case renewErr == nil:
			result.TrialsActivated++
		case isBusinessFailure(renewErr):
			// A trial that ends without a successful first charge expires;
			// TRIALING never becomes PAST_DUE.
			logger.Warn("Trial activation charge declined",
				slog.String("tenant_id", sub.TenantID),
				slog.String("reason", renewErr.Error()),
			)
			s.expireTrial(ctx, &sub, now)
			result.TrialsExpired++
		}
	}
	if len(subs) > 0 {
		logger.Info("Trial sweep phase done", slog.Int("processed", len(subs)))
	}
	return nil
}

func (s *subscriptionService) sweepRenewals(ctx context.Context, now time.Time, result *portssvc.SweepResult) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	subs, err := s.subRepo.ListRenewalsDueBefore(ctx, now, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list due renewals: %w", err)
	}
	for i := range subs {
		sub := subs[i]
		switch renewErr := s.renewOne(ctx, &sub, now); {
		case renewErr == nil:
			result.Renewed++
		case isBusinessFailure(renewErr):
			s.markPastDue(ctx, &sub, now, renewErr)
			result.MarkedPastDue++
		}
	}
	if len(subs) > 0 {
		logger.Info("Renewal sweep phase done", slog.Int("processed", len(subs)))
	}
	return nil
}

func (s *subscriptionService) sweepPastDue(ctx context.Context, now time.Time, result *portssvc.SweepResult) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	cutoff := now.Add(-s.gracePeriod)
	subs, err := s.subRepo.ListPastDueSince(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list past-due subscriptions: %w", err)
	}
	for i := range subs {
		sub := subs[i]
		// One last charge attempt before suspending.
		renewErr := s.renewOne(ctx, &sub, now)
		if renewErr == nil {
			result.Renewed++
			continue
		}
		if !isBusinessFailure(renewErr) {
			continue // transient, retry next sweep
		}
		sub.Status = domain.SubSuspended
		s.persistSweepUpdate(ctx, &sub, now)
		if err := s.billingSvc.SuspendTenant(ctx, sub.TenantID, suspensionReasonPastDue, systemUserID, now); err != nil {
			logger.Error("Failed to suspend past-due tenant",
				slog.String("tenant_id", sub.TenantID),
				slog.String("error", err.Error()),
			)
		}
		result.Suspended++
	}
	if len(subs) > 0 {
		logger.Info("Past-due sweep phase done", slog.Int("processed", len(subs)))
	}
	return nil
}

// renewOne charges one billing period through the engine and advances the
// billing window on success. Failures are returned for the sweep phase to
// interpret: business failures drive a state transition there, transient
// failures leave the subscription as-is for the next sweep.
func (s *subscriptionService) renewOne(ctx context.Context, sub *domain.Subscription, now time.Time) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	plan, err := s.subRepo.FindPlanByCode(ctx, sub.PlanCode)
	if err != nil {
		logger.Error("Renewal plan lookup failed",
			slog.String("tenant_id", sub.TenantID),
			slog.String("plan_code", sub.PlanCode),
			slog.String("error", err.Error()),
		)
		return err
	}

	if err := s.chargePeriod(ctx, sub.TenantID, sub, plan, now); err != nil {
		if !isBusinessFailure(err) {
			logger.Error("Renewal charge failed transiently",
				slog.String("tenant_id", sub.TenantID),
				slog.String("error", err.Error()),
			)
		}
		return err
	}

	next := now.AddDate(0, 0, plan.BillingPeriodDays)
	sub.Status = domain.SubActive
	sub.LastBillingDate = &now
	sub.NextBillingDate = &next
	sub.PastDueSince = nil
	s.persistSweepUpdate(ctx, sub, now)
	return nil
}

func (s *subscriptionService) expireTrial(ctx context.Context, sub *domain.Subscription, now time.Time) {
	sub.Status = domain.SubExpired
	sub.EndsAt = &now
	s.persistSweepUpdate(ctx, sub, now)
}

// markPastDue records the first declined renewal; the PastDueSince anchor is
// preserved on repeated declines so the grace period keeps counting.
func (s *subscriptionService) markPastDue(ctx context.Context, sub *domain.Subscription, now time.Time, cause error) {
	middleware.GetLoggerFromCtx(ctx).Warn("Renewal charge declined",
		slog.String("tenant_id", sub.TenantID),
		slog.String("plan_code", sub.PlanCode),
		slog.String("reason", cause.Error()),
	)
	if sub.Status == domain.SubPastDue {
		return
	}
	sub.Status = domain.SubPastDue
	sub.PastDueSince = &now
	s.persistSweepUpdate(ctx, sub, now)
}

// chargePeriod debits one period's plan price from the tenant's wallet in
// the plan currency. The reference is stamped with the period start so
// retried sweeps never double-charge.
func (s *subscriptionService) chargePeriod(ctx context.Context, tenantID string, sub *domain.Subscription, plan *domain.Plan, periodStart time.Time) error {
	if plan.Price.LessThanOrEqual(decimal.Zero) {
		return nil // free plan
	}

	wallet, err := s.tenantWalletForCurrency(ctx, tenantID, plan.CurrencyCode)
	if err != nil {
		return err
	}

	reference := fmt.Sprintf("SUB:%s:%s", sub.SubscriptionID, periodStart.Format("2006-01-02"))
	_, err = s.engine.Purchase(ctx, tenantID, wallet.WalletID, dto.TransactionRequest{
		Amount:      plan.Price,
		Reference:   reference,
		Description: "Subscription renewal: " + plan.Name,
		Metadata: map[string]string{
			"subscription_id": sub.SubscriptionID,
			"plan_code":       plan.PlanCode,
		},
	}, systemUserID)
	return err
}

func (s *subscriptionService) tenantWalletForCurrency(ctx context.Context, tenantID, currencyCode string) (*domain.Wallet, error) {
	wallets, err := s.walletRepo.ListWalletsByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range wallets {
		if wallets[i].CurrencyCode == currencyCode && wallets[i].IsActive {
			return &wallets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: tenant %s, currency %s", ErrNoWalletForCurrency, tenantID, currencyCode)
}

func (s *subscriptionService) persistSweepUpdate(ctx context.Context, sub *domain.Subscription, now time.Time) {
	sub.LastUpdatedAt = now
	sub.LastUpdatedBy = systemUserID
	if err := s.subRepo.UpdateSubscription(ctx, *sub); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to persist subscription update",
			slog.String("subscription_id", sub.SubscriptionID),
			slog.String("error", err.Error()),
		)
	}
}

// isBusinessFailure distinguishes declined charges (act now: past due) from
// transient faults (retry next sweep).
func isBusinessFailure(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrCreditLimitExceeded) ||
		errors.Is(err, ErrNoWalletForCurrency) ||
		errors.Is(err, ErrWalletInactive) ||
		errors.Is(err, apperrors.ErrSuspended)
}

func (s *subscriptionService) GetTenantPlan(ctx context.Context, tenantID string) (*domain.Plan, error) {
	sub, err := s.subRepo.FindSubscriptionByTenantID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.subRepo.FindPlanByCode(ctx, sub.PlanCode)
}

// CheckEntitlement answers whether the tenant may use a feature right now.
// TRIALING, ACTIVE and PAST_DUE (within grace) subscriptions grant access;
// everything else denies with a reason.
func (s *subscriptionService) CheckEntitlement(ctx context.Context, tenantID, featureCode string) (*domain.Entitlement, error) {
	denied := func(reason string) *domain.Entitlement {
		return &domain.Entitlement{FeatureCode: featureCode, Allowed: false, Reason: reason}
	}

	sub, err := s.subRepo.FindSubscriptionByTenantID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return denied("no subscription"), nil
		}
		return nil, err
	}

	switch sub.Status {
	case domain.SubTrialing, domain.SubActive, domain.SubPastDue:
		// entitled
	case domain.SubCancelled:
		if sub.EndsAt == nil || !sub.EndsAt.After(time.Now().UTC()) {
			return denied("subscription cancelled"), nil
		}
	default:
		return denied("subscription " + string(sub.Status)), nil
	}

	plan, err := s.subRepo.FindPlanByCode(ctx, sub.PlanCode)
	if err != nil {
		return nil, err
	}
	for _, f := range plan.Features {
		if f.FeatureCode == featureCode {
			if !f.Enabled {
				return denied("feature not included in plan " + plan.PlanCode), nil
			}
			return &domain.Entitlement{FeatureCode: featureCode, Allowed: true, Limit: f.Limit}, nil
		}
	}
	return denied("feature not included in plan " + plan.PlanCode), nil
}
