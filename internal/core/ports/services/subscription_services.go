package services

import (
	"context"
	"time"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	"github.com/nexabot/wallet_billing_core/internal/dto"
)

// SweepResult summarizes the transitions one lifecycle sweep performed.
type SweepResult struct {
	TrialsActivated int
	TrialsExpired   int
	Renewed         int
	MarkedPastDue   int
	Suspended       int
}

// SubscriptionSvcFacade drives the subscription lifecycle. Renewal charges
// always go through the engine so the double-entry invariant holds
// uniformly; this facade never mutates the ledger directly.
type SubscriptionSvcFacade interface {
	// StartSubscription subscribes the tenant to a plan, opening a trial
	// window when the plan has one.
	StartSubscription(ctx context.Context, tenantID string, req dto.StartSubscriptionRequest, userID string) (*domain.Subscription, error)

	// GetSubscription retrieves the tenant's subscription.
	GetSubscription(ctx context.Context, tenantID string) (*domain.Subscription, error)

	// Cancel cancels the subscription; allowed from any state but EXPIRED.
	Cancel(ctx context.Context, tenantID, userID string) (*domain.Subscription, error)

	// RunSweep performs the scheduled transitions: trial expiry, renewals
	// and past-due suspension, as of the given instant.
	RunSweep(ctx context.Context, now time.Time) (*SweepResult, error)

	// GetTenantPlan resolves the plan the tenant is subscribed to.
	GetTenantPlan(ctx context.Context, tenantID string) (*domain.Plan, error)

	// CheckEntitlement answers whether the tenant may use a feature.
	CheckEntitlement(ctx context.Context, tenantID, featureCode string) (*domain.Entitlement, error)
}

// CurrencySvcFacade manages the supported currency registry.
type CurrencySvcFacade interface {
	CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, userID string) (*domain.Currency, error)
	GetCurrency(ctx context.Context, code string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}
