package repositories

import (
	"context"
	"time"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
)

// SubscriptionReader defines read operations for subscriptions and plans.
type SubscriptionReader interface {
	// FindSubscriptionByTenantID retrieves the tenant's subscription.
	FindSubscriptionByTenantID(ctx context.Context, tenantID string) (*domain.Subscription, error)

	// ListTrialsEndingBefore retrieves TRIALING subscriptions whose trial
	// ends at or before the cutoff.
	ListTrialsEndingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Subscription, error)

	// ListRenewalsDueBefore retrieves ACTIVE, auto-renewing subscriptions
	// whose period ends at or before the cutoff.
	ListRenewalsDueBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Subscription, error)

	// ListPastDueSince retrieves PAST_DUE subscriptions uncorrected since
	// before the cutoff (grace period elapsed).
	ListPastDueSince(ctx context.Context, cutoff time.Time, limit int) ([]domain.Subscription, error)
}

// SubscriptionWriter defines write operations for subscriptions.
type SubscriptionWriter interface {
	// CreateSubscriptionIdempotent inserts a subscription unless the tenant
	// already has one, and returns the surviving row.
	CreateSubscriptionIdempotent(ctx context.Context, sub domain.Subscription) (*domain.Subscription, error)

	// UpdateSubscription persists status and billing-window changes.
	UpdateSubscription(ctx context.Context, sub domain.Subscription) error
}

// PlanReader defines read operations for the plan catalog.
type PlanReader interface {
	// FindPlanByCode retrieves a plan with its features.
	FindPlanByCode(ctx context.Context, planCode string) (*domain.Plan, error)

	// ListPlans retrieves all active plans.
	ListPlans(ctx context.Context) ([]domain.Plan, error)
}

// SubscriptionRepositoryFacade combines subscription and plan interfaces.
type SubscriptionRepositoryFacade interface {
	SubscriptionReader
	SubscriptionWriter
	PlanReader
}
