package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus tracks the lifecycle of a tenant's subscription.
type SubscriptionStatus string

// Subscription represents a row in the subscriptions table.
type Subscription struct {
	SubscriptionID   string             `db:"subscription_id"`
	TenantID         string             `db:"tenant_id"`
	BillingAccountID string             `db:"billing_account_id"`
	PlanCode         string             `db:"plan_code"`
	Status           SubscriptionStatus `db:"status"`
	TrialStart       *time.Time         `db:"trial_start"`
	TrialEnd         *time.Time         `db:"trial_end"`
	StartsAt         time.Time          `db:"starts_at"`
	EndsAt           *time.Time         `db:"ends_at"`
	AutoRenew        bool               `db:"auto_renew"`
	LastBillingDate  *time.Time         `db:"last_billing_date"`
	NextBillingDate  *time.Time         `db:"next_billing_date"`
	PastDueSince     *time.Time         `db:"past_due_since"`
	CancelledAt      *time.Time         `db:"cancelled_at"`
	AuditFields
}

// Plan represents a row in the plans table. Features are stored as JSONB.
type Plan struct {
	PlanCode          string          `db:"plan_code"`
	Name              string          `db:"name"`
	Description       string          `db:"description"`
	Price             decimal.Decimal `db:"price"`
	CurrencyCode      string          `db:"currency_code"`
	BillingPeriodDays int             `db:"billing_period_days"`
	TrialDays         int             `db:"trial_days"`
	Features          []PlanFeature   `db:"features"`
	IsActive          bool            `db:"is_active"`
	AuditFields
}

// PlanFeature is one entitlement granted by a plan, serialized into the
// plan's features JSONB column.
type PlanFeature struct {
	FeatureCode string `json:"featureCode"`
	Enabled     bool   `json:"enabled"`
	Limit       int64  `json:"limit"`
}
