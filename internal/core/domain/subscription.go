package domain

import "time"

// SubscriptionStatus tracks the lifecycle of a tenant's subscription.
type SubscriptionStatus string

const (
	SubTrialing  SubscriptionStatus = "TRIALING"
	SubActive    SubscriptionStatus = "ACTIVE"
	SubPastDue   SubscriptionStatus = "PAST_DUE"
	SubCancelled SubscriptionStatus = "CANCELLED"
	SubExpired   SubscriptionStatus = "EXPIRED"
	SubSuspended SubscriptionStatus = "SUSPENDED"
)

// subscriptionTransitions is the exhaustive transition table driven by the
// lifecycle sweep and explicit cancellation. CANCELLED is reachable from any
// state except EXPIRED.
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubTrialing:  {SubActive, SubExpired, SubCancelled},
	SubActive:    {SubActive, SubPastDue, SubExpired, SubCancelled},
	SubPastDue:   {SubActive, SubSuspended, SubCancelled},
	SubSuspended: {SubActive, SubCancelled},
	SubCancelled: {},
	SubExpired:   {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s admits no further transitions.
func (s SubscriptionStatus) IsTerminal() bool {
	return len(subscriptionTransitions[s]) == 0
}

// Subscription is the single active subscription row for a tenant's billing
// account. Renewal charges always go through the wallet transaction engine.
type Subscription struct {
	SubscriptionID   string             `json:"subscriptionID"` // Primary Key (UUID)
	TenantID         string             `json:"tenantID"`       // Unique per tenant
	BillingAccountID string             `json:"billingAccountID"`
	PlanCode         string             `json:"planCode"`
	Status           SubscriptionStatus `json:"status"`
	TrialStart       *time.Time         `json:"trialStart,omitempty"`
	TrialEnd         *time.Time         `json:"trialEnd,omitempty"`
	StartsAt         time.Time          `json:"startsAt"`
	EndsAt           *time.Time         `json:"endsAt,omitempty"`
	AutoRenew        bool               `json:"autoRenew"`
	LastBillingDate  *time.Time         `json:"lastBillingDate,omitempty"`
	NextBillingDate  *time.Time         `json:"nextBillingDate,omitempty"`
	PastDueSince     *time.Time         `json:"pastDueSince,omitempty"` // Grace period anchor
	CancelledAt      *time.Time         `json:"cancelledAt,omitempty"`
	AuditFields
}
