package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
)

// StartSubscriptionRequest starts a subscription on a plan for the tenant.
type StartSubscriptionRequest struct {
	PlanCode  string `json:"planCode" binding:"required"`
	AutoRenew bool   `json:"autoRenew"`
}

// SubscriptionResponse defines the subscription data returned by the API.
type SubscriptionResponse struct {
	SubscriptionID  string     `json:"subscriptionID"`
	TenantID        string     `json:"tenantID"`
	PlanCode        string     `json:"planCode"`
	Status          string     `json:"status"`
	TrialStart      *time.Time `json:"trialStart,omitempty"`
	TrialEnd        *time.Time `json:"trialEnd,omitempty"`
	StartsAt        time.Time  `json:"startsAt"`
	EndsAt          *time.Time `json:"endsAt,omitempty"`
	AutoRenew       bool       `json:"autoRenew"`
	LastBillingDate *time.Time `json:"lastBillingDate,omitempty"`
	NextBillingDate *time.Time `json:"nextBillingDate,omitempty"`
}

// PlanResponse defines the plan data returned by the API.
type PlanResponse struct {
	PlanCode          string                `json:"planCode"`
	Name              string                `json:"name"`
	Description       string                `json:"description,omitempty"`
	Price             decimal.Decimal       `json:"price"`
	CurrencyCode      string                `json:"currencyCode"`
	BillingPeriodDays int                   `json:"billingPeriodDays"`
	TrialDays         int                   `json:"trialDays"`
	Features          []PlanFeatureResponse `json:"features"`
}

// PlanFeatureResponse is one entitlement granted by a plan.
type PlanFeatureResponse struct {
	FeatureCode string `json:"featureCode"`
	Enabled     bool   `json:"enabled"`
	Limit       int64  `json:"limit"`
}

// EntitlementResponse answers a feature entitlement check.
type EntitlementResponse struct {
	FeatureCode string `json:"featureCode"`
	Allowed     bool   `json:"allowed"`
	Limit       int64  `json:"limit"`
	Reason      string `json:"reason,omitempty"`
}

// SweepResultResponse summarizes one lifecycle sweep run.
type SweepResultResponse struct {
	TrialsActivated  int `json:"trialsActivated"`
	TrialsExpired    int `json:"trialsExpired"`
	Renewed          int `json:"renewed"`
	MarkedPastDue    int `json:"markedPastDue"`
	Suspended        int `json:"suspended"`
	AccountsSweep    int `json:"accountsEvaluated"`
	AccountsSuspends int `json:"accountsSuspended"`
}

// ToSubscriptionResponse maps a domain subscription to its DTO.
func ToSubscriptionResponse(s *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		SubscriptionID:  s.SubscriptionID,
		TenantID:        s.TenantID,
		PlanCode:        s.PlanCode,
		Status:          string(s.Status),
		TrialStart:      s.TrialStart,
		TrialEnd:        s.TrialEnd,
		StartsAt:        s.StartsAt,
		EndsAt:          s.EndsAt,
		AutoRenew:       s.AutoRenew,
		LastBillingDate: s.LastBillingDate,
		NextBillingDate: s.NextBillingDate,
	}
}

// ToPlanResponse maps a domain plan to its DTO.
func ToPlanResponse(p *domain.Plan) PlanResponse {
	features := make([]PlanFeatureResponse, len(p.Features))
	for i, f := range p.Features {
		features[i] = PlanFeatureResponse{FeatureCode: f.FeatureCode, Enabled: f.Enabled, Limit: f.Limit}
	}
	return PlanResponse{
		PlanCode:          p.PlanCode,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		CurrencyCode:      p.CurrencyCode,
		BillingPeriodDays: p.BillingPeriodDays,
		TrialDays:         p.TrialDays,
		Features:          features,
	}
}

// ToEntitlementResponse maps a domain entitlement to its DTO.
func ToEntitlementResponse(e *domain.Entitlement) EntitlementResponse {
	return EntitlementResponse{
		FeatureCode: e.FeatureCode,
		Allowed:     e.Allowed,
		Limit:       e.Limit,
		Reason:      e.Reason,
	}
}
