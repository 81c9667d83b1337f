package mapping

import (
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	"github.com/nexabot/wallet_billing_core/internal/models"
)

// ToModelSubscription converts a domain Subscription to its model
func ToModelSubscription(d domain.Subscription) models.Subscription {
	return models.Subscription{
		SubscriptionID:   d.SubscriptionID,
		TenantID:         d.TenantID,
		BillingAccountID: d.BillingAccountID,
		PlanCode:         d.PlanCode,
		Status:           models.SubscriptionStatus(d.Status),
		TrialStart:       d.TrialStart,
		TrialEnd:         d.TrialEnd,
		StartsAt:         d.StartsAt,
		EndsAt:           d.EndsAt,
		AutoRenew:        d.AutoRenew,
		LastBillingDate:  d.LastBillingDate,
		NextBillingDate:  d.NextBillingDate,
		PastDueSince:     d.PastDueSince,
		CancelledAt:      d.CancelledAt,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainSubscription converts a model Subscription to its domain form
func ToDomainSubscription(m models.Subscription) domain.Subscription {
	return domain.Subscription{
		SubscriptionID:   m.SubscriptionID,
		TenantID:         m.TenantID,
		BillingAccountID: m.BillingAccountID,
		PlanCode:         m.PlanCode,
		Status:           domain.SubscriptionStatus(m.Status),
		TrialStart:       m.TrialStart,
		TrialEnd:         m.TrialEnd,
		StartsAt:         m.StartsAt,
		EndsAt:           m.EndsAt,
		AutoRenew:        m.AutoRenew,
		LastBillingDate:  m.LastBillingDate,
		NextBillingDate:  m.NextBillingDate,
		PastDueSince:     m.PastDueSince,
		CancelledAt:      m.CancelledAt,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainSubscriptionSlice converts a slice of model subscriptions
func ToDomainSubscriptionSlice(ms []models.Subscription) []domain.Subscription {
	ds := make([]domain.Subscription, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainSubscription(m)
	}
	return ds
}

// ToDomainPlan converts a model Plan to its domain form
func ToDomainPlan(m models.Plan) domain.Plan {
	features := make([]domain.PlanFeature, len(m.Features))
	for i, f := range m.Features {
		features[i] = domain.PlanFeature{FeatureCode: f.FeatureCode, Enabled: f.Enabled, Limit: f.Limit}
	}
	return domain.Plan{
		PlanCode:          m.PlanCode,
		Name:              m.Name,
		Description:       m.Description,
		Price:             m.Price,
		CurrencyCode:      m.CurrencyCode,
		BillingPeriodDays: m.BillingPeriodDays,
		TrialDays:         m.TrialDays,
		Features:          features,
		IsActive:          m.IsActive,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}
