package domain

import "github.com/shopspring/decimal"

// Plan is a billing plan from the catalog. Price is charged per billing
// period through the wallet transaction engine on renewal.
type Plan struct {
	PlanCode          string          `json:"planCode"` // Primary Key (e.g. "starter", "pro")
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	CurrencyCode      string          `json:"currencyCode"`
	BillingPeriodDays int             `json:"billingPeriodDays"` // Length of one cycle
	TrialDays         int             `json:"trialDays"`
	Features          []PlanFeature   `json:"features"`
	IsActive          bool            `json:"isActive"`
	AuditFields
}

// PlanFeature is one entitlement granted by a plan. A Limit of zero with
// Enabled=true means unlimited use of the feature.
type PlanFeature struct {
	FeatureCode string `json:"featureCode"`
	Enabled     bool   `json:"enabled"`
	Limit       int64  `json:"limit"`
}

// Entitlement is the answer to "may this tenant use this feature".
type Entitlement struct {
	FeatureCode string `json:"featureCode"`
	Allowed     bool   `json:"allowed"`
	Limit       int64  `json:"limit"`
	Reason      string `json:"reason,omitempty"`
}
