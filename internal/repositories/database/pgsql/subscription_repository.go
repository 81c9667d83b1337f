package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexabot/wallet_billing_core/internal/apperrors"
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	portsrepo "github.com/nexabot/wallet_billing_core/internal/core/ports/repositories"
	"github.com/nexabot/wallet_billing_core/internal/models"
	"github.com/nexabot/wallet_billing_core/internal/utils/mapping"
)

type PgxSubscriptionRepository struct {
	BaseRepository
}

// newPgxSubscriptionRepository creates a new repository for subscriptions and plans.
func newPgxSubscriptionRepository(pool *pgxpool.Pool) portsrepo.SubscriptionRepositoryFacade {
	return &PgxSubscriptionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SubscriptionRepositoryFacade = (*PgxSubscriptionRepository)(nil)

const subscriptionColumns = `subscription_id, tenant_id, billing_account_id, plan_code, status, trial_start, trial_end, starts_at, ends_at, auto_renew, last_billing_date, next_billing_date, past_due_since, cancelled_at, created_at, created_by, last_updated_at, last_updated_by`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var m models.Subscription
	err := row.Scan(
		&m.SubscriptionID,
		&m.TenantID,
		&m.BillingAccountID,
		&m.PlanCode,
		&m.Status,
		&m.TrialStart,
		&m.TrialEnd,
		&m.StartsAt,
		&m.EndsAt,
		&m.AutoRenew,
		&m.LastBillingDate,
		&m.NextBillingDate,
		&m.PastDueSince,
		&m.CancelledAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindSubscriptionByTenantID retrieves the tenant's subscription.
func (r *PgxSubscriptionRepository) FindSubscriptionByTenantID(ctx context.Context, tenantID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE tenant_id = $1;`

	m, err := scanSubscription(r.Pool.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find subscription for tenant "+tenantID, err)
	}

	sub := mapping.ToDomainSubscription(*m)
	return &sub, nil
}

func (r *PgxSubscriptionRepository) querySubscriptions(ctx context.Context, query string, args ...any) ([]domain.Subscription, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query subscriptions", err)
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		m, err := scanSubscription(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan subscription row", err)
		}
		subs = append(subs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading subscription rows", err)
	}
	return mapping.ToDomainSubscriptionSlice(subs), nil
}

// ListTrialsEndingBefore retrieves TRIALING subscriptions whose trial ends at
// or before the cutoff.
func (r *PgxSubscriptionRepository) ListTrialsEndingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'TRIALING' AND trial_end <= $1
		ORDER BY trial_end
		LIMIT $2;
	`
	return r.querySubscriptions(ctx, query, cutoff, limit)
}

// ListRenewalsDueBefore retrieves ACTIVE, auto-renewing subscriptions whose
// period ends at or before the cutoff.
func (r *PgxSubscriptionRepository) ListRenewalsDueBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'ACTIVE' AND auto_renew = TRUE AND next_billing_date <= $1
		ORDER BY next_billing_date
		LIMIT $2;
	`
	return r.querySubscriptions(ctx, query, cutoff, limit)
}

// ListPastDueSince retrieves PAST_DUE subscriptions uncorrected since before
// the cutoff (grace period elapsed).
func (r *PgxSubscriptionRepository) ListPastDueSince(ctx context.Context, cutoff time.Time, limit int) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'PAST_DUE' AND past_due_since <= $1
		ORDER BY past_due_since
		LIMIT $2;
	`
	return r.querySubscriptions(ctx, query, cutoff, limit)
}

// CreateSubscriptionIdempotent inserts a subscription unless the tenant
// already has one, and returns the surviving row.
func (r *PgxSubscriptionRepository) CreateSubscriptionIdempotent(ctx context.Context, sub domain.Subscription) (*domain.Subscription, error) {
	m := mapping.ToModelSubscription(sub)
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.SubscriptionID,
		m.TenantID,
		m.BillingAccountID,
		m.PlanCode,
		m.Status,
		m.TrialStart,
		m.TrialEnd,
		m.StartsAt,
		m.EndsAt,
		m.AutoRenew,
		m.LastBillingDate,
		m.NextBillingDate,
		m.PastDueSince,
		m.CancelledAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return r.FindSubscriptionByTenantID(ctx, sub.TenantID)
		}
		return nil, apperrors.NewAppError(500, "failed to insert subscription "+m.SubscriptionID, err)
	}
	return &sub, nil
}

// UpdateSubscription persists status and billing-window changes.
func (r *PgxSubscriptionRepository) UpdateSubscription(ctx context.Context, sub domain.Subscription) error {
	m := mapping.ToModelSubscription(sub)
	query := `
		UPDATE subscriptions
		SET status = $2, trial_start = $3, trial_end = $4, ends_at = $5, auto_renew = $6,
		    last_billing_date = $7, next_billing_date = $8, past_due_since = $9, cancelled_at = $10,
		    last_updated_at = $11, last_updated_by = $12
		WHERE subscription_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.SubscriptionID,
		m.Status,
		m.TrialStart,
		m.TrialEnd,
		m.EndsAt,
		m.AutoRenew,
		m.LastBillingDate,
		m.NextBillingDate,
		m.PastDueSince,
		m.CancelledAt,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update subscription "+m.SubscriptionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const planColumns = `plan_code, name, description, price, currency_code, billing_period_days, trial_days, features, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanPlan(row pgx.Row) (*models.Plan, error) {
	var m models.Plan
	var featuresJSON []byte
	err := row.Scan(
		&m.PlanCode,
		&m.Name,
		&m.Description,
		&m.Price,
		&m.CurrencyCode,
		&m.BillingPeriodDays,
		&m.TrialDays,
		&featuresJSON,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &m.Features); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// FindPlanByCode retrieves a plan with its features.
func (r *PgxSubscriptionRepository) FindPlanByCode(ctx context.Context, planCode string) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE plan_code = $1;`

	m, err := scanPlan(r.Pool.QueryRow(ctx, query, planCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find plan "+planCode, err)
	}

	plan := mapping.ToDomainPlan(*m)
	return &plan, nil
}

// ListPlans retrieves all active plans.
func (r *PgxSubscriptionRepository) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE is_active = TRUE ORDER BY plan_code;`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query plans", err)
	}
	defer rows.Close()

	plans := []domain.Plan{}
	for rows.Next() {
		m, err := scanPlan(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan plan row", err)
		}
		plans = append(plans, mapping.ToDomainPlan(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading plan rows", err)
	}
	return plans, nil
}
