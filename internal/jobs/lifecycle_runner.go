package jobs

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/middleware"
)

// systemUserID attributes sweep-driven writes in audit fields.
const systemUserID = "system"

// LifecycleRunner periodically runs the subscription sweep and the credit
// re-evaluation pass. It is the only caller of RunSweep in the process, so
// a single instance per deployment keeps sweeps from racing each other.
type LifecycleRunner struct {
	subscriptionService portssvc.SubscriptionSvcFacade
	billingService      portssvc.BillingSvcFacade
	interval            time.Duration
	logger              *slog.Logger
}

// NewLifecycleRunner creates a runner that ticks at the given interval.
func NewLifecycleRunner(
	subscriptionService portssvc.SubscriptionSvcFacade,
	billingService portssvc.BillingSvcFacade,
	interval time.Duration,
	logger *slog.Logger,
) *LifecycleRunner {
	return &LifecycleRunner{
		subscriptionService: subscriptionService,
		billingService:      billingService,
		interval:            interval,
		logger:              logger.With(slog.String("component", "lifecycle_runner")),
	}
}

// Start runs the sweep loop until ctx is cancelled. It performs one sweep
// immediately on startup so a restarted process catches up without waiting
// a full interval.
func (r *LifecycleRunner) Start(ctx context.Context) {
	r.logger.Info("Lifecycle runner started", slog.Duration("interval", r.interval))

	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Lifecycle runner stopping")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *LifecycleRunner) runOnce(ctx context.Context) {
	start := time.Now()
	sweepLogger := r.logger.With(slog.String("sweep_id", start.UTC().Format(time.RFC3339)))
	ctx = middleware.WithLogger(ctx, sweepLogger)

	result, err := r.subscriptionService.RunSweep(ctx, start)
	if err != nil {
		sweepLogger.Error("Subscription sweep failed", slog.String("error", err.Error()))
	} else {
		sweepLogger.Info("Subscription sweep completed",
			slog.Int("trials_activated", result.TrialsActivated),
			slog.Int("trials_expired", result.TrialsExpired),
			slog.Int("renewed", result.Renewed),
			slog.Int("marked_past_due", result.MarkedPastDue),
			slog.Int("suspended", result.Suspended),
		)
	}

	suspended, err := r.billingService.EvaluateAllOverLimit(ctx, systemUserID)
	if err != nil {
		sweepLogger.Error("Credit evaluation sweep failed", slog.String("error", err.Error()))
	} else if suspended > 0 {
		sweepLogger.Info("Credit evaluation sweep completed", slog.Int("suspended", suspended))
	}

	sweepLogger.Info("Lifecycle pass finished", slog.Duration("elapsed", time.Since(start)))
}
