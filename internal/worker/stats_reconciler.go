package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/repository"
)

const reconcileTimeout = 30 * time.Second

// StatsReconciler is the part of the ticket service the reconciler drives.
type StatsReconciler interface {
	ReconcileStats(ctx context.Context) ([]repository.StatusDrift, error)
}

// StatsReconcileWorker periodically rewrites drifted ticket_stats rows.
type StatsReconcileWorker struct {
	cron       *cron.Cron
	reconciler StatsReconciler
	logger     *zap.Logger
}

// NewStatsReconcileWorker schedules reconciliation on a cron schedule such as "@every 15m".
func NewStatsReconcileWorker(schedule string, reconciler StatsReconciler, logger *zap.Logger) (*StatsReconcileWorker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &StatsReconcileWorker{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		reconciler: reconciler,
		logger:     logger,
	}
	if _, err := w.cron.AddFunc(schedule, func() { w.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return w, nil
}

// Start runs one reconciliation immediately, then hands off to the scheduler.
func (w *StatsReconcileWorker) Start(ctx context.Context) {
	w.RunOnce(ctx)
	w.cron.Start()
	w.logger.Info("stats reconciler started", zap.Int("jobs", len(w.cron.Entries())))
}

// RunOnce performs a single reconciliation pass and returns the number of repaired rows.
func (w *StatsReconcileWorker) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, reconcileTimeout)
	defer cancel()

	drift, err := w.reconciler.ReconcileStats(ctx)
	if err != nil {
		w.logger.Error("stats reconciliation failed", zap.Error(err))
		return 0
	}
	if len(drift) > 0 {
		w.logger.Info("stats reconciliation repaired ledger", zap.Int("rows", len(drift)))
	}
	return len(drift)
}

// Stop halts the scheduler and waits for a running pass, bounded by ctx.
func (w *StatsReconcileWorker) Stop(ctx context.Context) error {
	done := w.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
