package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reconcilable drops registry entries whose OS window vanished without a
// destroy notification. *shell.Shell satisfies it.
type Reconcilable interface {
	Reconcile(ctx context.Context) ([]string, error)
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *zap.Logger
}

// Reconciler periodically checks for state drift and corrects it.
type Reconciler struct {
	interval time.Duration
	target   Reconcilable
	logger   *zap.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, target Reconcilable) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reconciler{
		interval: interval,
		target:   target,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile(ctx context.Context) []string {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", zap.Any("error", err))
		}
	}()

	dropped, err := r.target.Reconcile(ctx)
	if err != nil {
		r.logger.Debug("reconcile skipped", zap.Error(err))
		return nil
	}
	if len(dropped) > 0 {
		r.logger.Info("reconciler: orphaned windows dropped", zap.Strings("labels", dropped))
	}
	return dropped
}

// ReconcileNow triggers an immediate reconciliation pass and returns the
// dropped labels.
func (r *Reconciler) ReconcileNow(ctx context.Context) []string {
	return r.reconcile(ctx)
}
