package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-tracker/internal/domain"
	"github.com/spec-kit/sla-tracker/internal/service"
)

// Runner executes one evaluation run.
type Runner interface {
	Run(ctx context.Context, req service.RunRequest) (*domain.Snapshot, error)
}

// Notifier subscribes breach and snapshot notifications to the event dispatcher.
type Notifier interface {
	RegisterHandlers()
}

// Start subscribes the notifier before launching the scheduled evaluation loop so
// the first scheduled snapshot already reaches notification handlers. Notifications
// stay registered for manual runs even when scheduling is disabled.
func Start(ctx context.Context, runner Runner, notifier Notifier, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	if notifier != nil {
		notifier.RegisterHandlers()
	}
	return StartSnapshotWorker(ctx, runner, interval, logger)
}

// StartSnapshotWorker runs a scheduled evaluation every interval until ctx is done.
// The returned channel closes when the loop exits. A non-positive interval
// disables the worker.
func StartSnapshotWorker(ctx context.Context, runner Runner, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if runner == nil || interval <= 0 {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("snapshot worker started", zap.Duration("interval", interval))
		for {
			select {
			case <-ctx.Done():
				logger.Info("snapshot worker stopped")
				return
			case <-ticker.C:
				if _, err := runner.Run(ctx, service.RunRequest{Trigger: domain.TriggerScheduled}); err != nil {
					logger.Warn("scheduled evaluation failed", zap.Error(err))
				}
			}
		}
	}()
	return done
}
