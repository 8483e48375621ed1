package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shiftmarket/suspension-service/internal/observability"
)

// Expirer is the ledger-side sweep the scheduler drives.
type Expirer interface {
	ExpireDue(ctx context.Context, batchSize int) (int, error)
}

// ExpiryWorker periodically sweeps active temporary suspensions past
// their end time into the EXPIRED state. Safe to run alongside manual
// lifts: the row-level status precondition decides the winner.
type ExpiryWorker struct {
	expirer   Expirer
	logger    *zap.Logger
	metrics   *observability.Metrics
	interval  time.Duration
	batchSize int
}

// NewExpiryWorker constructs the worker.
func NewExpiryWorker(expirer Expirer, logger *zap.Logger, metrics *observability.Metrics, interval time.Duration, batchSize int) *ExpiryWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &ExpiryWorker{
		expirer:   expirer,
		logger:    logger,
		metrics:   metrics,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run sweeps on a ticker until the context is cancelled. One sweep runs
// immediately on start so restarts don't delay overdue expirations.
func (w *ExpiryWorker) Run(ctx context.Context) {
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiry worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	expired, err := w.expirer.ExpireDue(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("expiry sweep failed", zap.Error(err))
		return
	}
	w.metrics.RecordSweep(expired)
	if expired > 0 {
		w.logger.Info("expiry sweep", zap.Int("expired", expired))
	}
}
