package reconciler

import (
	"context"
	"sync"
	"time"

	"bank-reconciliation-engine/pkg/logger"
)

// Worker runs the reconciliation cycle for every open reconciliation on a
// fixed interval. Reconciliations are processed independently through a
// bounded pool; a per-reconciliation lock guarantees that no two concurrent
// runs touch the same reconciliation, and a cycle still running when the next
// tick fires is skipped rather than queued.
type Worker struct {
	service *Service
	logger  logger.Logger

	// locks maps reconciliation ID -> *sync.Mutex
	locks sync.Map
}

// NewWorker creates a periodic worker around the given service
func NewWorker(service *Service) *Worker {
	return &Worker{
		service: service,
		logger:  logger.GetGlobalLogger().WithComponent("worker"),
	}
}

// Run blocks, scanning open reconciliations on the configured interval until
// the context is cancelled. The first scan runs immediately.
func (w *Worker) Run(ctx context.Context) error {
	interval := w.service.Config().ScanInterval
	w.logger.WithField("interval", interval.String()).Info("Starting reconciliation worker")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Reconciliation worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan runs one cycle for every open reconciliation. Failures on one
// reconciliation are logged and never abort the rest of the batch.
func (w *Worker) Scan(ctx context.Context) {
	reconciliations, err := w.service.store.ListOpenReconciliations(ctx)
	if err != nil {
		w.logger.WithError(err).Error("Failed to list open reconciliations; skipping scan")
		return
	}

	if len(reconciliations) == 0 {
		return
	}

	w.logger.WithField("count", len(reconciliations)).Debug("Scanning open reconciliations")

	sem := make(chan struct{}, w.service.Config().Concurrency)
	var wg sync.WaitGroup

	for _, rec := range reconciliations {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()
			w.runLocked(ctx, id)
		}(rec.ID)
	}

	wg.Wait()
}

// runLocked runs one cycle while holding the reconciliation's lock.
// If the lock is already held the cycle is skipped; the next tick picks the
// reconciliation up again.
func (w *Worker) runLocked(ctx context.Context, reconciliationID string) {
	lock := w.lockFor(reconciliationID)
	if !lock.TryLock() {
		w.logger.WithField("reconciliation_id", reconciliationID).
			Debug("Cycle already running; skipping")
		return
	}
	defer lock.Unlock()

	if _, err := w.service.RunCycleOnce(ctx, reconciliationID); err != nil {
		w.logger.WithError(err).WithField("reconciliation_id", reconciliationID).
			Error("Reconciliation cycle failed; will retry on next tick")
	}
}

func (w *Worker) lockFor(reconciliationID string) *sync.Mutex {
	actual, _ := w.locks.LoadOrStore(reconciliationID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
