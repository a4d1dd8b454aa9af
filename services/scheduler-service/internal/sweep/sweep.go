// Package sweep is the missed-appointment pass: active appointments whose
// slot has gone by are flipped to missed in batches on a fixed interval.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/caredent/clinic-backend/libs/db"
)

type Worker struct {
	pool      *db.Pool
	repo      *Repository
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
}

func NewWorker(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &Worker{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.sweepOnce(ctx); err != nil {
				w.logger.Error("sweep batch failed", "err", err)
			}
		}
	}
}

// sweepOnce drains all currently-overdue rows, one locked batch per
// transaction. A second pass finds nothing: missed rows no longer match the
// overdue predicate.
func (w *Worker) sweepOnce(ctx context.Context) error {
	now := time.Now().UTC()
	for {
		marked, err := w.markBatch(ctx, now)
		if err != nil {
			return err
		}
		if marked == 0 {
			return nil
		}
		w.logger.Info("appointments marked missed", "count", marked)
		if marked < int64(w.batchSize) {
			return nil
		}
	}
}

func (w *Worker) markBatch(ctx context.Context, now time.Time) (int64, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	marked, err := w.repo.MarkOverdueMissed(ctx, tx, now, w.batchSize)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return marked, nil
}
