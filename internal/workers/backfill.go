// Package workers provides River job workers (async backfill, embedding rebuilds).
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/service"
)

// backfillRunner is the minimal interface needed by the worker.
type backfillRunner interface {
	Run(ctx context.Context, req models.BackfillRequest) (*models.BackfillResponse, error)
}

// BackfillWorker runs one queued backfill batch.
type BackfillWorker struct {
	river.WorkerDefaults[service.BackfillArgs]

	backfill backfillRunner
}

// NewBackfillWorker creates a BackfillWorker.
func NewBackfillWorker(backfill backfillRunner) *BackfillWorker {
	return &BackfillWorker{backfill: backfill}
}

const backfillTimeout = 30 * time.Minute

// Timeout limits how long a single backfill batch can run.
func (w *BackfillWorker) Timeout(*river.Job[service.BackfillArgs]) time.Duration {
	return backfillTimeout
}

// Work runs the batch. Item failures are part of the result and do not fail the job;
// only errors outside the items (selection, counting, cancellation) are retried.
func (w *BackfillWorker) Work(ctx context.Context, job *river.Job[service.BackfillArgs]) error {
	resp, err := w.backfill.Run(ctx, job.Args.Request)
	if err != nil {
		slog.ErrorContext(ctx, "backfill job failed", "job_id", job.ID, "attempt", job.Attempt, "error", err)

		return err
	}

	slog.InfoContext(ctx, "backfill job finished",
		"job_id", job.ID,
		"processed", resp.Summary.Processed,
		"generated", resp.Summary.Generated,
		"failed", len(resp.Errors),
		"remaining_after", resp.Summary.RemainingAfter,
	)

	return nil
}
