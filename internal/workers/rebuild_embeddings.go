package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/repository"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/service"
)

type embeddingIndex interface {
	RebuildPerson(ctx context.Context, personID string) (bool, error)
	RebuildPersons(ctx context.Context) (*models.RebuildSummary, error)
	RebuildOpenings(ctx context.Context, onlyMissing bool, limit int) (*models.RebuildSummary, error)
}

// RebuildEmbeddingsWorker refreshes person or opening vectors.
type RebuildEmbeddingsWorker struct {
	river.WorkerDefaults[service.RebuildEmbeddingsArgs]

	index embeddingIndex
}

// NewRebuildEmbeddingsWorker creates a RebuildEmbeddingsWorker.
func NewRebuildEmbeddingsWorker(index embeddingIndex) *RebuildEmbeddingsWorker {
	return &RebuildEmbeddingsWorker{index: index}
}

const rebuildEmbeddingsTimeout = time.Hour

// Timeout limits how long a single rebuild can run.
func (w *RebuildEmbeddingsWorker) Timeout(*river.Job[service.RebuildEmbeddingsArgs]) time.Duration {
	return rebuildEmbeddingsTimeout
}

// Work dispatches on the rebuild target.
func (w *RebuildEmbeddingsWorker) Work(ctx context.Context, job *river.Job[service.RebuildEmbeddingsArgs]) error {
	args := job.Args

	var (
		summary *models.RebuildSummary
		err     error
	)

	switch {
	case args.Target == service.RebuildTargetPersons && args.PersonID != "":
		_, err = w.index.RebuildPerson(ctx, args.PersonID)
		if errors.Is(err, repository.ErrPersonNotFound) {
			slog.InfoContext(ctx, "person deleted before rebuild", "job_id", job.ID, "person_id", args.PersonID)

			return nil
		}
	case args.Target == service.RebuildTargetPersons:
		summary, err = w.index.RebuildPersons(ctx)
	case args.Target == service.RebuildTargetOpenings:
		summary, err = w.index.RebuildOpenings(ctx, args.OnlyMissing, args.Limit)
	default:
		slog.ErrorContext(ctx, "unknown rebuild target", "job_id", job.ID, "target", args.Target)

		return river.JobCancel(fmt.Errorf("unknown rebuild target %q", args.Target))
	}

	if err != nil {
		return fmt.Errorf("rebuild %s embeddings: %w", args.Target, err)
	}

	attrs := []any{"job_id", job.ID, "target", args.Target}
	if summary != nil {
		attrs = append(attrs, "rebuilt", summary.Rebuilt, "unchanged", summary.Unchanged, "failed", len(summary.Failed))
	}

	slog.InfoContext(ctx, "embedding rebuild finished", attrs...)

	return nil
}
