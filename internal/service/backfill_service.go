package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/huberrors"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/observability"
)

// Backfill defaults.
const (
	DefaultBackfillLimit        = 50
	DefaultBackfillPreviewLimit = 500
	DefaultBackfillWorkers      = 4
	DefaultBackfillMaxLimit     = 5000
	backfillProfileCacheSize    = 256
	backfillJobMaxAttempts      = 3
)

// BackfillStore selects the openings a backfill processes.
type BackfillStore interface {
	SelectForBackfill(ctx context.Context, trackingStatuses []string, limit int, reprocessExisting bool) ([]string, error)
	CountForBackfill(ctx context.Context, trackingStatuses []string, reprocessExisting bool) (int, error)
}

// ForwardRunner runs the forward pipeline for one opening.
type ForwardRunner interface {
	Run(ctx context.Context, openingID string) (*models.ForwardResult, error)
}

// BatchRunner hands out a ForwardRunner scoped to one batch. *ForwardPipeline satisfies it.
type BatchRunner interface {
	ForBatch(cacheSize int) (ForwardRunner, error)
}

// BackfillServiceParams holds dependencies for BackfillService.
type BackfillServiceParams struct {
	Store    BackfillStore
	Pipeline BatchRunner
	// Inserter enqueues async backfills; nil disables Enqueue.
	Inserter JobInserter
	Workers  int
	MaxLimit int
	Metrics  observability.BackfillMetrics
	Logger   *slog.Logger
}

// BackfillService runs the forward pipeline over many openings. Items commit independently;
// one failing opening never rolls back the others.
type BackfillService struct {
	store    BackfillStore
	pipeline BatchRunner
	inserter JobInserter
	workers  int
	maxLimit int
	metrics  observability.BackfillMetrics
	logger   *slog.Logger
}

// NewBackfillService creates a BackfillService.
func NewBackfillService(p BackfillServiceParams) *BackfillService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workers := p.Workers
	if workers <= 0 {
		workers = DefaultBackfillWorkers
	}

	maxLimit := p.MaxLimit
	if maxLimit <= 0 {
		maxLimit = DefaultBackfillMaxLimit
	}

	return &BackfillService{
		store:    p.Store,
		pipeline: p.Pipeline,
		inserter: p.Inserter,
		workers:  workers,
		maxLimit: maxLimit,
		metrics:  p.Metrics,
		logger:   logger,
	}
}

// normalize fills in defaults and checks the limit against the configured maximum.
func (s *BackfillService) normalize(req models.BackfillRequest, defaultLimit int) (models.BackfillRequest, error) {
	if len(req.TrackingStatuses) == 0 {
		req.TrackingStatuses = append([]string(nil), models.DefaultBackfillTrackingStatuses...)
	}

	switch {
	case req.Limit < 0:
		return req, huberrors.NewValidationError("limit", "must be positive")
	case req.Limit == 0:
		req.Limit = min(defaultLimit, s.maxLimit)
	case req.Limit > s.maxLimit:
		return req, huberrors.NewValidationError("limit", fmt.Sprintf("must be at most %d", s.maxLimit))
	}

	return req, nil
}

func summaryFor(req models.BackfillRequest) models.BackfillSummary {
	return models.BackfillSummary{
		TrackingStatuses:  req.TrackingStatuses,
		Limit:             req.Limit,
		ReprocessExisting: req.ReprocessExisting,
		DryRun:            req.DryRun,
	}
}

// Run processes one batch of eligible openings. A failing item is recorded and the batch
// continues, unless FailFast is set, in which case remaining items are cancelled.
func (s *BackfillService) Run(ctx context.Context, req models.BackfillRequest) (*models.BackfillResponse, error) {
	req, err := s.normalize(req, DefaultBackfillLimit)
	if err != nil {
		return nil, err
	}

	resp := &models.BackfillResponse{
		Summary: summaryFor(req),
		Needs:   []string{},
		Errors:  []models.BatchFailure{},
	}

	before, err := s.store.CountForBackfill(ctx, req.TrackingStatuses, req.ReprocessExisting)
	if err != nil {
		return nil, err
	}

	resp.Summary.RemainingBefore = before

	if before == 0 {
		return resp, nil
	}

	ids, err := s.store.SelectForBackfill(ctx, req.TrackingStatuses, req.Limit, req.ReprocessExisting)
	if err != nil {
		return nil, err
	}

	resp.Needs = append(resp.Needs, ids...)
	resp.Summary.Processed = len(ids)

	if req.DryRun {
		resp.Summary.RemainingAfter = before

		return resp, nil
	}

	batch, err := s.runBatch(ctx, ids, req.FailFast)
	if err != nil {
		return nil, err
	}

	generated := len(batch.Succeeded)
	resp.Summary.Generated = generated
	resp.Summary.Skipped = len(ids) - generated
	resp.Errors = append(resp.Errors, batch.Failed...)

	if req.ReprocessExisting {
		resp.Summary.RemainingAfter = max(0, before-generated)
	} else {
		after, err := s.store.CountForBackfill(ctx, req.TrackingStatuses, req.ReprocessExisting)
		if err != nil {
			return nil, err
		}

		resp.Summary.RemainingAfter = after
	}

	s.logger.Info("backfill batch finished",
		"processed", resp.Summary.Processed,
		"generated", generated,
		"failed", len(batch.Failed),
		"remaining_before", before,
		"remaining_after", resp.Summary.RemainingAfter,
	)

	return resp, nil
}

// runBatch runs the pipeline for ids on a bounded worker pool. Returned errors are only
// for failures outside the items (setup, or the parent context ending).
func (s *BackfillService) runBatch(ctx context.Context, ids []string, failFast bool) (*models.BatchResult, error) {
	runner, err := s.pipeline.ForBatch(backfillProfileCacheSize)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		batch models.BatchResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			_, runErr := runner.Run(gctx, id)

			mu.Lock()
			batch.Record(id, runErr)
			mu.Unlock()

			s.recordItem(ctx, runErr)

			if runErr != nil {
				s.logger.Error("backfill item failed", "opening_id", id, "error", runErr)

				if failFast {
					return runErr
				}
			}

			return nil
		})
	}

	// Item errors are already in batch; Wait only stops early under FailFast.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("backfill interrupted: %w", err)
	}

	return &batch, nil
}

func (s *BackfillService) recordItem(ctx context.Context, err error) {
	if s.metrics == nil {
		return
	}

	if err != nil {
		s.metrics.RecordItem(ctx, "failed")
	} else {
		s.metrics.RecordItem(ctx, "generated")
	}
}

// Preview lists the openings a backfill with the same filters would process, without running it.
func (s *BackfillService) Preview(ctx context.Context, req models.BackfillRequest) (*models.BackfillPreview, error) {
	req, err := s.normalize(req, DefaultBackfillPreviewLimit)
	if err != nil {
		return nil, err
	}

	ids, err := s.store.SelectForBackfill(ctx, req.TrackingStatuses, req.Limit, req.ReprocessExisting)
	if err != nil {
		return nil, err
	}

	if ids == nil {
		ids = []string{}
	}

	return &models.BackfillPreview{
		Count:            len(ids),
		NeedIDs:          ids,
		TrackingStatuses: req.TrackingStatuses,
		Limit:            req.Limit,
	}, nil
}

// ErrAsyncDisabled is returned by Enqueue when no job inserter is configured.
var ErrAsyncDisabled = errors.New("async backfill is not configured")

// SetInserter enables Enqueue. The River client is built after its workers, and the backfill
// worker needs this service, so the inserter is attached once the client exists.
func (s *BackfillService) SetInserter(inserter JobInserter) {
	s.inserter = inserter
}

// Enqueue validates req and schedules it as a background job. duplicate reports that an
// identical job was already pending; jobID then names that job.
func (s *BackfillService) Enqueue(ctx context.Context, req models.BackfillRequest) (jobID int64, duplicate bool, err error) {
	if s.inserter == nil {
		return 0, false, ErrAsyncDisabled
	}

	req, err = s.normalize(req, DefaultBackfillLimit)
	if err != nil {
		return 0, false, err
	}

	res, err := s.inserter.Insert(ctx, BackfillArgs{Request: req}, uniqueInsertOpts(backfillJobMaxAttempts))
	if err != nil {
		return 0, false, fmt.Errorf("enqueue backfill: %w", err)
	}

	if res.UniqueSkippedAsDuplicate {
		s.logger.Info("backfill already queued", "job_id", res.Job.ID)
	}

	return res.Job.ID, res.UniqueSkippedAsDuplicate, nil
}
