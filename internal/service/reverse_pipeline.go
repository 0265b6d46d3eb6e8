package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/huberrors"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/matching"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/observability"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/repository"
)

// ReverseModel is recorded on reverse results.
const ReverseModel = "vector-cosine"

// ErrNoPersonEmbedding is returned (and reported in ReverseResult.Error) when the person has no
// stored vector yet.
var ErrNoPersonEmbedding = errors.New("no person embedding; rebuild the profile embedding first")

// PersonReader loads persons and checks their credit history.
type PersonReader interface {
	GetByID(ctx context.Context, id string) (*models.Person, error)
	HasAnyCredit(ctx context.Context, id string) (bool, error)
}

// PersonEmbeddingStatusReader reports whether a person vector exists.
type PersonEmbeddingStatusReader interface {
	PersonEmbeddingStatus(ctx context.Context, personID string) (models.EmbeddingStatus, error)
}

// ReverseRetriever finds the best opening per project for a person.
type ReverseRetriever interface {
	BestOpeningPerProject(ctx context.Context, q matching.ReverseQuery) ([]models.ReverseEntry, error)
}

// PersonEmbedder rebuilds a person vector.
type PersonEmbedder interface {
	RebuildPerson(ctx context.Context, personID string) (bool, error)
}

// ReverseResultStore is the reverse side of the result cache.
type ReverseResultStore interface {
	UpsertReverse(ctx context.Context, personID string, filters models.ReverseFilters, result *models.ReverseResult) (time.Time, error)
	LatestReverse(ctx context.Context, personID string, filters models.ReverseFilters) (*models.CachedResult[models.ReverseResult], error)
}

// ReverseRankRequest asks for openings ranked for a person. Empty media or bucket lists mean all.
type ReverseRankRequest struct {
	PersonID         string
	MediaTypes       []string
	RoleBuckets      []string
	Limit            int
	IncludeArchived  bool
	RefreshEmbedding bool
}

// ReversePipelineParams holds dependencies for ReversePipeline.
type ReversePipelineParams struct {
	Persons    PersonReader
	Embeddings PersonEmbeddingStatusReader
	Retriever  ReverseRetriever
	Index      PersonEmbedder
	Profiles   ProfileReader
	Justifier  Justifier
	Results    ReverseResultStore
	Metrics    observability.PipelineMetrics
	Logger     *slog.Logger
}

// ReversePipeline ranks openings for one person and caches the result per filter set.
type ReversePipeline struct {
	persons    PersonReader
	embeddings PersonEmbeddingStatusReader
	retriever  ReverseRetriever
	index      PersonEmbedder
	profiles   ProfileReader
	justifier  Justifier
	results    ReverseResultStore
	metrics    observability.PipelineMetrics
	logger     *slog.Logger
}

// NewReversePipeline creates a ReversePipeline.
func NewReversePipeline(p ReversePipelineParams) *ReversePipeline {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ReversePipeline{
		persons:    p.Persons,
		embeddings: p.Embeddings,
		retriever:  p.Retriever,
		index:      p.Index,
		profiles:   p.Profiles,
		justifier:  p.Justifier,
		results:    p.Results,
		metrics:    p.Metrics,
		logger:     logger,
	}
}

// Rank is the "rank now" operation. A person without credits is rejected with NO_CREDITS.
// With RefreshEmbedding the person vector is rebuilt first; otherwise a missing vector is
// rebuilt once and the run retried. Soft failures come back in ReverseResult.Error.
func (r *ReversePipeline) Rank(ctx context.Context, req ReverseRankRequest) (*models.ReverseResult, error) {
	hasCredit, err := r.persons.HasAnyCredit(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}

	if !hasCredit {
		return nil, huberrors.NewPreconditionError(huberrors.CodeNoCredits,
			"Person has no credits. Import credits before ranking openings.")
	}

	if req.RefreshEmbedding {
		if _, err := r.index.RebuildPerson(ctx, req.PersonID); err != nil {
			r.logger.Warn("pre-refresh of person embedding failed", "person_id", req.PersonID, "error", err)
		}
	}

	filters := matching.NewReverseFilters(req.MediaTypes, req.RoleBuckets, req.IncludeArchived)

	result, err := r.Run(ctx, req.PersonID, filters, req.Limit)
	if errors.Is(err, ErrNoPersonEmbedding) && !req.RefreshEmbedding {
		if _, rebuildErr := r.index.RebuildPerson(ctx, req.PersonID); rebuildErr != nil {
			r.logger.Warn("person embedding rebuild before retry failed",
				"person_id", req.PersonID, "error", rebuildErr)
		} else {
			result, err = r.Run(ctx, req.PersonID, filters, req.Limit)
		}
	}

	if errors.Is(err, ErrNoPersonEmbedding) || errors.Is(err, repository.ErrPersonNotFound) {
		return result, nil
	}

	if err != nil {
		return nil, err
	}

	return result, nil
}

// Run ranks openings for the person under canonical filters and caches the result.
// A missing person or person vector returns a result with Error set together with
// repository.ErrPersonNotFound or ErrNoPersonEmbedding; neither is cached.
func (r *ReversePipeline) Run(
	ctx context.Context, personID string, filters models.ReverseFilters, limit int,
) (result *models.ReverseResult, err error) {
	ctx, span := observability.StartSpan(ctx, "reverse_pipeline.run", attribute.String("person_id", personID))
	start := time.Now()
	outcome := "error"

	defer func() {
		observability.EndSpan(span, err)

		if r.metrics != nil {
			r.metrics.RecordRun(ctx, observability.PipelineReverse, outcome, time.Since(start))
		}
	}()

	person, err := r.persons.GetByID(ctx, personID)
	if errors.Is(err, repository.ErrPersonNotFound) {
		outcome = "not_found"

		return failedReverse(personID, err), err
	}

	if err != nil {
		return nil, fmt.Errorf("load person: %w", err)
	}

	status, err := r.embeddings.PersonEmbeddingStatus(ctx, personID)
	if err != nil {
		return nil, err
	}

	if !status.Exists {
		outcome = "no_embedding"

		return failedReverse(personID, ErrNoPersonEmbedding), ErrNoPersonEmbedding
	}

	filters = matching.NewReverseFilters(filters.MediaTypes, filters.RoleBuckets, filters.IncludeArchived)
	query := matching.NewReverseQuery(*person, filters, limit)

	entries, err := r.retriever.BestOpeningPerProject(ctx, query)
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.RecordPoolSize(ctx, observability.PipelineReverse, len(entries))
	}

	top := matching.BestPerProject(entries, query.Limit)

	if len(top) > 0 {
		profile, err := r.profiles.PersonProfile(ctx, personID)
		if err != nil {
			return nil, fmt.Errorf("load person profile: %w", err)
		}

		matching.CompleteProfile(&profile)

		for i := range top {
			project, err := r.profiles.ProjectProfile(ctx, top[i].ProjectID)
			if err != nil {
				return nil, fmt.Errorf("load project profile: %w", err)
			}

			top[i].Justification = r.justifier.Justify(ctx, project, profile, []models.FeedbackEvent{})
		}
	}

	result = &models.ReverseResult{
		PersonID:        personID,
		RunID:           uuid.NewString(),
		Filters:         &filters,
		Ranked:          top,
		ConsideredCount: len(entries),
		Model:           ReverseModel,
	}

	runStartedAt, err := r.results.UpsertReverse(ctx, personID, filters, result)
	if err != nil {
		return nil, fmt.Errorf("cache reverse result: %w", err)
	}

	result.RunStartedAt = &runStartedAt
	outcome = "ranked"

	if len(top) == 0 {
		outcome = "empty"
	}

	r.logger.Info("openings ranked for person",
		"person_id", personID,
		"considered", len(entries),
		"ranked", len(top),
	)

	return result, nil
}

func failedReverse(personID string, err error) *models.ReverseResult {
	return &models.ReverseResult{
		PersonID: personID,
		Ranked:   []models.ReverseEntry{},
		Error:    err.Error(),
	}
}

// Cached returns the cached reverse result for exactly this filter set.
func (r *ReversePipeline) Cached(ctx context.Context, personID string, filters models.ReverseFilters) (*models.ReverseResult, error) {
	filters = matching.NewReverseFilters(filters.MediaTypes, filters.RoleBuckets, filters.IncludeArchived)

	cached, err := r.results.LatestReverse(ctx, personID, filters)
	if errors.Is(err, repository.ErrResultNotFound) {
		return nil, huberrors.NewNotFoundError("reverse result", "No cached recommendations for this filter set")
	}

	if err != nil {
		return nil, err
	}

	result := cached.Result
	result.Filters = &filters
	result.RunStartedAt = &cached.RunStartedAt

	if result.Ranked == nil {
		result.Ranked = []models.ReverseEntry{}
	}

	return &result, nil
}
