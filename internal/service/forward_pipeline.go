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
	"github.com/justdoitDT/demo-talent-manager-portal/pkg/cache"
)

// DefaultForwardModel names the embedding model in forward results when none is configured.
const DefaultForwardModel = "local-stub@1536"

const projectProfileCacheName = "project_profile"

// OpeningReader loads openings.
type OpeningReader interface {
	GetByID(ctx context.Context, id string) (*models.Opening, error)
}

// CandidateFinder runs eligibility filtering and vector retrieval.
type CandidateFinder interface {
	FilterCandidates(ctx context.Context, c matching.Criteria) ([]models.Candidate, error)
	NearestCandidates(ctx context.Context, openingID string, personIDs []string) ([]models.Neighbor, error)
}

// OpeningEmbedder makes sure an opening has an up-to-date vector.
type OpeningEmbedder interface {
	EnsureOpeningEmbedding(ctx context.Context, openingID, projectID string) (bool, error)
}

// OutreachReader reads outreach history towards a project's staffing contacts.
type OutreachReader interface {
	OutreachToStaffing(ctx context.Context, projectID string, personIDs []string) ([]matching.OutreachRow, error)
}

// ProfileReader builds the profiles handed to the justification generator.
type ProfileReader interface {
	ProjectProfile(ctx context.Context, projectID string) (models.ProjectProfile, error)
	PersonProfile(ctx context.Context, personID string) (models.PersonProfile, error)
}

// Justifier writes the justification text for one ranked entry. It never fails.
type Justifier interface {
	Justify(ctx context.Context, project models.ProjectProfile, person models.PersonProfile, feedback []models.FeedbackEvent) string
}

// ForwardResultStore is the forward side of the result cache.
type ForwardResultStore interface {
	UpsertForward(ctx context.Context, openingID string, params any, result *models.ForwardResult) (time.Time, error)
	LatestForward(ctx context.Context, openingID string) (*models.CachedResult[models.ForwardResult], error)
}

// ForwardPipelineParams holds dependencies for ForwardPipeline.
type ForwardPipelineParams struct {
	Openings   OpeningReader
	Candidates CandidateFinder
	Index      OpeningEmbedder
	Feedback   OutreachReader
	Profiles   ProfileReader
	Justifier  Justifier
	Results    ForwardResultStore
	// Model is recorded on results; empty means DefaultForwardModel.
	Model        string
	Metrics      observability.PipelineMetrics
	CacheMetrics observability.CacheMetrics
	Logger       *slog.Logger
}

// ForwardPipeline ranks persons for one opening and caches the result.
type ForwardPipeline struct {
	openings   OpeningReader
	candidates CandidateFinder
	index      OpeningEmbedder
	feedback   OutreachReader
	profiles   ProfileReader
	justifier  Justifier
	results    ForwardResultStore
	model      string
	metrics    observability.PipelineMetrics
	logger     *slog.Logger

	projectProfiles *cache.LoaderCache[string, models.ProjectProfile]
	cacheMetrics    observability.CacheMetrics
}

// NewForwardPipeline creates a ForwardPipeline.
func NewForwardPipeline(p ForwardPipelineParams) *ForwardPipeline {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	model := p.Model
	if model == "" {
		model = DefaultForwardModel
	}

	return &ForwardPipeline{
		openings:   p.Openings,
		candidates: p.Candidates,
		index:      p.Index,
		feedback:   p.Feedback,
		profiles:   p.Profiles,
		justifier:  p.Justifier,
		results:    p.Results,
		model:      model,
		metrics:    p.Metrics,
		logger:     logger,

		cacheMetrics: p.CacheMetrics,
	}
}

// WithProjectProfileCache returns a copy of the pipeline that loads project profiles through
// profiles. Batches share one cache so openings of the same project load it once.
func (f *ForwardPipeline) WithProjectProfileCache(
	profiles *cache.LoaderCache[string, models.ProjectProfile], m observability.CacheMetrics,
) *ForwardPipeline {
	clone := *f
	clone.projectProfiles = profiles
	clone.cacheMetrics = m

	return &clone
}

// ForBatch returns a copy of the pipeline with a fresh project profile cache of cacheSize entries.
func (f *ForwardPipeline) ForBatch(cacheSize int) (ForwardRunner, error) {
	profiles, err := cache.NewLoaderCache[string, models.ProjectProfile](cacheSize, func(id string) string { return id })
	if err != nil {
		return nil, fmt.Errorf("create project profile cache: %w", err)
	}

	return f.WithProjectProfileCache(profiles, f.cacheMetrics), nil
}

// forwardParams is the cache key of forward results; the opening alone identifies a run.
func forwardParams() map[string]any { return map[string]any{} }

// Run ranks persons for the opening. An unknown opening or an empty candidate set is a valid,
// cached empty result. Only infrastructure failures (including the cache write) return errors.
func (f *ForwardPipeline) Run(ctx context.Context, openingID string) (result *models.ForwardResult, err error) {
	ctx, span := observability.StartSpan(ctx, "forward_pipeline.run", attribute.String("opening_id", openingID))
	start := time.Now()
	outcome := "error"

	defer func() {
		observability.EndSpan(span, err)

		if f.metrics != nil {
			f.metrics.RecordRun(ctx, observability.PipelineForward, outcome, time.Since(start))
		}
	}()

	opening, err := f.openings.GetByID(ctx, openingID)
	if errors.Is(err, repository.ErrOpeningNotFound) {
		outcome = "not_found"

		return f.storeEmpty(ctx, openingID)
	}

	if err != nil {
		return nil, fmt.Errorf("load opening: %w", err)
	}

	pred := matching.ParseQualification(opening.Qualifications)
	criteria := matching.NewCriteria(pred, opening.MediaType)

	candidates, err := f.candidates.FilterCandidates(ctx, criteria)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		outcome = "empty"

		f.logger.Info("no eligible candidates", "opening_id", openingID, "qualifications", opening.Qualifications)

		return f.storeEmpty(ctx, openingID)
	}

	if _, err := f.index.EnsureOpeningEmbedding(ctx, opening.ID, opening.ProjectID); err != nil {
		return nil, fmt.Errorf("ensure opening embedding: %w", err)
	}

	ids := make([]string, len(candidates))
	availability := make(map[string]*string, len(candidates))

	for i, c := range candidates {
		ids[i] = c.PersonID
		availability[c.PersonID] = c.Availability
	}

	neighbors, err := f.candidates.NearestCandidates(ctx, opening.ID, ids)
	if err != nil {
		return nil, err
	}

	if f.metrics != nil {
		f.metrics.RecordPoolSize(ctx, observability.PipelineForward, len(neighbors))
	}

	neighborIDs := make([]string, len(neighbors))
	for i, n := range neighbors {
		neighborIDs[i] = n.PersonID
	}

	rows, err := f.feedback.OutreachToStaffing(ctx, opening.ProjectID, neighborIDs)
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}

	ranked, honorable := matching.Rank(neighbors, availability, matching.RollupFeedback(neighborIDs, rows))

	project, err := f.projectProfile(ctx, opening.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project profile: %w", err)
	}

	if err := f.justify(ctx, project, ranked); err != nil {
		return nil, err
	}

	if err := f.justify(ctx, project, honorable); err != nil {
		return nil, err
	}

	result = &models.ForwardResult{
		OpeningID:         openingID,
		RunID:             uuid.NewString(),
		Model:             f.model,
		Filters:           &models.ForwardFilters{Quals: pred.Filter()},
		Ranked:            ranked,
		HonorableMentions: honorable,
	}

	if _, err := f.results.UpsertForward(ctx, openingID, forwardParams(), result); err != nil {
		return nil, fmt.Errorf("cache forward result: %w", err)
	}

	outcome = "ranked"

	f.logger.Info("opening ranked",
		"opening_id", openingID,
		"candidates", len(candidates),
		"neighbors", len(neighbors),
		"ranked", len(ranked),
		"honorable_mentions", len(honorable),
	)

	return result, nil
}

func (f *ForwardPipeline) storeEmpty(ctx context.Context, openingID string) (*models.ForwardResult, error) {
	result := models.EmptyForwardResult(openingID)

	if _, err := f.results.UpsertForward(ctx, openingID, forwardParams(), result); err != nil {
		return nil, fmt.Errorf("cache forward result: %w", err)
	}

	return result, nil
}

func (f *ForwardPipeline) projectProfile(ctx context.Context, projectID string) (models.ProjectProfile, error) {
	if f.projectProfiles == nil {
		return f.profiles.ProjectProfile(ctx, projectID)
	}

	profile, hit, err := f.projectProfiles.GetWithStats(ctx, projectID, f.profiles.ProjectProfile)
	if err == nil && f.cacheMetrics != nil {
		if hit {
			f.cacheMetrics.RecordHit(ctx, projectProfileCacheName)
		} else {
			f.cacheMetrics.RecordMiss(ctx, projectProfileCacheName)
		}
	}

	return profile, err
}

// justify fills in the justification of every entry, using the person's feedback events
// (recipient names already resolved).
func (f *ForwardPipeline) justify(ctx context.Context, project models.ProjectProfile, entries []models.RankedEntry) error {
	for i := range entries {
		person, err := f.profiles.PersonProfile(ctx, entries[i].PersonID)
		if err != nil {
			return fmt.Errorf("load person profile: %w", err)
		}

		matching.CompleteProfile(&person)
		entries[i].Justification = f.justifier.Justify(ctx, project, person, entries[i].Feedback.Events)
	}

	return nil
}

// Latest returns the most recent cached forward result of the opening.
func (f *ForwardPipeline) Latest(ctx context.Context, openingID string) (*models.CachedResult[models.ForwardResult], error) {
	cached, err := f.results.LatestForward(ctx, openingID)
	if errors.Is(err, repository.ErrResultNotFound) {
		return nil, huberrors.NewNotFoundError("forward result", "No cached result.")
	}

	if err != nil {
		return nil, err
	}

	return cached, nil
}
