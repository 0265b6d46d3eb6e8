package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/embeddings"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/matching"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/repository"
)

// EmbeddingsStore persists person and opening vectors with their content hashes.
type EmbeddingsStore interface {
	UpsertPersonEmbedding(ctx context.Context, personID string, embedding []float32, contentHash string) error
	UpsertOpeningEmbedding(ctx context.Context, openingID string, embedding []float32, contentHash string) error
	GetPersonEmbedding(ctx context.Context, personID string) (*models.StoredEmbedding, error)
	GetOpeningEmbedding(ctx context.Context, openingID string) (*models.StoredEmbedding, error)
	PersonEmbeddingStatus(ctx context.Context, personID string) (models.EmbeddingStatus, error)
}

// OpeningContextReader reads project contexts and the openings that need vectors.
type OpeningContextReader interface {
	ProjectContext(ctx context.Context, projectID string) (models.ProjectContext, bool, error)
	ListActiveForEmbedding(ctx context.Context, onlyMissing bool, limit int) ([]models.OpeningRef, error)
}

// PersonProfileReader reads person profiles.
type PersonProfileReader interface {
	PersonProfile(ctx context.Context, personID string) (models.PersonProfile, error)
}

// ClientLister lists the persons whose vectors are maintained.
type ClientLister interface {
	ListClientIDs(ctx context.Context) ([]string, error)
}

// TextEmbedder turns texts into unit vectors, one per text. *embeddings.Provider satisfies it.
type TextEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// EmbeddingIndexServiceParams holds dependencies for EmbeddingIndexService.
type EmbeddingIndexServiceParams struct {
	Store    EmbeddingsStore
	Openings OpeningContextReader
	Profiles PersonProfileReader
	Clients  ClientLister
	Embedder TextEmbedder
	Logger   *slog.Logger
}

// EmbeddingIndexService keeps person and opening vectors in sync with their source data.
// A vector is recomputed only when the hash of its inputs changed.
type EmbeddingIndexService struct {
	store    EmbeddingsStore
	openings OpeningContextReader
	profiles PersonProfileReader
	clients  ClientLister
	embedder TextEmbedder
	logger   *slog.Logger
}

// NewEmbeddingIndexService creates an EmbeddingIndexService.
func NewEmbeddingIndexService(p EmbeddingIndexServiceParams) *EmbeddingIndexService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &EmbeddingIndexService{
		store:    p.Store,
		openings: p.Openings,
		profiles: p.Profiles,
		clients:  p.Clients,
		embedder: p.Embedder,
		logger:   logger,
	}
}

// EnsureOpeningEmbedding stores the vector of the opening's project context unless the stored one
// was computed from the same text. It reports whether a new vector was written.
func (s *EmbeddingIndexService) EnsureOpeningEmbedding(ctx context.Context, openingID, projectID string) (bool, error) {
	projectCtx, found, err := s.openings.ProjectContext(ctx, projectID)
	if err != nil {
		return false, fmt.Errorf("load project context: %w", err)
	}

	if !found {
		s.logger.Warn("project context missing, embedding empty text",
			"opening_id", openingID, "project_id", projectID)
	}

	text := matching.OpeningText(projectCtx)
	hash := embeddings.ContentHash(text)

	stored, err := s.store.GetOpeningEmbedding(ctx, openingID)

	switch {
	case err == nil && stored.ContentHash == hash:
		return false, nil
	case err != nil && !errors.Is(err, repository.ErrEmbeddingNotFound):
		return false, fmt.Errorf("load opening embedding: %w", err)
	}

	vecs, err := s.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return false, fmt.Errorf("embed opening context: %w", err)
	}

	if err := s.store.UpsertOpeningEmbedding(ctx, openingID, vecs[0], hash); err != nil {
		return false, err
	}

	return true, nil
}

// RebuildOpenings refreshes the vectors of active openings. onlyMissing restricts the run to
// openings without a vector; a non-positive limit processes all of them.
func (s *EmbeddingIndexService) RebuildOpenings(ctx context.Context, onlyMissing bool, limit int) (*models.RebuildSummary, error) {
	refs, err := s.openings.ListActiveForEmbedding(ctx, onlyMissing, limit)
	if err != nil {
		return nil, err
	}

	summary := &models.RebuildSummary{Failed: []models.BatchFailure{}, OnlyMissing: &onlyMissing}
	if limit > 0 {
		summary.Limit = &limit
	}

	var batch models.BatchResult

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed, err := s.EnsureOpeningEmbedding(ctx, ref.OpeningID, ref.ProjectID)
		batch.Record(ref.OpeningID, err)

		switch {
		case err != nil:
			s.logger.Error("opening embedding rebuild failed", "opening_id", ref.OpeningID, "error", err)
		case changed:
			summary.Rebuilt++
		default:
			summary.Unchanged++
		}
	}

	summary.Failed = append(summary.Failed, batch.Failed...)

	s.logger.Info("opening embeddings rebuilt",
		"rebuilt", summary.Rebuilt, "unchanged", summary.Unchanged, "failed", len(summary.Failed))

	return summary, nil
}

// personInputs renders everything a person vector depends on, for hashing.
func personInputs(lines []string, weights []float64, interests string) string {
	var b strings.Builder

	for i, line := range lines {
		b.WriteString(line)
		b.WriteString(" |w=")
		b.WriteString(strconv.FormatFloat(weights[i], 'g', -1, 64))
		b.WriteByte('\n')
	}

	b.WriteString("--\n")
	b.WriteString(interests)

	return b.String()
}

// RebuildPerson recomputes the person's blended vector from credits and survey interests.
// A person with neither gets the fallback vector of their id. It reports whether a new
// vector was written.
func (s *EmbeddingIndexService) RebuildPerson(ctx context.Context, personID string) (bool, error) {
	profile, err := s.profiles.PersonProfile(ctx, personID)
	if err != nil {
		return false, fmt.Errorf("load person profile: %w", err)
	}

	if !profile.Found {
		return false, repository.ErrPersonNotFound
	}

	lines := make([]string, len(profile.Credits))
	weights := make([]float64, len(profile.Credits))

	for i, c := range profile.Credits {
		lines[i] = matching.CreditLine(c)
		weights[i] = matching.CreditWeight(c.InvolvementRating, c.InterestRating)
	}

	interests := matching.InterestsText(profile.InterestsAndGoals)
	hash := embeddings.ContentHash(personInputs(lines, weights, interests))

	stored, err := s.store.GetPersonEmbedding(ctx, personID)

	switch {
	case err == nil && stored.ContentHash == hash:
		return false, nil
	case err != nil && !errors.Is(err, repository.ErrEmbeddingNotFound):
		return false, fmt.Errorf("load person embedding: %w", err)
	}

	texts := lines
	if interests != "" {
		texts = append(append([]string(nil), lines...), interests)
	}

	var vecs [][]float32
	if len(texts) > 0 {
		if vecs, err = s.embedder.EmbedTexts(ctx, texts); err != nil {
			return false, fmt.Errorf("embed person inputs: %w", err)
		}
	}

	var interestsVec []float32
	if interests != "" {
		interestsVec = vecs[len(vecs)-1]
		vecs = vecs[:len(vecs)-1]
	}

	vec, ok, err := matching.BlendPersonVector(vecs, weights, interestsVec)
	if err != nil {
		return false, fmt.Errorf("blend person vector: %w", err)
	}

	if !ok {
		vec = embeddings.FallbackVector(personID, s.embedder.Dimensions())
	}

	if err := s.store.UpsertPersonEmbedding(ctx, personID, vec, hash); err != nil {
		return false, err
	}

	return true, nil
}

// RebuildPersons rebuilds the vectors of every client. One failing person does not stop the run.
func (s *EmbeddingIndexService) RebuildPersons(ctx context.Context) (*models.RebuildSummary, error) {
	ids, err := s.clients.ListClientIDs(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.RebuildSummary{Failed: []models.BatchFailure{}}

	var batch models.BatchResult

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed, err := s.RebuildPerson(ctx, id)
		batch.Record(id, err)

		switch {
		case err != nil:
			s.logger.Error("person embedding rebuild failed", "person_id", id, "error", err)
		case changed:
			summary.Rebuilt++
		default:
			summary.Unchanged++
		}
	}

	summary.Failed = append(summary.Failed, batch.Failed...)

	s.logger.Info("person embeddings rebuilt",
		"rebuilt", summary.Rebuilt, "unchanged", summary.Unchanged, "failed", len(summary.Failed))

	return summary, nil
}

// PersonStatus reports whether the person has a stored vector.
func (s *EmbeddingIndexService) PersonStatus(ctx context.Context, personID string) (models.EmbeddingStatus, error) {
	return s.store.PersonEmbeddingStatus(ctx, personID)
}
