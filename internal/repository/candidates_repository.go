package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/matching"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// candidateQuery mirrors matching.Criteria.Rule: every flag that is false disables its clause.
// A banded writer rule rejects a null level because the comparison yields NULL.
const candidateQuery = `
	SELECT p.id, p.availability
	FROM persons p
	WHERE p.client_status = $1
	  AND (NOT $2 OR p.tv_acceptable)
	  AND (NOT $3 OR p.is_director)
	  AND (NOT $4 OR p.has_directed_feature)
	  AND (NOT $5 OR p.is_writer)
	  AND ($6::float8 IS NULL OR p.writer_level >= $6::float8)
	  AND ($7::float8 IS NULL OR p.writer_level <= $7::float8)
	ORDER BY p.id`

const nearestQuery = `
	SELECT pe.person_id, COALESCE(1 - (pe.embedding <=> oe.embedding), 0.0) AS sim
	FROM person_embeddings pe
	JOIN opening_embeddings oe ON oe.opening_id = $1
	WHERE pe.person_id = ANY($2)
	ORDER BY pe.embedding <=> oe.embedding
	LIMIT $3`

// CandidatesRepository runs eligibility filtering and vector retrieval for openings.
type CandidatesRepository struct {
	db *pgxpool.Pool
}

// NewCandidatesRepository creates a new candidates repository.
func NewCandidatesRepository(db *pgxpool.Pool) *CandidatesRepository {
	return &CandidatesRepository{db: db}
}

// candidateArgs renders criteria into the positional parameters of candidateQuery.
func candidateArgs(c matching.Criteria) []any {
	lo, hi := c.LevelBounds()

	return []any{
		models.ClientStatusClient,
		c.RequireTVAcceptable,
		c.RequireDirector,
		c.RequireFeature,
		c.RequireWriter,
		lo,
		hi,
	}
}

// FilterCandidates returns the persons satisfying the criteria, with their availability.
func (r *CandidatesRepository) FilterCandidates(ctx context.Context, c matching.Criteria) ([]models.Candidate, error) {
	rows, err := r.db.Query(ctx, candidateQuery, candidateArgs(c)...)
	if err != nil {
		return nil, fmt.Errorf("filter candidates: %w", err)
	}

	candidates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Candidate, error) {
		var cand models.Candidate
		err := row.Scan(&cand.PersonID, &cand.Availability)

		return cand, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan candidates: %w", err)
	}

	return candidates, nil
}

// NearestCandidates returns up to matching.NeighborPoolSize persons among personIDs closest to the
// opening's stored vector, most similar first. Persons without a stored vector are skipped;
// an opening without one yields no rows.
func (r *CandidatesRepository) NearestCandidates(
	ctx context.Context, openingID string, personIDs []string,
) ([]models.Neighbor, error) {
	if len(personIDs) == 0 {
		return []models.Neighbor{}, nil
	}

	rows, err := r.db.Query(ctx, nearestQuery, openingID, personIDs, matching.NeighborPoolSize)
	if err != nil {
		return nil, fmt.Errorf("nearest candidates: %w", err)
	}

	neighbors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Neighbor, error) {
		var n models.Neighbor
		err := row.Scan(&n.PersonID, &n.Similarity)

		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan nearest candidates: %w", err)
	}

	return neighbors, nil
}
