package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/matching"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// reverseQuery keeps the best opening of each project (DISTINCT ON) for the person's vector.
// Media "Other" means any media type outside Feature, TV Series and Play.
const reverseQuery = `
	WITH base AS (
	    SELECT o.id AS opening_id, p.id AS project_id, p.title AS project_title,
	           COALESCE(p.media_type, '') AS media_type, o.qualifications,
	           1 - (oe.embedding <=> pe.embedding) AS sim
	    FROM openings o
	    JOIN projects p ON p.id = o.project_id
	    JOIN opening_embeddings oe ON oe.opening_id = o.id
	    JOIN person_embeddings pe ON pe.person_id = $1
	    WHERE o.status = $2
	      AND ($3 OR p.tracking_status IS DISTINCT FROM $4)
	      AND (
	          ($5 AND p.media_type = 'Feature') OR
	          ($6 AND p.media_type = 'TV Series') OR
	          ($7 AND p.media_type = 'Play') OR
	          ($8 AND p.media_type IS DISTINCT FROM 'Feature'
	              AND p.media_type IS DISTINCT FROM 'TV Series'
	              AND p.media_type IS DISTINCT FROM 'Play')
	      )
	      AND (
	          ($9 AND o.qualifications = $10) OR
	          ($11 AND o.qualifications = $12) OR
	          o.qualifications = ANY($13) OR
	          o.qualifications = ANY($14)
	      )
	)
	SELECT DISTINCT ON (project_id)
	       opening_id, project_id, project_title, media_type, qualifications, sim
	FROM base
	ORDER BY project_id, sim DESC`

// ReverseRepository retrieves openings for a person's vector.
type ReverseRepository struct {
	db *pgxpool.Pool
}

// NewReverseRepository creates a new reverse repository.
func NewReverseRepository(db *pgxpool.Pool) *ReverseRepository {
	return &ReverseRepository{db: db}
}

func reverseArgs(q matching.ReverseQuery) []any {
	return []any{
		q.PersonID,
		models.OpeningStatusActive,
		q.IncludeArchived,
		models.TrackingStatusArchived,
		q.MediaFeature,
		q.MediaTV,
		q.MediaPlay,
		q.MediaOther,
		q.IncludeOWA,
		matching.QualificationOWA,
		q.IncludeODA,
		matching.QualificationODA,
		q.WriterQuals,
		q.DirectorQuals,
	}
}

// BestOpeningPerProject returns, for every project with a matching opening, the opening most
// similar to the person. Rows come back in project order; callers sort by similarity.
func (r *ReverseRepository) BestOpeningPerProject(ctx context.Context, q matching.ReverseQuery) ([]models.ReverseEntry, error) {
	rows, err := r.db.Query(ctx, reverseQuery, reverseArgs(q)...)
	if err != nil {
		return nil, fmt.Errorf("query best opening per project: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ReverseEntry, error) {
		var e models.ReverseEntry
		err := row.Scan(&e.OpeningID, &e.ProjectID, &e.ProjectTitle, &e.MediaType, &e.Qualification, &e.Similarity)

		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan reverse entries: %w", err)
	}

	return entries, nil
}
