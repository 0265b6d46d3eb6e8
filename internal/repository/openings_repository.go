package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// OpeningsRepository reads openings and their project context.
type OpeningsRepository struct {
	db *pgxpool.Pool
}

// NewOpeningsRepository creates a new openings repository.
func NewOpeningsRepository(db *pgxpool.Pool) *OpeningsRepository {
	return &OpeningsRepository{db: db}
}

// GetByID returns the opening with its project's media type, or ErrOpeningNotFound.
func (r *OpeningsRepository) GetByID(ctx context.Context, id string) (*models.Opening, error) {
	var o models.Opening

	err := r.db.QueryRow(ctx, `
		SELECT o.id, o.project_id, o.qualifications, o.status, COALESCE(p.media_type, '')
		FROM openings o
		JOIN projects p ON p.id = o.project_id
		WHERE o.id = $1`, id,
	).Scan(&o.ID, &o.ProjectID, &o.Qualifications, &o.Status, &o.MediaType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOpeningNotFound
		}

		return nil, fmt.Errorf("get opening: %w", err)
	}

	return &o, nil
}

// ProjectContext returns the embedded fields of a project. A missing project yields a zero
// context and false.
func (r *OpeningsRepository) ProjectContext(ctx context.Context, projectID string) (models.ProjectContext, bool, error) {
	var c models.ProjectContext

	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(p.media_type, ''),
		       COALESCE(p.description, ''),
		       COALESCE((SELECT string_agg(gt.name, ', ' ORDER BY gt.name)
		                 FROM project_genre_tags pgt JOIN genre_tags gt ON gt.id = pgt.tag_id
		                 WHERE pgt.project_id = p.id), ''),
		       COALESCE((SELECT string_agg(n.note, E'\n' ORDER BY n.created_at DESC NULLS LAST)
		                 FROM project_notes n WHERE n.project_id = p.id), '')
		FROM projects p
		WHERE p.id = $1`, projectID,
	).Scan(&c.MediaType, &c.Description, &c.Genres, &c.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ProjectContext{}, false, nil
		}

		return models.ProjectContext{}, false, fmt.Errorf("get project context: %w", err)
	}

	return c, true, nil
}

// ListActiveForEmbedding returns active openings ordered by id, optionally only those without a
// stored vector. A non-positive limit means no limit.
func (r *OpeningsRepository) ListActiveForEmbedding(ctx context.Context, onlyMissing bool, limit int) ([]models.OpeningRef, error) {
	query := `
		SELECT o.id, o.project_id
		FROM openings o
		LEFT JOIN opening_embeddings oe ON oe.opening_id = o.id
		WHERE o.status = $1
		  AND (NOT $2 OR oe.opening_id IS NULL)
		ORDER BY o.id`
	args := []any{models.OpeningStatusActive, onlyMissing}

	if limit > 0 {
		query += ` LIMIT $3`

		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list openings for embedding: %w", err)
	}

	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OpeningRef, error) {
		var ref models.OpeningRef
		err := row.Scan(&ref.OpeningID, &ref.ProjectID)

		return ref, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan openings for embedding: %w", err)
	}

	return refs, nil
}

// backfillWhere selects active openings of projects in a tracking status set ($2), excluding
// openings that already have a cached forward result unless $3 (reprocess) is set.
const backfillWhere = `
	FROM openings o
	JOIN projects p ON p.id = o.project_id
	WHERE o.status = $1
	  AND p.tracking_status = ANY($2)
	  AND ($3 OR NOT EXISTS (SELECT 1 FROM opening_recommendations r WHERE r.opening_id = o.id))`

// SelectForBackfill returns up to limit eligible opening ids, ordered by id.
func (r *OpeningsRepository) SelectForBackfill(
	ctx context.Context, trackingStatuses []string, limit int, reprocessExisting bool,
) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT o.id`+backfillWhere+` ORDER BY o.id LIMIT $4`,
		models.OpeningStatusActive, trackingStatuses, reprocessExisting, limit)
	if err != nil {
		return nil, fmt.Errorf("select openings for backfill: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan backfill opening ids: %w", err)
	}

	return ids, nil
}

// CountForBackfill counts the openings a backfill with the same filters would consider.
func (r *OpeningsRepository) CountForBackfill(
	ctx context.Context, trackingStatuses []string, reprocessExisting bool,
) (int, error) {
	var n int

	err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+backfillWhere,
		models.OpeningStatusActive, trackingStatuses, reprocessExisting,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count openings for backfill: %w", err)
	}

	return n, nil
}
