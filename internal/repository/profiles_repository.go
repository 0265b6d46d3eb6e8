package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// Credits come from archived projects only; each carries the person's most recent survey ratings.
const creditsQuery = `
	SELECT p.id, p.title, COALESCE(p.media_type, ''),
	       COALESCE(array_agg(DISTINCT gt.name) FILTER (WHERE gt.name IS NOT NULL), '{}') AS tags,
	       rt.involvement_rating, rt.interest_rating
	FROM person_credits pc
	JOIN projects p ON p.id = pc.project_id
	LEFT JOIN project_genre_tags pgt ON pgt.project_id = p.id
	LEFT JOIN genre_tags gt ON gt.id = pgt.tag_id
	LEFT JOIN LATERAL (
	    SELECT spr.involvement_rating::float8 AS involvement_rating,
	           spr.interest_rating::float8 AS interest_rating
	    FROM survey_project_ratings spr
	    JOIN surveys s ON s.id = spr.survey_id
	    WHERE s.person_id = pc.person_id AND spr.project_id = p.id
	    ORDER BY s.updated_at DESC
	    LIMIT 1
	) rt ON TRUE
	WHERE pc.person_id = $1 AND p.status = $2
	GROUP BY p.id, p.title, p.media_type, rt.involvement_rating, rt.interest_rating
	ORDER BY p.id`

const interestsQuery = `
	SELECT sa.response
	FROM surveys s
	JOIN survey_answers sa ON sa.survey_id = s.id
	WHERE s.person_id = $1
	ORDER BY s.updated_at DESC, sa.id`

// ProfilesRepository assembles the project and person profiles used for justification
// and person embeddings.
type ProfilesRepository struct {
	db *pgxpool.Pool
}

// NewProfilesRepository creates a new profiles repository.
func NewProfilesRepository(db *pgxpool.Pool) *ProfilesRepository {
	return &ProfilesRepository{db: db}
}

// ProjectProfile returns the project's profile. A missing project yields a profile with only
// the id set and empty lists, which the prompt renders as unknown.
func (r *ProfilesRepository) ProjectProfile(ctx context.Context, projectID string) (models.ProjectProfile, error) {
	profile := models.ProjectProfile{
		ProjectID: projectID,
		Genres:    []string{},
		Notes:     []string{},
		Staffing:  []models.StaffingContact{},
	}

	var description *string

	err := r.db.QueryRow(ctx,
		`SELECT title, media_type, description FROM projects WHERE id = $1`, projectID,
	).Scan(&profile.Title, &profile.MediaType, &description)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return profile, fmt.Errorf("get project: %w", err)
	}

	if description != nil {
		profile.Description = *description
	}

	if profile.Genres, err = r.strings(ctx, `
		SELECT gt.name FROM project_genre_tags pgt JOIN genre_tags gt ON gt.id = pgt.tag_id
		WHERE pgt.project_id = $1 ORDER BY gt.name`, projectID); err != nil {
		return profile, fmt.Errorf("list project genres: %w", err)
	}

	if profile.Notes, err = r.strings(ctx, `
		SELECT note FROM project_notes WHERE project_id = $1
		ORDER BY created_at DESC NULLS LAST`, projectID); err != nil {
		return profile, fmt.Errorf("list project notes: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT psc.recipient_id, rc.name, rc.type
		FROM project_staffing_contacts psc
		LEFT JOIN recipients rc ON rc.id = psc.recipient_id
		WHERE psc.project_id = $1
		ORDER BY psc.recipient_id`, projectID)
	if err != nil {
		return profile, fmt.Errorf("list staffing contacts: %w", err)
	}

	profile.Staffing, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StaffingContact, error) {
		var s models.StaffingContact
		err := row.Scan(&s.RecipientID, &s.Name, &s.Type)

		return s, err
	})
	if err != nil {
		return profile, fmt.Errorf("scan staffing contacts: %w", err)
	}

	return profile, nil
}

// PersonProfile returns the person's core attributes, credits and survey interests.
// Found is false (and lists empty) when the person does not exist.
func (r *ProfilesRepository) PersonProfile(ctx context.Context, personID string) (models.PersonProfile, error) {
	profile := models.PersonProfile{
		Person:            models.Person{ID: personID},
		Credits:           []models.Credit{},
		InterestsAndGoals: []string{},
	}

	person, err := scanPerson(r.db.QueryRow(ctx, `SELECT `+personColumns+` FROM persons p WHERE p.id = $1`, personID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile, nil
		}

		return profile, fmt.Errorf("get person: %w", err)
	}

	profile.Person = person
	profile.Found = true

	rows, err := r.db.Query(ctx, creditsQuery, personID, models.ProjectStatusArchived)
	if err != nil {
		return profile, fmt.Errorf("list person credits: %w", err)
	}

	profile.Credits, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Credit, error) {
		var c models.Credit
		err := row.Scan(&c.ProjectID, &c.Title, &c.MediaType, &c.Tags, &c.InvolvementRating, &c.InterestRating)

		return c, err
	})
	if err != nil {
		return profile, fmt.Errorf("scan person credits: %w", err)
	}

	if profile.InterestsAndGoals, err = r.strings(ctx, interestsQuery, personID); err != nil {
		return profile, fmt.Errorf("list person interests: %w", err)
	}

	return profile, nil
}

func (r *ProfilesRepository) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []string{}
	}

	return out, nil
}
