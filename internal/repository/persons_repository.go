package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

const personColumns = `p.id, p.name, COALESCE(p.client_status, ''), p.tv_acceptable, p.is_writer,
	p.is_director, p.writer_level::float8, p.has_directed_feature, p.availability`

// PersonsRepository reads person records owned by the CRUD layer.
type PersonsRepository struct {
	db *pgxpool.Pool
}

// NewPersonsRepository creates a new persons repository.
func NewPersonsRepository(db *pgxpool.Pool) *PersonsRepository {
	return &PersonsRepository{db: db}
}

func scanPerson(row pgx.Row) (models.Person, error) {
	var p models.Person

	err := row.Scan(&p.ID, &p.Name, &p.ClientStatus, &p.TVAcceptable, &p.IsWriter,
		&p.IsDirector, &p.WriterLevel, &p.HasDirectedFeature, &p.Availability)

	return p, err
}

// GetByID returns the person or ErrPersonNotFound.
func (r *PersonsRepository) GetByID(ctx context.Context, id string) (*models.Person, error) {
	p, err := scanPerson(r.db.QueryRow(ctx, `SELECT `+personColumns+` FROM persons p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPersonNotFound
		}

		return nil, fmt.Errorf("get person: %w", err)
	}

	return &p, nil
}

// HasAnyCredit reports whether the person has at least one credit of any kind.
func (r *PersonsRepository) HasAnyCredit(ctx context.Context, id string) (bool, error) {
	var exists bool

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM person_credits WHERE person_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check person credits: %w", err)
	}

	return exists, nil
}

// ListClientIDs returns the ids of all current clients, ordered by id.
func (r *PersonsRepository) ListClientIDs(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, `SELECT id FROM persons WHERE client_status = $1 ORDER BY id`, models.ClientStatusClient)
}

// ListAllIDs returns every person id, ordered by id.
func (r *PersonsRepository) ListAllIDs(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, `SELECT id FROM persons ORDER BY id`)
}

func (r *PersonsRepository) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list person ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan person ids: %w", err)
	}

	return ids, nil
}
