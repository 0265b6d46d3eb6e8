package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// resultTable names a result cache table and its subject column. Both are constants,
// never user input.
type resultTable struct {
	name    string
	subject string
}

var (
	forwardResults = resultTable{name: "opening_recommendations", subject: "opening_id"}
	reverseResults = resultTable{name: "person_opening_recommendations", subject: "person_id"}
)

func (t resultTable) upsertSQL() string {
	return fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, params_json, results_json, run_started_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (%[2]s, params_json)
		DO UPDATE SET results_json = EXCLUDED.results_json, run_started_at = now()
		RETURNING run_started_at`, t.name, t.subject)
}

func (t resultTable) latestSQL(withParams bool) string {
	where := t.subject + " = $1"
	if withParams {
		where += " AND params_json = $2::jsonb"
	}

	return fmt.Sprintf(`
		SELECT params_json, results_json, run_started_at
		FROM %s
		WHERE %s
		ORDER BY run_started_at DESC
		LIMIT 1`, t.name, where)
}

// ResultsRepository is the parameter-keyed result cache. Rows are only ever inserted or
// overwritten; the engine never deletes them.
type ResultsRepository struct {
	db *pgxpool.Pool
}

// NewResultsRepository creates a new results repository.
func NewResultsRepository(db *pgxpool.Pool) *ResultsRepository {
	return &ResultsRepository{db: db}
}

func (r *ResultsRepository) upsert(ctx context.Context, t resultTable, subjectID string, params, result any) (time.Time, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return time.Time{}, fmt.Errorf("marshal params: %w", err)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return time.Time{}, fmt.Errorf("marshal result: %w", err)
	}

	var runStartedAt time.Time

	err = r.db.QueryRow(ctx, t.upsertSQL(), subjectID, string(paramsJSON), string(resultJSON)).
		Scan(&runStartedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("upsert %s: %w", t.name, err)
	}

	return runStartedAt, nil
}

func latest[T any](ctx context.Context, db *pgxpool.Pool, t resultTable, subjectID string, params any) (*models.CachedResult[T], error) {
	args := []any{subjectID}

	if params != nil {
		paramsJSON, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}

		args = append(args, string(paramsJSON))
	}

	var (
		cached     models.CachedResult[T]
		paramsRaw  []byte
		resultsRaw []byte
	)

	err := db.QueryRow(ctx, t.latestSQL(params != nil), args...).Scan(&paramsRaw, &resultsRaw, &cached.RunStartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}

		return nil, fmt.Errorf("get latest %s: %w", t.name, err)
	}

	if err := json.Unmarshal(resultsRaw, &cached.Result); err != nil {
		return nil, fmt.Errorf("unmarshal cached result: %w", err)
	}

	cached.SubjectID = subjectID
	cached.Params = paramsRaw

	return &cached, nil
}

// UpsertForward stores the forward result of an opening under params and returns the run time.
func (r *ResultsRepository) UpsertForward(
	ctx context.Context, openingID string, params any, result *models.ForwardResult,
) (time.Time, error) {
	return r.upsert(ctx, forwardResults, openingID, params, result)
}

// LatestForward returns the most recent forward result of the opening regardless of params.
func (r *ResultsRepository) LatestForward(ctx context.Context, openingID string) (*models.CachedResult[models.ForwardResult], error) {
	return latest[models.ForwardResult](ctx, r.db, forwardResults, openingID, nil)
}

// UpsertReverse stores the reverse result of a person under its canonical filters.
func (r *ResultsRepository) UpsertReverse(
	ctx context.Context, personID string, filters models.ReverseFilters, result *models.ReverseResult,
) (time.Time, error) {
	return r.upsert(ctx, reverseResults, personID, filters, result)
}

// LatestReverse returns the cached reverse result for exactly these canonical filters.
func (r *ResultsRepository) LatestReverse(
	ctx context.Context, personID string, filters models.ReverseFilters,
) (*models.CachedResult[models.ReverseResult], error) {
	return latest[models.ReverseResult](ctx, r.db, reverseResults, personID, filters)
}

// CountForward returns how many cached forward rows the opening has. Reruns with the same
// params overwrite, so this stays at one per distinct params set.
func (r *ResultsRepository) CountForward(ctx context.Context, openingID string) (int, error) {
	var n int

	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM opening_recommendations WHERE opening_id = $1`, openingID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count opening recommendations: %w", err)
	}

	return n, nil
}
