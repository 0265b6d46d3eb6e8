package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// EmbeddingsRepository handles data access for the person_embeddings and opening_embeddings tables.
type EmbeddingsRepository struct {
	db *pgxpool.Pool
}

// NewEmbeddingsRepository creates a new embeddings repository.
func NewEmbeddingsRepository(db *pgxpool.Pool) *EmbeddingsRepository {
	return &EmbeddingsRepository{db: db}
}

// UpsertPersonEmbedding stores the person vector and the hash of its inputs.
func (r *EmbeddingsRepository) UpsertPersonEmbedding(
	ctx context.Context, personID string, embedding []float32, contentHash string,
) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO person_embeddings (person_id, embedding, content_hash, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (person_id)
		DO UPDATE SET embedding = EXCLUDED.embedding, content_hash = EXCLUDED.content_hash, updated_at = now()`,
		personID, pgvector.NewVector(embedding), contentHash,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrPersonNotFound
		}

		return fmt.Errorf("person embedding upsert: %w", err)
	}

	return nil
}

// UpsertOpeningEmbedding stores the opening vector and the hash of the text it was computed from.
func (r *EmbeddingsRepository) UpsertOpeningEmbedding(
	ctx context.Context, openingID string, embedding []float32, contentHash string,
) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO opening_embeddings (opening_id, embedding, content_hash, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (opening_id)
		DO UPDATE SET embedding = EXCLUDED.embedding, content_hash = EXCLUDED.content_hash, updated_at = now()`,
		openingID, pgvector.NewVector(embedding), contentHash,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrOpeningNotFound
		}

		return fmt.Errorf("opening embedding upsert: %w", err)
	}

	return nil
}

// GetPersonEmbedding returns the stored person vector, or ErrEmbeddingNotFound.
func (r *EmbeddingsRepository) GetPersonEmbedding(ctx context.Context, personID string) (*models.StoredEmbedding, error) {
	return r.get(ctx,
		`SELECT embedding, content_hash, updated_at FROM person_embeddings WHERE person_id = $1`, personID)
}

// GetOpeningEmbedding returns the stored opening vector, or ErrEmbeddingNotFound.
func (r *EmbeddingsRepository) GetOpeningEmbedding(ctx context.Context, openingID string) (*models.StoredEmbedding, error) {
	return r.get(ctx,
		`SELECT embedding, content_hash, updated_at FROM opening_embeddings WHERE opening_id = $1`, openingID)
}

func (r *EmbeddingsRepository) get(ctx context.Context, query, id string) (*models.StoredEmbedding, error) {
	var (
		vec    pgvector.Vector
		stored models.StoredEmbedding
	)

	err := r.db.QueryRow(ctx, query, id).Scan(&vec, &stored.ContentHash, &stored.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmbeddingNotFound
		}

		return nil, fmt.Errorf("get embedding: %w", err)
	}

	stored.Vector = vec.Slice()

	return &stored, nil
}

// PersonEmbeddingStatus reports whether the person has a stored vector and when it was written.
func (r *EmbeddingsRepository) PersonEmbeddingStatus(ctx context.Context, personID string) (models.EmbeddingStatus, error) {
	var status models.EmbeddingStatus

	err := r.db.QueryRow(ctx,
		`SELECT updated_at FROM person_embeddings WHERE person_id = $1`, personID,
	).Scan(&status.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EmbeddingStatus{}, nil
		}

		return models.EmbeddingStatus{}, fmt.Errorf("person embedding status: %w", err)
	}

	status.Exists = true

	return status, nil
}

// isForeignKeyViolation reports a write for a subject the upstream tables do not hold.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
