package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/api/response"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/api/validation"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/repository"
)

// EmbeddingIndex defines the embedding maintenance operations used by EmbeddingsHandler.
type EmbeddingIndex interface {
	PersonStatus(ctx context.Context, personID string) (models.EmbeddingStatus, error)
	RebuildPerson(ctx context.Context, personID string) (bool, error)
	RebuildPersons(ctx context.Context) (*models.RebuildSummary, error)
	RebuildOpenings(ctx context.Context, onlyMissing bool, limit int) (*models.RebuildSummary, error)
}

// EmbeddingsHandler serves person and opening vector maintenance.
type EmbeddingsHandler struct {
	index EmbeddingIndex
}

// NewEmbeddingsHandler creates a new embeddings handler.
func NewEmbeddingsHandler(index EmbeddingIndex) *EmbeddingsHandler {
	return &EmbeddingsHandler{index: index}
}

// PersonStatusResponse is the response of GET /v1/embeddings/persons/{id}/status.
type PersonStatusResponse struct {
	PersonID string `json:"person_id"`
	models.EmbeddingStatus
}

// PersonRebuildResponse is the response of POST /v1/embeddings/persons/{id}/rebuild.
// Rebuilt is false when the stored vector was already current.
type PersonRebuildResponse struct {
	PersonID string `json:"person_id"`
	Rebuilt  bool   `json:"rebuilt"`
}

// RebuildOpeningsQuery holds the query parameters of POST /v1/embeddings/openings/rebuild.
type RebuildOpeningsQuery struct {
	OnlyMissing bool `form:"only_missing"`
	Limit       int  `form:"limit" validate:"gte=0"`
}

// PersonStatus handles GET /v1/embeddings/persons/{id}/status.
func (h *EmbeddingsHandler) PersonStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		response.RespondBadRequest(w, "Person ID is required")

		return
	}

	status, err := h.index.PersonStatus(r.Context(), id)
	if err != nil {
		response.RespondServiceError(w, err, "Failed to read embedding status")

		return
	}

	response.RespondJSON(w, http.StatusOK, PersonStatusResponse{PersonID: id, EmbeddingStatus: status})
}

// RebuildPerson handles POST /v1/embeddings/persons/{id}/rebuild.
func (h *EmbeddingsHandler) RebuildPerson(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		response.RespondBadRequest(w, "Person ID is required")

		return
	}

	rebuilt, err := h.index.RebuildPerson(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			response.RespondNotFound(w, "Person not found")

			return
		}

		response.RespondServiceError(w, err, "Failed to rebuild person embedding")

		return
	}

	response.RespondJSON(w, http.StatusOK, PersonRebuildResponse{PersonID: id, Rebuilt: rebuilt})
}

// RebuildPersons handles POST /v1/embeddings/persons/rebuild.
func (h *EmbeddingsHandler) RebuildPersons(w http.ResponseWriter, r *http.Request) {
	summary, err := h.index.RebuildPersons(r.Context())
	if err != nil {
		response.RespondServiceError(w, err, "Failed to rebuild person embeddings")

		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}

// RebuildOpenings handles POST /v1/embeddings/openings/rebuild.
func (h *EmbeddingsHandler) RebuildOpenings(w http.ResponseWriter, r *http.Request) {
	var query RebuildOpeningsQuery
	if err := validation.ValidateAndDecodeQueryParams(r, &query); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	summary, err := h.index.RebuildOpenings(r.Context(), query.OnlyMissing, query.Limit)
	if err != nil {
		response.RespondServiceError(w, err, "Failed to rebuild opening embeddings")

		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}
