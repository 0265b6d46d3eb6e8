package handlers

import (
	"context"
	"net/http"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/api/response"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// ForwardRanker defines the forward pipeline operations used by OpeningsHandler.
type ForwardRanker interface {
	Run(ctx context.Context, openingID string) (*models.ForwardResult, error)
	Latest(ctx context.Context, openingID string) (*models.CachedResult[models.ForwardResult], error)
}

// OpeningsHandler serves ranking of persons for one opening.
type OpeningsHandler struct {
	ranker ForwardRanker
}

// NewOpeningsHandler creates a new openings handler.
func NewOpeningsHandler(ranker ForwardRanker) *OpeningsHandler {
	return &OpeningsHandler{ranker: ranker}
}

// Rank handles POST /v1/openings/{id}/rank.
// An unknown opening is not an error: it yields (and caches) an empty result.
func (h *OpeningsHandler) Rank(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		response.RespondBadRequest(w, "Opening ID is required")

		return
	}

	result, err := h.ranker.Run(r.Context(), id)
	if err != nil {
		response.RespondServiceError(w, err, "Failed to rank opening")

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Latest handles GET /v1/openings/{id}/latest.
func (h *OpeningsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		response.RespondBadRequest(w, "Opening ID is required")

		return
	}

	cached, err := h.ranker.Latest(r.Context(), id)
	if err != nil {
		response.RespondServiceError(w, err, "Failed to load cached result")

		return
	}

	response.RespondJSON(w, http.StatusOK, cached)
}
