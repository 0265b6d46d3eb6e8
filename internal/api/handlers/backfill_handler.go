package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/api/response"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/api/validation"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/service"
)

// BackfillService defines the backfill operations used by BackfillHandler.
type BackfillService interface {
	Run(ctx context.Context, req models.BackfillRequest) (*models.BackfillResponse, error)
	Preview(ctx context.Context, req models.BackfillRequest) (*models.BackfillPreview, error)
	Enqueue(ctx context.Context, req models.BackfillRequest) (jobID int64, duplicate bool, err error)
}

// BackfillHandler serves batch generation of forward results for openings without one.
type BackfillHandler struct {
	service BackfillService
}

// NewBackfillHandler creates a new backfill handler.
func NewBackfillHandler(service BackfillService) *BackfillHandler {
	return &BackfillHandler{service: service}
}

// BackfillPreviewQuery holds the query parameters of GET /v1/backfill/openings/preview.
type BackfillPreviewQuery struct {
	TrackingStatuses  []string `form:"tracking_statuses" validate:"omitempty,dive,required,max=100,no_null_bytes"`
	Limit             int      `form:"limit" validate:"gte=0"`
	ReprocessExisting bool     `form:"reprocess_existing"`
}

// BackfillJobResponse is returned when a backfill is enqueued.
type BackfillJobResponse struct {
	JobID     int64 `json:"job_id"`
	Duplicate bool  `json:"duplicate"`
}

// Run handles POST /v1/backfill/openings.
func (h *BackfillHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req models.BackfillRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	resp, err := h.service.Run(r.Context(), req)
	if err != nil {
		response.RespondServiceError(w, err, "Backfill failed")

		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

// Preview handles GET /v1/backfill/openings/preview.
func (h *BackfillHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var query BackfillPreviewQuery
	if err := validation.ValidateAndDecodeQueryParams(r, &query); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	preview, err := h.service.Preview(r.Context(), models.BackfillRequest{
		TrackingStatuses:  query.TrackingStatuses,
		Limit:             query.Limit,
		ReprocessExisting: query.ReprocessExisting,
	})
	if err != nil {
		response.RespondServiceError(w, err, "Backfill preview failed")

		return
	}

	response.RespondJSON(w, http.StatusOK, preview)
}

// Enqueue handles POST /v1/backfill/openings/async. A request identical to a pending job
// returns that job's id with duplicate=true.
func (h *BackfillHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req models.BackfillRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	jobID, duplicate, err := h.service.Enqueue(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrAsyncDisabled) {
			response.RespondError(w, http.StatusServiceUnavailable, "Service Unavailable",
				"Background jobs are not enabled")

			return
		}

		response.RespondServiceError(w, err, "Failed to enqueue backfill")

		return
	}

	response.RespondJSON(w, http.StatusAccepted, BackfillJobResponse{JobID: jobID, Duplicate: duplicate})
}
