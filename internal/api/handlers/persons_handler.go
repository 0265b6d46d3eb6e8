package handlers

import (
	"context"
	"net/http"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/api/response"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/api/validation"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/matching"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/service"
)

// ReverseRanker defines the reverse pipeline operations used by PersonsHandler.
type ReverseRanker interface {
	Rank(ctx context.Context, req service.ReverseRankRequest) (*models.ReverseResult, error)
	Cached(ctx context.Context, personID string, filters models.ReverseFilters) (*models.ReverseResult, error)
}

// PersonsHandler serves ranking of openings for one person.
type PersonsHandler struct {
	ranker ReverseRanker
}

// NewPersonsHandler creates a new persons handler.
func NewPersonsHandler(ranker ReverseRanker) *PersonsHandler {
	return &PersonsHandler{ranker: ranker}
}

// ReverseRankBody is the body of POST /v1/persons/{id}/openings/rank. Each flag selects one
// media type or role bucket; no flag set in a group means the whole group.
type ReverseRankBody struct {
	MediaFeature bool `json:"mt_feature"`
	MediaTV      bool `json:"mt_tv"`
	MediaPlay    bool `json:"mt_play"`
	MediaOther   bool `json:"mt_other"`

	QualOWA      bool `json:"q_owa"`
	QualODA      bool `json:"q_oda"`
	QualStaff    bool `json:"q_staff"`
	QualDirector bool `json:"q_dir"`

	// Accepted for client compatibility; the server derives qualification labels itself.
	WriterQualList   []string `json:"writer_qual_list"`
	DirectorQualList []string `json:"director_qual_list"`

	Limit            int   `json:"limit" validate:"gte=0,lte=200"`
	RefreshEmbedding bool  `json:"refresh_embedding"`
	IncludeArchived  *bool `json:"include_archived"`
}

func (b ReverseRankBody) mediaTypes() []string {
	var out []string

	for _, f := range []struct {
		on    bool
		value string
	}{
		{b.MediaFeature, models.MediaTypeFeature},
		{b.MediaTV, models.MediaTypeTVSeries},
		{b.MediaPlay, models.MediaTypePlay},
		{b.MediaOther, models.MediaTypeOther},
	} {
		if f.on {
			out = append(out, f.value)
		}
	}

	return out
}

func (b ReverseRankBody) roleBuckets() []string {
	var out []string

	if b.QualOWA {
		out = append(out, matching.BucketOWA)
	}

	if b.QualODA {
		out = append(out, matching.BucketODA)
	}

	if b.QualStaff {
		out = append(out, matching.BucketStaffWriter)
	}

	if b.QualDirector {
		out = append(out, matching.BucketDirector)
	}

	return out
}

// ReverseFiltersBody is the body of POST /v1/persons/{id}/openings/lookup.
type ReverseFiltersBody struct {
	MediaTypes      []string `json:"media_type_filter" validate:"dive,media_type"`
	RoleBuckets     []string `json:"qualifications_filter" validate:"dive,role_bucket"`
	IncludeArchived *bool    `json:"include_archived"`
}

// ReverseFiltersQuery holds the query parameters of GET /v1/persons/{id}/openings/latest.
type ReverseFiltersQuery struct {
	MediaTypes      []string `form:"media_type_filter" validate:"dive,media_type"`
	RoleBuckets     []string `form:"qualifications_filter" validate:"dive,role_bucket"`
	IncludeArchived *bool    `form:"include_archived"`
}

// includeArchived defaults to true when the client leaves it out.
func includeArchived(v *bool) bool {
	return v == nil || *v
}

// Rank handles POST /v1/persons/{id}/openings/rank.
func (h *PersonsHandler) Rank(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		response.RespondBadRequest(w, "Person ID is required")

		return
	}

	var body ReverseRankBody
	if err := validation.DecodeJSON(r, &body); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	result, err := h.ranker.Rank(r.Context(), service.ReverseRankRequest{
		PersonID:         id,
		MediaTypes:       body.mediaTypes(),
		RoleBuckets:      body.roleBuckets(),
		Limit:            body.Limit,
		IncludeArchived:  includeArchived(body.IncludeArchived),
		RefreshEmbedding: body.RefreshEmbedding,
	})
	if err != nil {
		response.RespondServiceError(w, err, "Failed to rank openings for person")

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Lookup handles POST /v1/persons/{id}/openings/lookup.
func (h *PersonsHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		response.RespondBadRequest(w, "Person ID is required")

		return
	}

	var body ReverseFiltersBody
	if err := validation.DecodeJSON(r, &body); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	h.respondCached(w, r, id, body.MediaTypes, body.RoleBuckets, includeArchived(body.IncludeArchived))
}

// Latest handles GET /v1/persons/{id}/openings/latest.
func (h *PersonsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		response.RespondBadRequest(w, "Person ID is required")

		return
	}

	var query ReverseFiltersQuery
	if err := validation.ValidateAndDecodeQueryParams(r, &query); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	h.respondCached(w, r, id, query.MediaTypes, query.RoleBuckets, includeArchived(query.IncludeArchived))
}

func (h *PersonsHandler) respondCached(
	w http.ResponseWriter, r *http.Request, personID string, media, buckets []string, withArchived bool,
) {
	result, err := h.ranker.Cached(r.Context(), personID, models.ReverseFilters{
		MediaTypes:      media,
		RoleBuckets:     buckets,
		IncludeArchived: withArchived,
	})
	if err != nil {
		response.RespondServiceError(w, err, "Failed to load cached recommendations")

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
