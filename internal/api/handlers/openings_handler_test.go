package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/huberrors"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

type mockForwardRanker struct {
	runFunc    func(ctx context.Context, openingID string) (*models.ForwardResult, error)
	latestFunc func(ctx context.Context, openingID string) (*models.CachedResult[models.ForwardResult], error)
}

func (m *mockForwardRanker) Run(ctx context.Context, openingID string) (*models.ForwardResult, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, openingID)
	}

	return models.EmptyForwardResult(openingID), nil
}

func (m *mockForwardRanker) Latest(
	ctx context.Context, openingID string,
) (*models.CachedResult[models.ForwardResult], error) {
	if m.latestFunc != nil {
		return m.latestFunc(ctx, openingID)
	}

	return nil, huberrors.NewNotFoundError("forward result", "No cached result.")
}

func TestOpeningsHandler_Rank(t *testing.T) {
	t.Run("returns the ranked result", func(t *testing.T) {
		var gotID string

		mock := &mockForwardRanker{runFunc: func(_ context.Context, id string) (*models.ForwardResult, error) {
			gotID = id
			res := models.EmptyForwardResult(id)
			res.Ranked = []models.RankedEntry{{PersonID: "p1", Scored: models.Scored{Similarity: 0.8}}}

			return res, nil
		}}

		req := httptest.NewRequest(http.MethodPost, "/v1/openings/open-1/rank", nil)
		req.SetPathValue("id", "open-1")

		rec := httptest.NewRecorder()
		NewOpeningsHandler(mock).Rank(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "open-1", gotID)

		var body models.ForwardResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Ranked, 1)
		assert.Equal(t, "p1", body.Ranked[0].PersonID)
		assert.InDelta(t, 0.8, body.Ranked[0].Similarity, 1e-9)
		assert.NotNil(t, body.HonorableMentions)
	})

	t.Run("pipeline failure returns 500 without detail", func(t *testing.T) {
		mock := &mockForwardRanker{runFunc: func(context.Context, string) (*models.ForwardResult, error) {
			return nil, errors.New("cache forward result: connection refused")
		}}

		req := httptest.NewRequest(http.MethodPost, "/v1/openings/open-1/rank", nil)
		req.SetPathValue("id", "open-1")

		rec := httptest.NewRecorder()
		NewOpeningsHandler(mock).Rank(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestOpeningsHandler_Latest(t *testing.T) {
	t.Run("missing cache row returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/openings/open-1/latest", nil)
		req.SetPathValue("id", "open-1")

		rec := httptest.NewRecorder()
		NewOpeningsHandler(&mockForwardRanker{}).Latest(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "No cached result.")
	})

	t.Run("returns the cached row", func(t *testing.T) {
		mock := &mockForwardRanker{latestFunc: func(
			_ context.Context, id string,
		) (*models.CachedResult[models.ForwardResult], error) {
			return &models.CachedResult[models.ForwardResult]{
				SubjectID: id, Params: json.RawMessage(`{}`), Result: *models.EmptyForwardResult(id),
			}, nil
		}}

		req := httptest.NewRequest(http.MethodGet, "/v1/openings/open-1/latest", nil)
		req.SetPathValue("id", "open-1")

		rec := httptest.NewRecorder()
		NewOpeningsHandler(mock).Latest(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"subject_id":"open-1"`)
	})
}
