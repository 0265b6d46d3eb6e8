package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/repository"
)

type mockEmbeddingIndex struct {
	mock.Mock
}

func (m *mockEmbeddingIndex) PersonStatus(ctx context.Context, personID string) (models.EmbeddingStatus, error) {
	args := m.Called(ctx, personID)

	return args.Get(0).(models.EmbeddingStatus), args.Error(1)
}

func (m *mockEmbeddingIndex) RebuildPerson(ctx context.Context, personID string) (bool, error) {
	args := m.Called(ctx, personID)

	return args.Bool(0), args.Error(1)
}

func (m *mockEmbeddingIndex) RebuildPersons(ctx context.Context) (*models.RebuildSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.RebuildSummary), args.Error(1)
}

func (m *mockEmbeddingIndex) RebuildOpenings(ctx context.Context, onlyMissing bool, limit int) (*models.RebuildSummary, error) {
	args := m.Called(ctx, onlyMissing, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.RebuildSummary), args.Error(1)
}

func TestEmbeddingsHandler_PersonStatus(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	index := &mockEmbeddingIndex{}
	index.On("PersonStatus", mock.Anything, "person-1").
		Return(models.EmbeddingStatus{Exists: true, UpdatedAt: &updated}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/embeddings/persons/person-1/status", nil)
	req.SetPathValue("id", "person-1")

	rec := httptest.NewRecorder()
	NewEmbeddingsHandler(index).PersonStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "person-1", body["person_id"])
	assert.Equal(t, true, body["exists"])
	assert.Equal(t, "2026-03-01T12:00:00Z", body["updated_at"])
	index.AssertExpectations(t)
}

func TestEmbeddingsHandler_RebuildPerson(t *testing.T) {
	t.Run("rebuilt", func(t *testing.T) {
		index := &mockEmbeddingIndex{}
		index.On("RebuildPerson", mock.Anything, "person-1").Return(true, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/embeddings/persons/person-1/rebuild", nil)
		req.SetPathValue("id", "person-1")

		rec := httptest.NewRecorder()
		NewEmbeddingsHandler(index).RebuildPerson(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"person_id":"person-1","rebuilt":true}`, rec.Body.String())
		index.AssertExpectations(t)
	})

	t.Run("unknown person returns 404", func(t *testing.T) {
		index := &mockEmbeddingIndex{}
		index.On("RebuildPerson", mock.Anything, "ghost").Return(false, repository.ErrPersonNotFound)

		req := httptest.NewRequest(http.MethodPost, "/v1/embeddings/persons/ghost/rebuild", nil)
		req.SetPathValue("id", "ghost")

		rec := httptest.NewRecorder()
		NewEmbeddingsHandler(index).RebuildPerson(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEmbeddingsHandler_RebuildPersons(t *testing.T) {
	index := &mockEmbeddingIndex{}
	index.On("RebuildPersons", mock.Anything).
		Return(&models.RebuildSummary{Rebuilt: 3, Failed: []models.BatchFailure{}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/embeddings/persons/rebuild", nil)

	rec := httptest.NewRecorder()
	NewEmbeddingsHandler(index).RebuildPersons(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rebuilt":3`)
}

func TestEmbeddingsHandler_RebuildOpenings(t *testing.T) {
	t.Run("parses query flags", func(t *testing.T) {
		index := &mockEmbeddingIndex{}
		index.On("RebuildOpenings", mock.Anything, true, 25).
			Return(&models.RebuildSummary{Rebuilt: 1, Failed: []models.BatchFailure{}}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/embeddings/openings/rebuild?only_missing=true&limit=25", nil)

		rec := httptest.NewRecorder()
		NewEmbeddingsHandler(index).RebuildOpenings(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		index.AssertExpectations(t)
	})

	t.Run("negative limit returns 400", func(t *testing.T) {
		index := &mockEmbeddingIndex{}

		req := httptest.NewRequest(http.MethodPost, "/v1/embeddings/openings/rebuild?limit=-1", nil)

		rec := httptest.NewRecorder()
		NewEmbeddingsHandler(index).RebuildOpenings(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		index.AssertNotCalled(t, "RebuildOpenings", mock.Anything, mock.Anything, mock.Anything)
	})
}
