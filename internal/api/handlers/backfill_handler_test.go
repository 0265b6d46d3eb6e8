package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/huberrors"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/service"
)

type mockBackfillService struct {
	runFunc     func(ctx context.Context, req models.BackfillRequest) (*models.BackfillResponse, error)
	previewFunc func(ctx context.Context, req models.BackfillRequest) (*models.BackfillPreview, error)
	enqueueFunc func(ctx context.Context, req models.BackfillRequest) (int64, bool, error)
}

func (m *mockBackfillService) Run(ctx context.Context, req models.BackfillRequest) (*models.BackfillResponse, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, req)
	}

	return &models.BackfillResponse{Needs: []string{}, Errors: []models.BatchFailure{}}, nil
}

func (m *mockBackfillService) Preview(ctx context.Context, req models.BackfillRequest) (*models.BackfillPreview, error) {
	if m.previewFunc != nil {
		return m.previewFunc(ctx, req)
	}

	return &models.BackfillPreview{NeedIDs: []string{}}, nil
}

func (m *mockBackfillService) Enqueue(ctx context.Context, req models.BackfillRequest) (int64, bool, error) {
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, req)
	}

	return 0, false, service.ErrAsyncDisabled
}

func TestBackfillHandler_Run(t *testing.T) {
	t.Run("decodes the request", func(t *testing.T) {
		var got models.BackfillRequest

		mock := &mockBackfillService{runFunc: func(_ context.Context, req models.BackfillRequest) (*models.BackfillResponse, error) {
			got = req

			return &models.BackfillResponse{
				Summary: models.BackfillSummary{Processed: 2, Generated: 2},
				Needs:   []string{"o1", "o2"},
				Errors:  []models.BatchFailure{},
			}, nil
		}}

		body := `{"tracking_statuses":["Active"],"limit":2,"dry_run":true,"reprocess_existing":true}`
		req := httptest.NewRequest(http.MethodPost, "/v1/backfill/openings", strings.NewReader(body))

		rec := httptest.NewRecorder()
		NewBackfillHandler(mock).Run(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.BackfillRequest{
			TrackingStatuses: []string{"Active"}, Limit: 2, DryRun: true, ReprocessExisting: true,
		}, got)

		var resp models.BackfillResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Summary.Generated)
		assert.Equal(t, []string{"o1", "o2"}, resp.Needs)
	})

	t.Run("limit over the maximum returns 400", func(t *testing.T) {
		mock := &mockBackfillService{runFunc: func(context.Context, models.BackfillRequest) (*models.BackfillResponse, error) {
			return nil, huberrors.NewValidationError("limit", "limit must be at most 5000")
		}}

		req := httptest.NewRequest(http.MethodPost, "/v1/backfill/openings", strings.NewReader(`{"limit":9000}`))

		rec := httptest.NewRecorder()
		NewBackfillHandler(mock).Run(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty body uses defaults", func(t *testing.T) {
		called := false
		mock := &mockBackfillService{runFunc: func(_ context.Context, req models.BackfillRequest) (*models.BackfillResponse, error) {
			called = true

			assert.Equal(t, models.BackfillRequest{}, req)

			return &models.BackfillResponse{}, nil
		}}

		req := httptest.NewRequest(http.MethodPost, "/v1/backfill/openings", http.NoBody)

		rec := httptest.NewRecorder()
		NewBackfillHandler(mock).Run(rec, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestBackfillHandler_Preview(t *testing.T) {
	var got models.BackfillRequest

	mock := &mockBackfillService{previewFunc: func(_ context.Context, req models.BackfillRequest) (*models.BackfillPreview, error) {
		got = req

		return &models.BackfillPreview{Count: 1, NeedIDs: []string{"o1"}}, nil
	}}

	target := "/v1/backfill/openings/preview?tracking_statuses=Active&tracking_statuses=Priority&limit=10&reprocess_existing=true"
	req := httptest.NewRequest(http.MethodGet, target, nil)

	rec := httptest.NewRecorder()
	NewBackfillHandler(mock).Preview(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Active", "Priority"}, got.TrackingStatuses)
	assert.Equal(t, 10, got.Limit)
	assert.True(t, got.ReprocessExisting)
	assert.Contains(t, rec.Body.String(), `"need_ids":["o1"]`)
}

func TestBackfillHandler_Enqueue(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		mock := &mockBackfillService{enqueueFunc: func(context.Context, models.BackfillRequest) (int64, bool, error) {
			return 42, true, nil
		}}

		req := httptest.NewRequest(http.MethodPost, "/v1/backfill/openings/async", strings.NewReader(`{}`))

		rec := httptest.NewRecorder()
		NewBackfillHandler(mock).Enqueue(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)

		var resp BackfillJobResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, BackfillJobResponse{JobID: 42, Duplicate: true}, resp)
	})

	t.Run("jobs disabled returns 503", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/backfill/openings/async", strings.NewReader(`{}`))

		rec := httptest.NewRecorder()
		NewBackfillHandler(&mockBackfillService{}).Enqueue(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
