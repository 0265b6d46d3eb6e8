package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/repository"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/service"
)

type mockBackfill struct {
	got models.BackfillRequest
	err error
}

func (m *mockBackfill) Run(_ context.Context, req models.BackfillRequest) (*models.BackfillResponse, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}

	return &models.BackfillResponse{Errors: []models.BatchFailure{{ID: "open-1", Error: "boom"}}}, nil
}

func TestBackfillWorker_Work(t *testing.T) {
	ctx := context.Background()
	args := service.BackfillArgs{Request: models.BackfillRequest{Limit: 20, ReprocessExisting: true}}

	t.Run("item failures do not fail the job", func(t *testing.T) {
		m := &mockBackfill{}
		worker := NewBackfillWorker(m)

		err := worker.Work(ctx, &river.Job[service.BackfillArgs]{JobRow: &rivertype.JobRow{}, Args: args})
		require.NoError(t, err)
		assert.Equal(t, args.Request, m.got)
	})

	t.Run("batch errors are retried", func(t *testing.T) {
		worker := NewBackfillWorker(&mockBackfill{err: errors.New("db down")})

		err := worker.Work(ctx, &river.Job[service.BackfillArgs]{JobRow: &rivertype.JobRow{}, Args: args})
		require.Error(t, err)
	})
}

type mockIndex struct {
	personFunc  func(ctx context.Context, id string) (bool, error)
	persons     int
	openings    int
	onlyMissing bool
}

func (m *mockIndex) RebuildPerson(ctx context.Context, id string) (bool, error) {
	if m.personFunc != nil {
		return m.personFunc(ctx, id)
	}

	return true, nil
}

func (m *mockIndex) RebuildPersons(context.Context) (*models.RebuildSummary, error) {
	m.persons++

	return &models.RebuildSummary{Rebuilt: 3}, nil
}

func (m *mockIndex) RebuildOpenings(_ context.Context, onlyMissing bool, _ int) (*models.RebuildSummary, error) {
	m.openings++
	m.onlyMissing = onlyMissing

	return &models.RebuildSummary{}, nil
}

func rebuildJob(args service.RebuildEmbeddingsArgs) *river.Job[service.RebuildEmbeddingsArgs] {
	return &river.Job[service.RebuildEmbeddingsArgs]{JobRow: &rivertype.JobRow{}, Args: args}
}

func TestRebuildEmbeddingsWorker_Work(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches by target", func(t *testing.T) {
		m := &mockIndex{}
		worker := NewRebuildEmbeddingsWorker(m)

		require.NoError(t, worker.Work(ctx, rebuildJob(service.RebuildEmbeddingsArgs{Target: service.RebuildTargetPersons})))
		require.NoError(t, worker.Work(ctx, rebuildJob(service.RebuildEmbeddingsArgs{
			Target: service.RebuildTargetOpenings, OnlyMissing: true,
		})))

		assert.Equal(t, 1, m.persons)
		assert.Equal(t, 1, m.openings)
		assert.True(t, m.onlyMissing)
	})

	t.Run("deleted person completes the job", func(t *testing.T) {
		worker := NewRebuildEmbeddingsWorker(&mockIndex{personFunc: func(context.Context, string) (bool, error) {
			return false, repository.ErrPersonNotFound
		}})

		err := worker.Work(ctx, rebuildJob(service.RebuildEmbeddingsArgs{Target: service.RebuildTargetPersons, PersonID: "p1"}))
		require.NoError(t, err)
	})

	t.Run("unknown target cancels", func(t *testing.T) {
		worker := NewRebuildEmbeddingsWorker(&mockIndex{})

		err := worker.Work(ctx, rebuildJob(service.RebuildEmbeddingsArgs{Target: "topics"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown rebuild target")
	})
}

func TestNightlyRebuildJobs(t *testing.T) {
	jobs := NightlyRebuildJobs(24 * time.Hour)
	assert.Len(t, jobs, 2)
}

type mockLister struct {
	jobs int
	err  error
}

func (m mockLister) JobList(context.Context, *river.JobListParams) (*river.JobListResult, error) {
	if m.err != nil {
		return nil, m.err
	}

	return &river.JobListResult{Jobs: make([]*rivertype.JobRow, m.jobs)}, nil
}

func TestQueueDepth(t *testing.T) {
	n, err := QueueDepth(mockLister{jobs: 3})(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = QueueDepth(mockLister{err: errors.New("db down")})(context.Background())
	require.Error(t, err)
}
