package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/matching"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/repository"
)

type fakeOpenings struct {
	getFunc func(ctx context.Context, id string) (*models.Opening, error)
}

func (f *fakeOpenings) GetByID(ctx context.Context, id string) (*models.Opening, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, id)
	}

	return nil, repository.ErrOpeningNotFound
}

type fakeCandidates struct {
	filterFunc  func(ctx context.Context, c matching.Criteria) ([]models.Candidate, error)
	nearestFunc func(ctx context.Context, openingID string, personIDs []string) ([]models.Neighbor, error)
}

func (f *fakeCandidates) FilterCandidates(ctx context.Context, c matching.Criteria) ([]models.Candidate, error) {
	if f.filterFunc != nil {
		return f.filterFunc(ctx, c)
	}

	return nil, nil
}

func (f *fakeCandidates) NearestCandidates(ctx context.Context, openingID string, personIDs []string) ([]models.Neighbor, error) {
	if f.nearestFunc != nil {
		return f.nearestFunc(ctx, openingID, personIDs)
	}

	return nil, nil
}

type fakeIndex struct {
	mu            sync.Mutex
	ensureCalls   int
	rebuildCalls  int
	ensureFunc    func(ctx context.Context, openingID, projectID string) (bool, error)
	rebuildPerson func(ctx context.Context, personID string) (bool, error)
}

func (f *fakeIndex) EnsureOpeningEmbedding(ctx context.Context, openingID, projectID string) (bool, error) {
	f.mu.Lock()
	f.ensureCalls++
	f.mu.Unlock()

	if f.ensureFunc != nil {
		return f.ensureFunc(ctx, openingID, projectID)
	}

	return false, nil
}

func (f *fakeIndex) RebuildPerson(ctx context.Context, personID string) (bool, error) {
	f.mu.Lock()
	f.rebuildCalls++
	f.mu.Unlock()

	if f.rebuildPerson != nil {
		return f.rebuildPerson(ctx, personID)
	}

	return true, nil
}

type fakeOutreach struct {
	rows []matching.OutreachRow
}

func (f *fakeOutreach) OutreachToStaffing(_ context.Context, _ string, _ []string) ([]matching.OutreachRow, error) {
	return f.rows, nil
}

type fakeProfiles struct {
	mu           sync.Mutex
	projectCalls int
}

func (f *fakeProfiles) ProjectProfile(_ context.Context, projectID string) (models.ProjectProfile, error) {
	f.mu.Lock()
	f.projectCalls++
	f.mu.Unlock()

	return models.ProjectProfile{ProjectID: projectID, Genres: []string{}, Notes: []string{}}, nil
}

func (f *fakeProfiles) PersonProfile(_ context.Context, personID string) (models.PersonProfile, error) {
	return models.PersonProfile{Person: models.Person{ID: personID}, Found: true}, nil
}

// fakeJustifier writes "<project>/<person>/<n events>".
type fakeJustifier struct{}

func (fakeJustifier) Justify(
	_ context.Context, project models.ProjectProfile, person models.PersonProfile, feedback []models.FeedbackEvent,
) string {
	b, _ := json.Marshal([]any{project.ProjectID, person.ID, len(feedback)})

	return string(b)
}

type reverseKey struct {
	personID string
	params   string
}

// fakeResults keeps one row per (subject, params) like the real tables.
type fakeResults struct {
	mu        sync.Mutex
	now       time.Time
	forward   map[string]*models.ForwardResult
	reverse   map[reverseKey]*models.ReverseResult
	upsertErr error
}

func newFakeResults() *fakeResults {
	return &fakeResults{
		now:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		forward: map[string]*models.ForwardResult{},
		reverse: map[reverseKey]*models.ReverseResult{},
	}
}

func (f *fakeResults) UpsertForward(_ context.Context, openingID string, _ any, result *models.ForwardResult) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertErr != nil {
		return time.Time{}, f.upsertErr
	}

	f.forward[openingID] = result

	return f.now, nil
}

func (f *fakeResults) LatestForward(_ context.Context, openingID string) (*models.CachedResult[models.ForwardResult], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.forward[openingID]
	if !ok {
		return nil, repository.ErrResultNotFound
	}

	return &models.CachedResult[models.ForwardResult]{
		SubjectID: openingID, Params: json.RawMessage(`{}`), Result: *r, RunStartedAt: f.now,
	}, nil
}

func filtersKey(f models.ReverseFilters) string {
	b, _ := json.Marshal(f)

	return string(b)
}

func (f *fakeResults) UpsertReverse(
	_ context.Context, personID string, filters models.ReverseFilters, result *models.ReverseResult,
) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertErr != nil {
		return time.Time{}, f.upsertErr
	}

	f.reverse[reverseKey{personID, filtersKey(filters)}] = result

	return f.now, nil
}

func (f *fakeResults) LatestReverse(
	_ context.Context, personID string, filters models.ReverseFilters,
) (*models.CachedResult[models.ReverseResult], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.reverse[reverseKey{personID, filtersKey(filters)}]
	if !ok {
		return nil, repository.ErrResultNotFound
	}

	return &models.CachedResult[models.ReverseResult]{
		SubjectID: personID, Result: *r, RunStartedAt: f.now,
	}, nil
}
