package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/huberrors"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/matching"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

func openingFixture(qual string) *fakeOpenings {
	return &fakeOpenings{getFunc: func(_ context.Context, id string) (*models.Opening, error) {
		return &models.Opening{
			ID: id, ProjectID: "proj-1", Qualifications: qual,
			Status: models.OpeningStatusActive, MediaType: models.MediaTypeFeature,
		}, nil
	}}
}

func newTestForwardPipeline(
	openings *fakeOpenings, candidates *fakeCandidates, index *fakeIndex, outreach *fakeOutreach, results *fakeResults,
) *ForwardPipeline {
	return NewForwardPipeline(ForwardPipelineParams{
		Openings:   openings,
		Candidates: candidates,
		Index:      index,
		Feedback:   outreach,
		Profiles:   &fakeProfiles{},
		Justifier:  fakeJustifier{},
		Results:    results,
	})
}

func TestForwardPipeline_Run_EmptyCandidateSet(t *testing.T) {
	results := newFakeResults()
	index := &fakeIndex{}

	var gotCriteria matching.Criteria

	candidates := &fakeCandidates{
		filterFunc: func(_ context.Context, c matching.Criteria) ([]models.Candidate, error) {
			gotCriteria = c

			return []models.Candidate{}, nil
		},
		nearestFunc: func(context.Context, string, []string) ([]models.Neighbor, error) {
			t.Fatal("vector retrieval must not run without candidates")

			return nil, nil
		},
	}

	p := newTestForwardPipeline(openingFixture("Writer (Upper)"), candidates, index, &fakeOutreach{}, results)

	res, err := p.Run(context.Background(), "open-1")
	require.NoError(t, err)

	assert.Equal(t, "open-1", res.OpeningID)
	assert.Empty(t, res.Ranked)
	assert.NotNil(t, res.Ranked)
	assert.Empty(t, res.HonorableMentions)
	assert.NotNil(t, res.HonorableMentions)
	assert.Equal(t, 0, index.ensureCalls)
	assert.Equal(t, matching.BandUpper, gotCriteria.Band)
	assert.True(t, gotCriteria.RequireWriter)

	cached, err := p.Latest(context.Background(), "open-1")
	require.NoError(t, err)
	assert.Empty(t, cached.Result.Ranked)
}

func TestForwardPipeline_Run_UnknownOpeningCachesEmpty(t *testing.T) {
	results := newFakeResults()
	p := newTestForwardPipeline(&fakeOpenings{}, &fakeCandidates{}, &fakeIndex{}, &fakeOutreach{}, results)

	res, err := p.Run(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, res.Ranked)
	assert.Contains(t, results.forward, "missing")
}

func TestForwardPipeline_Run_RanksAndJustifies(t *testing.T) {
	const poolSize = 14

	candidates := &fakeCandidates{
		filterFunc: func(context.Context, matching.Criteria) ([]models.Candidate, error) {
			out := make([]models.Candidate, poolSize)
			for i := range out {
				out[i] = models.Candidate{PersonID: fmt.Sprintf("p%02d", i)}
			}

			return out, nil
		},
		nearestFunc: func(_ context.Context, _ string, ids []string) ([]models.Neighbor, error) {
			out := make([]models.Neighbor, len(ids))
			for i, id := range ids {
				// p13 is the most similar, p00 the least.
				out[len(ids)-1-i] = models.Neighbor{PersonID: id, Similarity: float64(i) / 100}
			}

			return out, nil
		},
	}

	positive := models.SentimentPositive
	outreach := &fakeOutreach{rows: []matching.OutreachRow{
		{PersonID: "p02", OutreachID: "o1", RecipientID: "r1", Sentiment: &positive},
		{PersonID: "p12", OutreachID: "o2", RecipientID: "r1", Sentiment: &positive},
	}}

	results := newFakeResults()
	index := &fakeIndex{}
	p := newTestForwardPipeline(openingFixture("Director (Any)"), candidates, index, outreach, results)

	res, err := p.Run(context.Background(), "open-1")
	require.NoError(t, err)

	require.Len(t, res.Ranked, matching.TopK)
	assert.Equal(t, 1, index.ensureCalls)

	for i := 1; i < len(res.Ranked); i++ {
		assert.GreaterOrEqual(t, res.Ranked[i-1].Similarity, res.Ranked[i].Similarity)
	}

	assert.Equal(t, "p13", res.Ranked[0].PersonID)

	require.Len(t, res.HonorableMentions, 1)
	assert.Equal(t, "p02", res.HonorableMentions[0].PersonID)
	assert.Equal(t, `["proj-1","p02",1]`, res.HonorableMentions[0].Justification)
	assert.Equal(t, `["proj-1","p13",0]`, res.Ranked[0].Justification)

	assert.Equal(t, DefaultForwardModel, res.Model)
	assert.NotEmpty(t, res.RunID)
	require.NotNil(t, res.Filters)
	assert.True(t, res.Filters.Quals.IsDirector)
	assert.Same(t, res, results.forward["open-1"])
}

func TestForwardPipeline_Run_CacheWriteFailure(t *testing.T) {
	results := newFakeResults()
	results.upsertErr = errors.New("db down")

	p := newTestForwardPipeline(openingFixture("Writer (Any)"), &fakeCandidates{}, &fakeIndex{}, &fakeOutreach{}, results)

	_, err := p.Run(context.Background(), "open-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache forward result")
}

func TestForwardPipeline_Latest_Missing(t *testing.T) {
	p := newTestForwardPipeline(&fakeOpenings{}, &fakeCandidates{}, &fakeIndex{}, &fakeOutreach{}, newFakeResults())

	_, err := p.Latest(context.Background(), "open-1")
	require.ErrorIs(t, err, huberrors.ErrNotFound)
	assert.Equal(t, "No cached result.", err.Error())
}

func TestForwardPipeline_ForBatch_SharesProjectProfiles(t *testing.T) {
	candidates := &fakeCandidates{
		filterFunc: func(context.Context, matching.Criteria) ([]models.Candidate, error) {
			return []models.Candidate{{PersonID: "p1"}}, nil
		},
		nearestFunc: func(context.Context, string, []string) ([]models.Neighbor, error) {
			return []models.Neighbor{{PersonID: "p1", Similarity: 0.5}}, nil
		},
	}

	profiles := &fakeProfiles{}
	p := NewForwardPipeline(ForwardPipelineParams{
		Openings:   openingFixture("Writer (Any)"),
		Candidates: candidates,
		Index:      &fakeIndex{},
		Feedback:   &fakeOutreach{},
		Profiles:   profiles,
		Justifier:  fakeJustifier{},
		Results:    newFakeResults(),
	})

	runner, err := p.ForBatch(8)
	require.NoError(t, err)

	for _, id := range []string{"open-1", "open-2", "open-3"} {
		_, err := runner.Run(context.Background(), id)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, profiles.projectCalls)
}
