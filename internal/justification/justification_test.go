package justification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/openai"
)

type mockCompleter struct {
	completeFunc func(ctx context.Context, req openai.CompletionRequest) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, req openai.CompletionRequest) (string, error) {
	return m.completeFunc(ctx, req)
}

func ptr[T any](v T) *T { return &v }

func fixtures() (models.ProjectProfile, models.PersonProfile, []models.FeedbackEvent) {
	project := models.ProjectProfile{
		ProjectID:   "proj-1",
		Title:       ptr("Harbor Lights"),
		MediaType:   ptr("Feature"),
		Description: "A coastal noir.",
		Genres:      []string{"Noir", "Drama"},
		Notes:       []string{"n1", "n2"},
		Staffing:    []models.StaffingContact{{RecipientID: "rcp-1", Name: ptr("Dana Exec")}, {RecipientID: "rcp-2"}},
	}

	person := models.PersonProfile{
		Person: models.Person{ID: "per-1", Name: "Sam Writer", IsWriter: true, WriterLevel: ptr(5.5)},
		CreditsForLLM: []models.Credit{
			{Title: "Dockside", MediaType: "Feature", Tags: []string{"noir"}, Weight: 31.25},
			{Title: "Fog Line", MediaType: "TV Series", Tags: []string{"crime", "drama"}, Weight: 12},
			{Title: "Third", MediaType: "Play", Weight: 1},
		},
		InterestsAndGoals: []string{"maritime stories", "ensemble casts", "horror"},
	}

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	feedback := []models.FeedbackEvent{
		{OutreachID: "o1", RecipientID: "rcp-2", RecipientName: ptr("Zed Co"), Sentiment: ptr(models.SentimentPositive), CreatedAt: &created},
		{OutreachID: "o2", RecipientID: "rcp-1", RecipientName: ptr("Dana Exec"), Sentiment: ptr(models.SentimentPositive), FeedbackText: ptr("sharp")},
		{OutreachID: "o3", RecipientID: "rcp-1", RecipientName: ptr("Dana Exec"), Sentiment: ptr(models.SentimentPositive)},
		{OutreachID: "o4", RecipientID: "rcp-3", Sentiment: ptr(models.SentimentNotPositive)},
	}

	return project, person, feedback
}

func TestStub(t *testing.T) {
	project, person, feedback := fixtures()

	got := Stub(project, person, feedback)

	assert.Equal(t, "Sam Writer is a fit for Harbor Lights (Feature). "+
		"Relevant credits include Dockside [noir]; Fog Line [crime, drama]. "+
		"Previously received positive feedback from Dana Exec, Zed Co. "+
		"Interests: maritime stories; ensemble casts", got)

	t.Run("falls back to ids", func(t *testing.T) {
		got := Stub(models.ProjectProfile{ProjectID: "proj-9"}, models.PersonProfile{Person: models.Person{ID: "per-9"}}, nil)
		assert.Equal(t, "per-9 is a fit for proj-9 (None).", got)
	})

	t.Run("truncates long output", func(t *testing.T) {
		person := models.PersonProfile{Person: models.Person{ID: "p", Name: strings.Repeat("x", 1000)}}
		assert.Len(t, Stub(project, person, nil), maxStubLength)
	})
}

func TestBuildPrompt(t *testing.T) {
	project, person, feedback := fixtures()

	got := BuildPrompt(project, person, feedback)

	assert.Contains(t, got, "PROJECT\nTitle: Harbor Lights\nMedia: Feature\nGenres: Noir, Drama\n")
	assert.Contains(t, got, "Staffing entities: Dana Exec, rcp-2\n")
	assert.Contains(t, got, "Notes:\n- n1\n- n2\n")
	assert.Contains(t, got, "\nCLIENT\nName: Sam Writer\n")
	assert.Contains(t, got, "Roles: writer=true (level=5.5), director=false (has_feature=false)\n")
	assert.Contains(t, got, "Availability: unknown\n")
	assert.Contains(t, got, "- Dockside (Feature); tags=[noir]; weight=31.25\n")
	assert.Contains(t, got, "Interests/Goals: maritime stories; ensemble casts; horror\n")
	assert.Contains(t, got, "- 2024-03-01 12:00:00: Zed Co: positive — None\n")
	assert.Contains(t, got, "- None: rcp-3: not positive — None\n")
	assert.True(t, strings.HasSuffix(got, "Keep under ~80 words."))

	t.Run("omits empty sections", func(t *testing.T) {
		got := BuildPrompt(models.ProjectProfile{ProjectID: "p"}, models.PersonProfile{Person: models.Person{ID: "c"}}, nil)

		assert.NotContains(t, got, "Genres:")
		assert.NotContains(t, got, "Credits:")
		assert.NotContains(t, got, "Feedback from staffing entities:")
	})
}

func TestGenerator_Justify(t *testing.T) {
	project, person, feedback := fixtures()
	ctx := context.Background()

	t.Run("uses completer", func(t *testing.T) {
		var seen openai.CompletionRequest

		g := NewGenerator(&mockCompleter{completeFunc: func(_ context.Context, req openai.CompletionRequest) (string, error) {
			seen = req

			return "Strong noir fit.", nil
		}})

		got := g.Justify(ctx, project, person, feedback)

		require.Equal(t, "Strong noir fit.", got)
		assert.Equal(t, SystemPrompt, seen.System)
		assert.InDelta(t, Temperature, seen.Temperature, 1e-9)
		assert.Equal(t, MaxTokens, seen.MaxTokens)
		assert.Contains(t, seen.User, "Title: Harbor Lights")
	})

	t.Run("reports completion errors inline", func(t *testing.T) {
		g := NewGenerator(&mockCompleter{completeFunc: func(context.Context, openai.CompletionRequest) (string, error) {
			return "", errors.New("rate limited")
		}})

		assert.Equal(t, "(justification temporarily unavailable: rate limited)", g.Justify(ctx, project, person, nil))
	})

	t.Run("nil completer uses stub", func(t *testing.T) {
		g := NewGenerator(nil)

		assert.Equal(t, Stub(project, person, feedback), g.Justify(ctx, project, person, feedback))
	})
}
