package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

func client(id string, mutate func(*models.Person)) models.Person {
	p := models.Person{ID: id, ClientStatus: models.ClientStatusClient}
	if mutate != nil {
		mutate(&p)
	}

	return p
}

func TestCriteriaRule(t *testing.T) {
	t.Run("non clients never match", func(t *testing.T) {
		rule := NewCriteria(Predicate{}, models.MediaTypeFeature).Rule()
		p := client("p1", func(p *models.Person) { p.ClientStatus = "former" })

		assert.False(t, rule.Match(p))
		assert.Equal(t, "active_client", FirstFailing(rule, p).Name())
	})

	t.Run("tv series requires tv acceptable", func(t *testing.T) {
		rule := NewCriteria(Predicate{}, models.MediaTypeTVSeries).Rule()

		assert.False(t, rule.Match(client("p1", nil)))
		assert.True(t, rule.Match(client("p2", func(p *models.Person) { p.TVAcceptable = true })))
	})

	t.Run("director with feature requirement", func(t *testing.T) {
		rule := NewCriteria(ParseQualification("Director (Has Directed Feature)"), models.MediaTypeFeature).Rule()

		noFeature := client("p1", func(p *models.Person) { p.IsDirector = true })
		withFeature := client("p2", func(p *models.Person) {
			p.IsDirector = true
			p.HasDirectedFeature = true
		})

		assert.False(t, rule.Match(noFeature))
		assert.Equal(t, "has_directed_feature", FirstFailing(rule, noFeature).Name())
		assert.True(t, rule.Match(withFeature))
	})

	t.Run("writer band rejects unknown level", func(t *testing.T) {
		rule := NewCriteria(ParseQualification("Writer (Mid)"), models.MediaTypeFeature).Rule()

		assert.False(t, rule.Match(client("p1", func(p *models.Person) { p.IsWriter = true })))
		assert.True(t, rule.Match(client("p2", func(p *models.Person) {
			p.IsWriter = true
			p.WriterLevel = ptr(4.0)
		})))
	})

	t.Run("writer any has no level constraint", func(t *testing.T) {
		c := NewCriteria(ParseQualification("Writer (Any)"), models.MediaTypeFeature)
		lo, hi := c.LevelBounds()

		assert.Nil(t, lo)
		assert.Nil(t, hi)
		assert.True(t, c.Rule().Match(client("p1", func(p *models.Person) { p.IsWriter = true })))
	})
}

func TestFilterCandidates(t *testing.T) {
	pool := []models.Person{
		client("a", func(p *models.Person) {
			p.IsWriter = true
			p.WriterLevel = ptr(7.0)
		}),
		client("b", func(p *models.Person) {
			p.IsWriter = true
			p.WriterLevel = ptr(2.0)
		}),
		client("c", func(p *models.Person) {
			p.IsWriter = true
			p.WriterLevel = ptr(6.0)
			p.Availability = ptr(models.AvailabilityAvailable)
		}),
	}

	got := FilterCandidates(pool, NewCriteria(ParseQualification("Writer (Upper)"), models.MediaTypeFeature).Rule())

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].PersonID)
	assert.Equal(t, "c", got[1].PersonID)
	assert.Equal(t, ptr(models.AvailabilityAvailable), got[1].Availability)
}

func TestWriterLevelSixSitsInOverlappingBands(t *testing.T) {
	p := client("p6", func(p *models.Person) {
		p.IsWriter = true
		p.WriterLevel = ptr(6.0)
	})

	for _, label := range []string{"Writer (Upper)", "Writer (Mid - Upper)", "Writer (Mid)", "Writer (Lower - Mid)"} {
		t.Run(label, func(t *testing.T) {
			rule := NewCriteria(ParseQualification(label), models.MediaTypeFeature).Rule()
			assert.True(t, rule.Match(p))
		})
	}

	rule := NewCriteria(ParseQualification("Writer (Lower)"), models.MediaTypeFeature).Rule()
	assert.False(t, rule.Match(p))
}

func TestWriterMidScenario(t *testing.T) {
	a := client("A", func(p *models.Person) {
		p.IsWriter = true
		p.WriterLevel = ptr(5.0)
	})
	b := client("B", func(p *models.Person) {
		p.IsWriter = true
		p.WriterLevel = ptr(2.0)
	})

	got := FilterCandidates([]models.Person{a, b}, NewCriteria(ParseQualification("Writer (Mid)"), models.MediaTypeFeature).Rule())

	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].PersonID)
}
