package matching

import (
	"strings"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// Rule is a named boolean condition over a person.
type Rule interface {
	Name() string
	Match(p models.Person) bool
}

type ruleFunc struct {
	name string
	fn   func(models.Person) bool
}

func (r ruleFunc) Name() string                { return r.name }
func (r ruleFunc) Match(p models.Person) bool { return r.fn(p) }

// NewRule wraps fn as a Rule.
func NewRule(name string, fn func(models.Person) bool) Rule {
	return ruleFunc{name: name, fn: fn}
}

type allOf []Rule

// All matches when every rule matches. An empty All matches everyone.
func All(rules ...Rule) Rule { return allOf(rules) }

func (a allOf) Name() string {
	names := make([]string, len(a))
	for i, r := range a {
		names[i] = r.Name()
	}

	return "all(" + strings.Join(names, ", ") + ")"
}

func (a allOf) Match(p models.Person) bool {
	for _, r := range a {
		if !r.Match(p) {
			return false
		}
	}

	return true
}

// FirstFailing returns the first rule of an All that rejects p, or nil.
func FirstFailing(rule Rule, p models.Person) Rule {
	if all, ok := rule.(allOf); ok {
		for _, r := range all {
			if failing := FirstFailing(r, p); failing != nil {
				return failing
			}
		}

		return nil
	}

	if rule.Match(p) {
		return nil
	}

	return rule
}

// Criteria is the flat form of the eligibility rules for one opening. The Postgres
// candidate query binds these fields directly; Rule builds the equivalent tree.
type Criteria struct {
	RequireTVAcceptable bool
	RequireDirector     bool
	RequireFeature      bool
	RequireWriter       bool
	Band                Band
}

// NewCriteria derives the eligibility criteria from a parsed label and the project's media type.
func NewCriteria(p Predicate, mediaType string) Criteria {
	c := Criteria{
		RequireTVAcceptable: mediaType == models.MediaTypeTVSeries,
		RequireDirector:     p.Role == RoleDirector,
		RequireFeature:      p.RequiresFeatureCredit,
		RequireWriter:       p.Role == RoleWriter,
	}

	if c.RequireWriter {
		c.Band = p.Band
	}

	return c
}

// LevelBounds returns the writer-level bounds to apply, both nil when unconstrained.
func (c Criteria) LevelBounds() (lo, hi *float64) {
	if !c.RequireWriter {
		return nil, nil
	}

	return c.Band.Bounds()
}

// Rule builds the predicate tree for the criteria.
func (c Criteria) Rule() Rule {
	rules := []Rule{ActiveClient()}

	if c.RequireTVAcceptable {
		rules = append(rules, TVAcceptable())
	}

	if c.RequireDirector {
		rules = append(rules, IsDirector())
	}

	if c.RequireFeature {
		rules = append(rules, HasDirectedFeature())
	}

	if c.RequireWriter {
		rules = append(rules, IsWriter())

		if c.Band != BandNone {
			rules = append(rules, WriterBand(c.Band))
		}
	}

	return All(rules...)
}

// ActiveClient requires the person to be a current client.
func ActiveClient() Rule {
	return NewRule("active_client", func(p models.Person) bool {
		return p.ClientStatus == models.ClientStatusClient
	})
}

// TVAcceptable requires the person to accept television work.
func TVAcceptable() Rule {
	return NewRule("tv_acceptable", func(p models.Person) bool { return p.TVAcceptable })
}

// IsDirector requires the director flag.
func IsDirector() Rule {
	return NewRule("is_director", func(p models.Person) bool { return p.IsDirector })
}

// HasDirectedFeature requires a feature directing credit.
func HasDirectedFeature() Rule {
	return NewRule("has_directed_feature", func(p models.Person) bool { return p.HasDirectedFeature })
}

// IsWriter requires the writer flag.
func IsWriter() Rule {
	return NewRule("is_writer", func(p models.Person) bool { return p.IsWriter })
}

// WriterBand requires the writer level to fall inside band.
func WriterBand(band Band) Rule {
	return NewRule("writer_band:"+string(band), func(p models.Person) bool {
		return band.Contains(p.WriterLevel)
	})
}

// FilterCandidates applies rule to the person pool in order.
func FilterCandidates(pool []models.Person, rule Rule) []models.Candidate {
	out := make([]models.Candidate, 0, len(pool))

	for _, p := range pool {
		if rule.Match(p) {
			out = append(out, models.Candidate{PersonID: p.ID, Availability: p.Availability})
		}
	}

	return out
}
