// Package matching holds the database-free core of the matching engine: qualification parsing,
// eligibility predicates, ranking, feedback rollup and reverse filter canonicalization.
package matching

import (
	"strings"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// Role is the kind of role an opening asks for.
type Role string

// Roles derived from a qualification label prefix.
const (
	RoleNone     Role = ""
	RoleWriter   Role = "writer"
	RoleDirector Role = "director"
)

// Band is a writer seniority bucket.
type Band string

// Seniority bands. BandNone means no seniority constraint.
const (
	BandNone     Band = ""
	BandUpper    Band = "upper"
	BandMidUpper Band = "mid_upper"
	BandMid      Band = "mid"
	BandLowerMid Band = "lower_mid"
	BandLower    Band = "lower"
)

const featureSuffix = "(Has Directed Feature)"

// bandSuffixes is checked in order; "(Mid - Upper)" must not be read as "(Upper)".
var bandSuffixes = []struct {
	suffix string
	band   Band
}{
	{"(Mid - Upper)", BandMidUpper},
	{"(Upper)", BandUpper},
	{"(Low - Mid)", BandLowerMid},
	{"(Lower - Mid)", BandLowerMid},
	{"(Mid)", BandMid},
	{"(Low)", BandLower},
	{"(Lower)", BandLower},
}

// Bounds returns the inclusive writer-level range of the band. A nil bound is open.
// The ranges overlap at the boundaries (a level of 6 is upper, mid_upper, mid and lower_mid).
func (b Band) Bounds() (lo, hi *float64) {
	three, four, six := 3.0, 4.0, 6.0

	switch b {
	case BandUpper:
		return &six, nil
	case BandMidUpper:
		return &three, nil
	case BandMid:
		return &three, &six
	case BandLowerMid:
		return nil, &six
	case BandLower:
		return nil, &four
	default:
		return nil, nil
	}
}

// Contains reports whether a writer level falls in the band. BandNone contains every level,
// including an unknown one; every other band rejects an unknown level.
func (b Band) Contains(level *float64) bool {
	if b == BandNone {
		return true
	}

	if level == nil {
		return false
	}

	lo, hi := b.Bounds()
	if lo != nil && *level < *lo {
		return false
	}

	if hi != nil && *level > *hi {
		return false
	}

	return true
}

// Predicate is the structured form of an opening's qualification label.
type Predicate struct {
	Role                  Role
	Band                  Band
	RequiresFeatureCredit bool
}

// ParseQualification turns a label such as "Writer (Mid - Upper)" into a Predicate.
// Unknown labels yield the neutral predicate.
func ParseQualification(label string) Predicate {
	label = strings.TrimSpace(label)

	var p Predicate

	switch {
	case strings.HasPrefix(label, "Writer"):
		p.Role = RoleWriter
	case strings.HasPrefix(label, "Director"):
		p.Role = RoleDirector
	}

	p.RequiresFeatureCredit = strings.HasSuffix(label, featureSuffix)

	if p.Role == RoleWriter {
		for _, s := range bandSuffixes {
			if strings.HasSuffix(label, s.suffix) {
				p.Band = s.band

				break
			}
		}
	}

	return p
}

// Filter returns the predicate in the shape recorded on forward results.
func (p Predicate) Filter() models.QualificationFilter {
	f := models.QualificationFilter{
		IsWriter:       p.Role == RoleWriter,
		IsDirector:     p.Role == RoleDirector,
		RequireFeature: p.RequiresFeatureCredit,
	}

	if p.Band != BandNone {
		band := string(p.Band)
		f.WriterBand = &band
	}

	return f
}
