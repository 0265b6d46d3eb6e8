package matching

import (
	"slices"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// Role buckets for reverse filtering.
const (
	BucketOWA         = "OWA"
	BucketStaffWriter = "Staff Writer"
	BucketODA         = "ODA"
	BucketDirector    = "Director"
)

// Qualification labels that the OWA and ODA buckets select.
const (
	QualificationOWA = "OWA"
	QualificationODA = "ODA"
)

// DefaultReverseLimit is the number of projects returned when no limit is given.
const DefaultReverseLimit = 30

// MediaOrder is the canonical media type order.
var MediaOrder = []string{
	models.MediaTypeFeature,
	models.MediaTypeTVSeries,
	models.MediaTypePlay,
	models.MediaTypeOther,
}

// BucketOrder is the canonical role bucket order.
var BucketOrder = []string{BucketOWA, BucketStaffWriter, BucketODA, BucketDirector}

func canonical(chosen, order []string) []string {
	out := make([]string, 0, len(order))

	for _, v := range order {
		if slices.Contains(chosen, v) {
			out = append(out, v)
		}
	}

	return out
}

// CanonicalMedia returns the known media types in chosen, in canonical order, without duplicates.
func CanonicalMedia(chosen []string) []string { return canonical(chosen, MediaOrder) }

// CanonicalBuckets returns the known role buckets in chosen, in canonical order, without duplicates.
func CanonicalBuckets(chosen []string) []string { return canonical(chosen, BucketOrder) }

// NewReverseFilters canonicalizes a filter selection. An empty selection means all values,
// so equal selections always produce equal filters and hence equal cache keys.
func NewReverseFilters(media, buckets []string, includeArchived bool) models.ReverseFilters {
	m := CanonicalMedia(media)
	if len(m) == 0 {
		m = slices.Clone(MediaOrder)
	}

	b := CanonicalBuckets(buckets)
	if len(b) == 0 {
		b = slices.Clone(BucketOrder)
	}

	return models.ReverseFilters{MediaTypes: m, RoleBuckets: b, IncludeArchived: includeArchived}
}

func writerLabels(bands ...string) []string {
	out := make([]string, len(bands))
	for i, b := range bands {
		out[i] = "Writer (" + b + ")"
	}

	return out
}

// WriterQualsForLevel lists the writer qualification labels a person of the given level can fill.
func WriterQualsForLevel(level *float64) []string {
	if level == nil {
		return writerLabels("Any", "Lower")
	}

	switch l := *level; {
	case l > 6:
		return writerLabels("Any", "Upper", "Mid - Upper")
	case l == 6:
		return writerLabels("Any", "Upper", "Mid - Upper", "Mid")
	case l == 5.5 || l == 5 || l == 4.5:
		return writerLabels("Any", "Mid - Upper", "Mid", "Lower - Mid")
	case l == 4:
		return writerLabels("Any", "Lower", "Lower - Mid", "Mid")
	case l < 4:
		return writerLabels("Any", "Lower", "Lower - Mid")
	default:
		return writerLabels("Any")
	}
}

// DirectorQuals lists the director qualification labels a person can fill.
func DirectorQuals(hasDirectedFeature bool) []string {
	quals := []string{"Director (Any)"}
	if hasDirectedFeature {
		quals = append(quals, "Director "+featureSuffix)
	}

	return quals
}

// ReverseQuery is the resolved set of conditions an opening must satisfy for a person.
type ReverseQuery struct {
	PersonID        string
	IncludeArchived bool
	MediaFeature    bool
	MediaTV         bool
	MediaPlay       bool
	MediaOther      bool
	IncludeOWA      bool
	IncludeODA      bool
	WriterQuals     []string
	DirectorQuals   []string
	Limit           int
}

// NewReverseQuery resolves canonical filters against the person's attributes.
// The staff writer and director buckets only apply when the person holds that role: a
// non-writer gets no writer labels at all, not even "Writer (Any)", whatever their level.
func NewReverseQuery(p models.Person, f models.ReverseFilters, limit int) ReverseQuery {
	if limit <= 0 {
		limit = DefaultReverseLimit
	}

	q := ReverseQuery{
		PersonID:        p.ID,
		IncludeArchived: f.IncludeArchived,
		MediaFeature:    slices.Contains(f.MediaTypes, models.MediaTypeFeature),
		MediaTV:         slices.Contains(f.MediaTypes, models.MediaTypeTVSeries),
		MediaPlay:       slices.Contains(f.MediaTypes, models.MediaTypePlay),
		MediaOther:      slices.Contains(f.MediaTypes, models.MediaTypeOther),
		IncludeOWA:      slices.Contains(f.RoleBuckets, BucketOWA),
		IncludeODA:      slices.Contains(f.RoleBuckets, BucketODA),
		WriterQuals:     []string{},
		DirectorQuals:   []string{},
		Limit:           limit,
	}

	if slices.Contains(f.RoleBuckets, BucketStaffWriter) && p.IsWriter {
		q.WriterQuals = WriterQualsForLevel(p.WriterLevel)
	}

	if slices.Contains(f.RoleBuckets, BucketDirector) && p.IsDirector {
		q.DirectorQuals = DirectorQuals(p.HasDirectedFeature)
	}

	return q
}

// MatchesMedia reports whether a project media type passes the media filter.
func (q ReverseQuery) MatchesMedia(mediaType string) bool {
	switch mediaType {
	case models.MediaTypeFeature:
		return q.MediaFeature
	case models.MediaTypeTVSeries:
		return q.MediaTV
	case models.MediaTypePlay:
		return q.MediaPlay
	default:
		return q.MediaOther
	}
}

// MatchesQualification reports whether an opening's qualification label passes the bucket filter.
func (q ReverseQuery) MatchesQualification(label string) bool {
	return (q.IncludeOWA && label == QualificationOWA) ||
		(q.IncludeODA && label == QualificationODA) ||
		slices.Contains(q.WriterQuals, label) ||
		slices.Contains(q.DirectorQuals, label)
}

// BestPerProject keeps the highest-similarity entry of each project (the earliest on ties),
// sorts the survivors by similarity and truncates to limit.
func BestPerProject(entries []models.ReverseEntry, limit int) []models.ReverseEntry {
	best := make(map[string]int, len(entries))
	out := make([]models.ReverseEntry, 0, len(entries))

	for _, e := range entries {
		i, ok := best[e.ProjectID]
		if !ok {
			best[e.ProjectID] = len(out)
			out = append(out, e)

			continue
		}

		if e.Similarity > out[i].Similarity {
			out[i] = e
		}
	}

	SortBySimilarity(out)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}
