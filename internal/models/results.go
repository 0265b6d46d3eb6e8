package models

import (
	"encoding/json"
	"time"
)

// Candidate is a person that passed the eligibility filter for an opening.
type Candidate struct {
	PersonID     string
	Availability *string
}

// Neighbor is one vector-retrieval hit.
type Neighbor struct {
	PersonID   string
	Similarity float64
}

// Scored is the shape shared by every ranked entry type.
type Scored struct {
	Similarity float64 `json:"sim"`
}

// Sim returns the similarity score.
func (s Scored) Sim() float64 { return s.Similarity }

// QualificationFilter is the parsed qualification label as recorded in forward results.
type QualificationFilter struct {
	IsWriter       bool    `json:"is_writer"`
	IsDirector     bool    `json:"is_director"`
	RequireFeature bool    `json:"require_feature"`
	WriterBand     *string `json:"writer_band"`
}

// ForwardFilters records the filters a forward run applied.
type ForwardFilters struct {
	Quals QualificationFilter `json:"quals"`
}

// RankedEntry is one person ranked against an opening.
type RankedEntry struct {
	Scored
	PersonID      string          `json:"person_id"`
	Score         float64         `json:"score"`
	Availability  *string         `json:"availability"`
	Feedback      FeedbackSummary `json:"feedback_summary"`
	Justification string          `json:"justification,omitempty"`
}

// ForwardResult is the output of ranking persons for one opening.
type ForwardResult struct {
	OpeningID         string          `json:"opening_id"`
	RunID             string          `json:"run_id,omitempty"`
	Model             string          `json:"model,omitempty"`
	Filters           *ForwardFilters `json:"filters,omitempty"`
	Ranked            []RankedEntry   `json:"ranked"`
	HonorableMentions []RankedEntry   `json:"honorable_mentions"`
}

// EmptyForwardResult is the valid result for an opening with no match (or no opening at all).
func EmptyForwardResult(openingID string) *ForwardResult {
	return &ForwardResult{
		OpeningID:         openingID,
		Ranked:            []RankedEntry{},
		HonorableMentions: []RankedEntry{},
	}
}

// ReverseFilters is the canonical reverse filter set. It doubles as the cache key params.
type ReverseFilters struct {
	MediaTypes      []string `json:"media_type_filter"`
	RoleBuckets     []string `json:"qualifications_filter"`
	IncludeArchived bool     `json:"include_archived"`
}

// ReverseEntry is the best opening of one project for a person.
type ReverseEntry struct {
	Scored
	OpeningID     string `json:"opening_id"`
	ProjectID     string `json:"project_id"`
	ProjectTitle  string `json:"project_title"`
	MediaType     string `json:"media_type"`
	Qualification string `json:"qualification"`
	Justification string `json:"justification,omitempty"`
}

// ReverseResult is the output of ranking openings for one person.
// Error is set (and Ranked empty) when the run could not rank, e.g. no stored embedding.
type ReverseResult struct {
	PersonID        string          `json:"person_id"`
	RunID           string          `json:"run_id,omitempty"`
	Filters         *ReverseFilters `json:"filters,omitempty"`
	Ranked          []ReverseEntry  `json:"ranked"`
	ConsideredCount int             `json:"considered_count"`
	Model           string          `json:"model,omitempty"`
	Error           string          `json:"error,omitempty"`
	RunStartedAt    *time.Time      `json:"run_started_at,omitempty"`
}

// CachedResult is one row of a result cache table.
type CachedResult[T any] struct {
	SubjectID    string          `json:"subject_id"`
	Params       json.RawMessage `json:"params"`
	Result       T               `json:"result"`
	RunStartedAt time.Time       `json:"run_started_at"`
}
