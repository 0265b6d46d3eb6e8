package models

// Opening lifecycle statuses.
const (
	OpeningStatusActive   = "Active"
	OpeningStatusArchived = "Archived"
)

// Project statuses referenced by the engine. Status is the lifecycle of the production
// (credits come from archived ones); tracking status is how closely the team follows it.
const (
	ProjectStatusArchived  = "Archived"
	TrackingStatusArchived = "Archived"
)

// Media types.
const (
	MediaTypeFeature  = "Feature"
	MediaTypeTVSeries = "TV Series"
	MediaTypePlay     = "Play"
	MediaTypeOther    = "Other"
)

// DefaultBackfillTrackingStatuses is used when a backfill request names no statuses.
var DefaultBackfillTrackingStatuses = []string{"Active", "Priority Tracking", "Tracking"}

// Opening is a staffing vacancy ("need") attached to a project.
type Opening struct {
	ID             string `json:"id"`
	ProjectID      string `json:"project_id"`
	Qualifications string `json:"qualifications"`
	Status         string `json:"status"`
	MediaType      string `json:"media_type"`
}

// ProjectContext holds the fields embedded for an opening of the project.
type ProjectContext struct {
	MediaType   string `json:"media_type"`
	Description string `json:"description"`
	Genres      string `json:"genres"`
	Notes       string `json:"notes"`
}

// OpeningRef is an (opening, project) pair selected for embedding maintenance.
type OpeningRef struct {
	OpeningID string
	ProjectID string
}
