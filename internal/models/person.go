package models

import "time"

// Membership status values for persons.
const (
	ClientStatusClient = "client"
)

// Availability values carried through ranking as metadata.
const (
	AvailabilityAvailable   = "available"
	AvailabilityUnavailable = "unavailable"
)

// Person is the subset of a person record the matching engine reads.
// Attributes are owned by the CRUD layer; the engine never writes them.
type Person struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	ClientStatus       string   `json:"client_status"`
	TVAcceptable       bool     `json:"tv_acceptable"`
	IsWriter           bool     `json:"is_writer"`
	IsDirector         bool     `json:"is_director"`
	WriterLevel        *float64 `json:"writer_level,omitempty"`
	HasDirectedFeature bool     `json:"has_directed_feature"`
	Availability       *string  `json:"availability,omitempty"`
}

// EmbeddingStatus reports whether a stored embedding exists and when it was last written.
type EmbeddingStatus struct {
	Exists    bool       `json:"exists"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// StoredEmbedding is a vector plus the hash of the text (or inputs) it was computed from.
type StoredEmbedding struct {
	Vector      []float32
	ContentHash string
	UpdatedAt   time.Time
}
