package repository

import "errors"

var (
	// ErrOpeningNotFound is returned when no opening row exists for the id.
	ErrOpeningNotFound = errors.New("opening not found")
	// ErrPersonNotFound is returned when no person row exists for the id.
	ErrPersonNotFound = errors.New("person not found")
	// ErrEmbeddingNotFound is returned when no stored vector exists for the subject.
	ErrEmbeddingNotFound = errors.New("embedding not found")
	// ErrResultNotFound is returned when no cached result exists for the subject (and params).
	ErrResultNotFound = errors.New("cached result not found")
)
