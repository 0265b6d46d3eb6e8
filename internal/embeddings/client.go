// Package embeddings turns text into unit vectors for similarity search. It batches requests,
// retries provider failures and substitutes deterministic fallback vectors when a provider
// cannot answer, so callers always get one usable vector per input.
package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Client is a remote embedding provider. Embed returns one vector per input, in input order.
type Client interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ContentHash returns the hex SHA-256 of text. A stored vector whose hash matches is reused.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))

	return hex.EncodeToString(sum[:])
}
