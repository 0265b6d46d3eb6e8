package embeddings

import (
	"crypto/sha256"

	pkgembeddings "github.com/justdoitDT/demo-talent-manager-portal/pkg/embeddings"
)

// FallbackVector derives a deterministic unit vector of length dim from text: the SHA-256
// digest tiled to dim, centered on its mean and L2-normalized. A single dimension has no
// direction to vary, so it is always [1].
func FallbackVector(text string, dim int) []float32 {
	switch {
	case dim <= 0:
		return nil
	case dim == 1:
		return []float32{1}
	}

	digest := sha256.Sum256([]byte(text))
	raw := make([]float64, dim)

	var mean float64

	for i := range raw {
		raw[i] = float64(digest[i%len(digest)])
		mean += raw[i]
	}

	mean /= float64(dim)

	out := make([]float32, dim)
	for i, v := range raw {
		out[i] = float32(v - mean)
	}

	pkgembeddings.NormalizeL2(out)

	// Identical tiled bytes center to zero; pick a digest-chosen axis instead.
	if !pkgembeddings.IsUsable(out, dim) {
		clear(out)
		out[int(digest[0])%dim] = 1
	}

	return out
}
