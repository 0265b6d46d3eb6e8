package matching

import (
	"fmt"
	"strings"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/pkg/embeddings"
)

// Person vector blend parameters.
const (
	CreditBlendWeight    = 0.8
	InterestsBlendWeight = 0.2
	NeutralRating        = 2.5
	weightFloor          = 1e-9
)

// OpeningText renders the project context that is embedded for each of its openings.
func OpeningText(c models.ProjectContext) string {
	return fmt.Sprintf("MEDIA_TYPE: %s\nDESCRIPTION: %s\nGENRES: %s\nNOTES: %s",
		c.MediaType, c.Description, c.Genres, c.Notes)
}

// CreditLine renders one credit for embedding.
func CreditLine(c models.Credit) string {
	return fmt.Sprintf("%s :: %s :: tags=[%s]", c.Title, c.MediaType, strings.Join(c.Tags, ", "))
}

// CreditWeight is involvement times interest squared. A missing rating counts as neutral.
func CreditWeight(involvement, interest *float64) float64 {
	inv, in := NeutralRating, NeutralRating
	if involvement != nil {
		inv = *involvement
	}

	if interest != nil {
		in = *interest
	}

	return inv * in * in
}

// InterestsText joins survey answers into one embedding input, or "" when there are none.
func InterestsText(answers []string) string {
	kept := make([]string, 0, len(answers))

	for _, a := range answers {
		if strings.TrimSpace(a) != "" {
			kept = append(kept, a)
		}
	}

	return strings.Join(kept, "\n")
}

// BlendPersonVector combines weighted credit vectors and an optional interests vector into
// one unit vector. It returns false when there is nothing to blend or the inputs cancel out
// to a vector with no direction.
func BlendPersonVector(creditVecs [][]float32, weights []float64, interests []float32) ([]float32, bool, error) {
	var credit []float32

	if len(creditVecs) > 0 {
		mean, err := embeddings.WeightedMean(creditVecs, weights, weightFloor)
		if err != nil {
			return nil, false, fmt.Errorf("weight credit vectors: %w", err)
		}

		credit = mean
	}

	var out []float32

	switch {
	case credit != nil && interests != nil:
		sum, err := embeddings.WeightedSum(
			[][]float32{credit, interests},
			[]float64{CreditBlendWeight, InterestsBlendWeight},
		)
		if err != nil {
			return nil, false, fmt.Errorf("blend credit and interests vectors: %w", err)
		}

		out = sum
	case credit != nil:
		out = credit
	case interests != nil:
		out = append([]float32(nil), interests...)
	default:
		return nil, false, nil
	}

	embeddings.NormalizeL2(out)

	if !embeddings.IsUsable(out, len(out)) {
		return nil, false, nil
	}

	return out, true, nil
}
