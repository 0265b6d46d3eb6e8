package matching

import (
	"cmp"
	"slices"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// MaxCreditsForLLM caps the credits handed to the justification prompt.
const MaxCreditsForLLM = 25

// WeighCredits fills in each credit's weight and orders credits by weight descending.
func WeighCredits(credits []models.Credit) []models.Credit {
	out := slices.Clone(credits)
	for i := range out {
		out[i].Weight = CreditWeight(out[i].InvolvementRating, out[i].InterestRating)
	}

	slices.SortStableFunc(out, func(a, b models.Credit) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	return out
}

// CompleteProfile weighs credits and derives the prompt subset.
func CompleteProfile(p *models.PersonProfile) {
	p.Credits = WeighCredits(p.Credits)
	n := min(MaxCreditsForLLM, len(p.Credits))
	p.CreditsForLLM = p.Credits[:n:n]

	if p.InterestsAndGoals == nil {
		p.InterestsAndGoals = []string{}
	}
}
