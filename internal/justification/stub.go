package justification

import (
	"fmt"
	"slices"
	"strings"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

const maxStubLength = 800

// Stub builds a justification from the profile data alone.
func Stub(project models.ProjectProfile, person models.PersonProfile, feedback []models.FeedbackEvent) string {
	lines := []string{fmt.Sprintf("%s is a fit for %s (%s).",
		PersonName(person), ProjectTitle(project), orNone(project.MediaType))}

	if top := head(person.CreditsForLLM, 2); len(top) > 0 {
		cites := make([]string, len(top))
		for i, c := range top {
			cites[i] = fmt.Sprintf("%s [%s]", c.Title, strings.Join(c.Tags, ", "))
		}

		lines = append(lines, fmt.Sprintf("Relevant credits include %s.", strings.Join(cites, "; ")))
	}

	var positive []string

	for _, e := range feedback {
		if e.IsPositive() && !slices.Contains(positive, e.DisplayName()) {
			positive = append(positive, e.DisplayName())
		}
	}

	if len(positive) > 0 {
		slices.Sort(positive)
		lines = append(lines, fmt.Sprintf("Previously received positive feedback from %s.", strings.Join(positive, ", ")))
	}

	if interests := head(person.InterestsAndGoals, 2); len(interests) > 0 {
		lines = append(lines, "Interests: "+strings.Join(interests, "; "))
	}

	out := strings.Join(lines, " ")
	if r := []rune(out); len(r) > maxStubLength {
		out = string(r[:maxStubLength])
	}

	return out
}
