package matching

import (
	"cmp"
	"slices"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// Pool and result sizes for forward ranking.
const (
	NeighborPoolSize      = 200
	TopK                  = 10
	HonorableMentionLimit = 5
)

// SortBySimilarity orders items by descending similarity, keeping the input order on ties.
func SortBySimilarity[T interface{ Sim() float64 }](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(b.Sim(), a.Sim())
	})
}

// Rank turns the neighbor pool into the top list and the honorable mentions.
// Honorable mentions are drawn from the positions after the top list, in similarity order,
// and only include people with positive feedback on the project.
func Rank(
	pool []models.Neighbor,
	availability map[string]*string,
	feedback map[string]models.FeedbackSummary,
) (ranked, honorable []models.RankedEntry) {
	entries := make([]models.RankedEntry, 0, len(pool))

	for _, n := range pool {
		summary, ok := feedback[n.PersonID]
		if !ok {
			summary = models.EmptyFeedbackSummary()
		}

		entries = append(entries, models.RankedEntry{
			Scored:       models.Scored{Similarity: n.Similarity},
			PersonID:     n.PersonID,
			Score:        n.Similarity,
			Availability: availability[n.PersonID],
			Feedback:     summary,
		})
	}

	SortBySimilarity(entries)

	cut := min(TopK, len(entries))
	ranked = entries[:cut:cut]
	honorable = make([]models.RankedEntry, 0, HonorableMentionLimit)

	for _, e := range entries[cut:] {
		if len(honorable) == HonorableMentionLimit {
			break
		}

		if e.Feedback.AnyPositive {
			honorable = append(honorable, e)
		}
	}

	return ranked, honorable
}
