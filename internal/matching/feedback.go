package matching

import (
	"slices"
	"time"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// OutreachRow is one outreach from a person to a staffing contact of the project,
// joined with the feedback that contact left, if any.
type OutreachRow struct {
	PersonID      string
	OutreachID    string
	RecipientID   string
	RecipientName *string
	Sentiment     *string
	FeedbackText  *string
	CreatedAt     *time.Time
}

// RollupFeedback summarizes outreach rows per person. Every requested person gets an entry,
// even without outreach.
func RollupFeedback(personIDs []string, rows []OutreachRow) map[string]models.FeedbackSummary {
	out := make(map[string]models.FeedbackSummary, len(personIDs))
	for _, id := range personIDs {
		out[id] = models.EmptyFeedbackSummary()
	}

	withFeedback := make(map[string]int, len(personIDs))

	for _, row := range rows {
		summary, ok := out[row.PersonID]
		if !ok {
			continue
		}

		summary.HasOutreachToStaffing = true

		if row.Sentiment != nil {
			withFeedback[row.PersonID]++

			switch *row.Sentiment {
			case models.SentimentPositive:
				summary.AnyPositive = true
			case models.SentimentNotPositive:
				summary.AnyNonPositive = true
			}
		}

		if row.Sentiment != nil || row.FeedbackText != nil {
			summary.Events = append(summary.Events, models.FeedbackEvent{
				OutreachID:    row.OutreachID,
				RecipientID:   row.RecipientID,
				RecipientName: row.RecipientName,
				Sentiment:     row.Sentiment,
				FeedbackText:  row.FeedbackText,
				CreatedAt:     row.CreatedAt,
			})
		}

		out[row.PersonID] = summary
	}

	for id, summary := range out {
		summary.HasOutreachWithNoFeedback = summary.HasOutreachToStaffing && withFeedback[id] == 0
		SortEventsNewestFirst(summary.Events)
		out[id] = summary
	}

	return out
}

// SortEventsNewestFirst orders events by creation time descending; events without a time go last.
func SortEventsNewestFirst(events []models.FeedbackEvent) {
	slices.SortStableFunc(events, func(a, b models.FeedbackEvent) int {
		switch {
		case a.CreatedAt == nil && b.CreatedAt == nil:
			return 0
		case a.CreatedAt == nil:
			return 1
		case b.CreatedAt == nil:
			return -1
		}

		return b.CreatedAt.Compare(*a.CreatedAt)
	})
}
