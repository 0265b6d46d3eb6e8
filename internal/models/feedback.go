package models

import "time"

// Sentiment values recorded on outreach feedback.
const (
	SentimentPositive    = "positive"
	SentimentNotPositive = "not positive"
)

// FeedbackEvent is one piece of feedback (or bare outreach) from a staffing contact.
type FeedbackEvent struct {
	OutreachID    string     `json:"outreach_id"`
	RecipientID   string     `json:"recipient_id"`
	RecipientName *string    `json:"recipient_name,omitempty"`
	Sentiment     *string    `json:"sentiment,omitempty"`
	FeedbackText  *string    `json:"feedback_text,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// IsPositive reports whether the event carries positive sentiment.
func (e FeedbackEvent) IsPositive() bool {
	return e.Sentiment != nil && *e.Sentiment == SentimentPositive
}

// DisplayName is the resolved recipient name, falling back to the recipient id.
func (e FeedbackEvent) DisplayName() string {
	if e.RecipientName != nil && *e.RecipientName != "" {
		return *e.RecipientName
	}

	return e.RecipientID
}

// FeedbackSummary is the per-person rollup of outreach to a project's staffing contacts.
type FeedbackSummary struct {
	AnyPositive               bool            `json:"any_positive"`
	AnyNonPositive            bool            `json:"any_non_positive"`
	HasOutreachToStaffing     bool            `json:"has_outreach_to_staffing"`
	HasOutreachWithNoFeedback bool            `json:"has_outreach_with_no_feedback"`
	Events                    []FeedbackEvent `json:"events"`
}

// EmptyFeedbackSummary is the summary for a person with no outreach to the project.
func EmptyFeedbackSummary() FeedbackSummary {
	return FeedbackSummary{Events: []FeedbackEvent{}}
}
