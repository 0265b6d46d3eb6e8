package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/matching"
)

// outreachQuery joins every outreach sent on behalf of the persons to a staffing contact of
// the project with the feedback that contact left on it, resolving the contact's name.
const outreachQuery = `
	SELECT otp.person_id, otp.outreach_id, orc.recipient_id, rc.name,
	       f.sentiment, f.feedback_text, f.created_at
	FROM outreach_to_persons otp
	JOIN outreach_recipients orc ON orc.outreach_id = otp.outreach_id
	JOIN project_staffing_contacts psc
	  ON psc.recipient_id = orc.recipient_id AND psc.project_id = $1
	LEFT JOIN outreach_feedback f
	  ON f.outreach_id = otp.outreach_id AND f.recipient_id = orc.recipient_id
	LEFT JOIN recipients rc ON rc.id = orc.recipient_id
	WHERE otp.person_id = ANY($2)
	ORDER BY otp.person_id, f.created_at DESC NULLS LAST`

// FeedbackRepository reads outreach and feedback history.
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// OutreachToStaffing returns the raw outreach rows of the persons towards the project's
// staffing contacts. Aggregation happens in matching.RollupFeedback.
func (r *FeedbackRepository) OutreachToStaffing(
	ctx context.Context, projectID string, personIDs []string,
) ([]matching.OutreachRow, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, outreachQuery, projectID, personIDs)
	if err != nil {
		return nil, fmt.Errorf("query outreach to staffing: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (matching.OutreachRow, error) {
		var o matching.OutreachRow
		err := row.Scan(&o.PersonID, &o.OutreachID, &o.RecipientID, &o.RecipientName,
			&o.Sentiment, &o.FeedbackText, &o.CreatedAt)

		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan outreach rows: %w", err)
	}

	return out, nil
}
