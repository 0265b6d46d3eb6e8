package models

import (
	"errors"
	"fmt"
)

// BatchFailure is one failed item of a batch run.
type BatchFailure struct {
	ID    string `json:"need_id"`
	Error string `json:"error"`
	err   error
}

// Unwrap returns the underlying error when it is still available.
func (f BatchFailure) Unwrap() error { return f.err }

// BatchResult accumulates per-item outcomes of a batch run. Items are independent:
// a failure never rolls back items that already succeeded.
type BatchResult struct {
	Succeeded []string       `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

// Record appends id to Succeeded when err is nil, otherwise to Failed.
func (b *BatchResult) Record(id string, err error) {
	if err == nil {
		b.Succeeded = append(b.Succeeded, id)

		return
	}

	b.Failed = append(b.Failed, BatchFailure{ID: id, Error: err.Error(), err: err})
}

// Merge appends the outcomes of other.
func (b *BatchResult) Merge(other BatchResult) {
	b.Succeeded = append(b.Succeeded, other.Succeeded...)
	b.Failed = append(b.Failed, other.Failed...)
}

// Err joins all item errors, or returns nil when nothing failed.
func (b *BatchResult) Err() error {
	if len(b.Failed) == 0 {
		return nil
	}

	errs := make([]error, 0, len(b.Failed))
	for _, f := range b.Failed {
		if f.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.ID, f.err))
		} else {
			errs = append(errs, fmt.Errorf("%s: %s", f.ID, f.Error))
		}
	}

	return errors.Join(errs...)
}

// BackfillRequest is the body of a backfill run.
type BackfillRequest struct {
	TrackingStatuses  []string `json:"tracking_statuses" validate:"omitempty,dive,required,max=100"`
	Limit             int      `json:"limit" validate:"omitempty,min=1"`
	DryRun            bool     `json:"dry_run"`
	ReprocessExisting bool     `json:"reprocess_existing"`
	FailFast          bool     `json:"fail_fast"`
}

// BackfillSummary holds the counts of a backfill run.
type BackfillSummary struct {
	Processed         int      `json:"processed"`
	Generated         int      `json:"generated"`
	Skipped           int      `json:"skipped"`
	RemainingBefore   int      `json:"remaining_before"`
	RemainingAfter    int      `json:"remaining_after"`
	TrackingStatuses  []string `json:"tracking_statuses"`
	Limit             int      `json:"limit"`
	ReprocessExisting bool     `json:"reprocess_existing"`
	DryRun            bool     `json:"dry_run"`
}

// BackfillResponse is the result of a backfill run.
type BackfillResponse struct {
	Summary BackfillSummary `json:"summary"`
	Needs   []string        `json:"needs"`
	Errors  []BatchFailure  `json:"errors"`
}

// BackfillPreview lists the openings a backfill would process.
type BackfillPreview struct {
	Count            int      `json:"count"`
	NeedIDs          []string `json:"need_ids"`
	TrackingStatuses []string `json:"tracking_statuses"`
	Limit            int      `json:"limit"`
}

// RebuildSummary reports an embedding rebuild over many subjects. Unchanged subjects had a
// stored vector whose content hash matched, so no provider call was made.
type RebuildSummary struct {
	Rebuilt     int            `json:"rebuilt"`
	Unchanged   int            `json:"unchanged"`
	Failed      []BatchFailure `json:"failed"`
	OnlyMissing *bool          `json:"only_missing,omitempty"`
	Limit       *int           `json:"limit,omitempty"`
}
