package service

import (
	"context"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

const (
	backfillKind          = "opening_backfill"
	rebuildEmbeddingsKind = "rebuild_embeddings"
	// MatchingQueueName is the River queue used for backfill and embedding rebuild jobs.
	MatchingQueueName = "matching"
)

// Rebuild targets of RebuildEmbeddingsArgs.
const (
	RebuildTargetPersons  = "persons"
	RebuildTargetOpenings = "openings"
)

// JobInserter inserts jobs (e.g. River client).
type JobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// BackfillArgs is the job payload of an asynchronous backfill run.
// Identical pending requests are deduplicated.
type BackfillArgs struct {
	Request models.BackfillRequest `json:"request" river:"unique"`
}

// Kind returns the River job kind.
func (BackfillArgs) Kind() string { return backfillKind }

// RebuildEmbeddingsArgs is the job payload of an embedding rebuild. Target is
// RebuildTargetPersons or RebuildTargetOpenings; a set PersonID rebuilds that person only.
type RebuildEmbeddingsArgs struct {
	Target      string `json:"target" river:"unique"`
	PersonID    string `json:"person_id,omitempty" river:"unique"`
	OnlyMissing bool   `json:"only_missing,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// Kind returns the River job kind.
func (RebuildEmbeddingsArgs) Kind() string { return rebuildEmbeddingsKind }

var (
	_ river.JobArgs = BackfillArgs{}
	_ river.JobArgs = RebuildEmbeddingsArgs{}
)

// uniqueInsertOpts puts the job on the matching queue, deduplicated against jobs that have not
// finished yet.
func uniqueInsertOpts(maxAttempts int) *river.InsertOpts {
	return &river.InsertOpts{
		Queue:       MatchingQueueName,
		MaxAttempts: maxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStatePending,
				rivertype.JobStateAvailable,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
