package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/service"
)

// NightlyRebuildJobs returns the periodic jobs that keep person and opening vectors fresh:
// every interval all client persons are rebuilt and openings without a vector are filled in.
func NightlyRebuildJobs(interval time.Duration) []*river.PeriodicJob {
	opts := &river.InsertOpts{Queue: service.MatchingQueueName}

	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return service.RebuildEmbeddingsArgs{Target: service.RebuildTargetPersons}, opts
			},
			&river.PeriodicJobOpts{},
		),
		river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return service.RebuildEmbeddingsArgs{Target: service.RebuildTargetOpenings, OnlyMissing: true}, opts
			},
			&river.PeriodicJobOpts{},
		),
	}
}

// jobLister is satisfied by *river.Client.
type jobLister interface {
	JobList(ctx context.Context, params *river.JobListParams) (*river.JobListResult, error)
}

const queueDepthPageSize = 10000

// QueueDepth returns a function counting available jobs on the matching queue, capped at one page.
func QueueDepth(client jobLister) func(ctx context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		res, err := client.JobList(ctx, river.NewJobListParams().
			Queues(service.MatchingQueueName).
			States(rivertype.JobStateAvailable).
			First(queueDepthPageSize))
		if err != nil {
			return 0, fmt.Errorf("list available jobs: %w", err)
		}

		return int64(len(res.Jobs)), nil
	}
}
