package main

import (
	"github.com/spf13/cobra"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

func newBackfillCmd(load engineFactory) *cobra.Command {
	var req models.BackfillRequest

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Generate forward results for active openings that have none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, release, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			resp, err := eng.Backfill.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&req.TrackingStatuses, "tracking-status", nil,
		"project tracking statuses to include (repeatable; default Active, Priority Tracking, Tracking)")
	flags.IntVar(&req.Limit, "limit", 0, "maximum openings to process (default 50)")
	flags.BoolVar(&req.DryRun, "dry-run", false, "list eligible openings without running them")
	flags.BoolVar(&req.ReprocessExisting, "reprocess-existing", false, "also rerun openings that already have a result")
	flags.BoolVar(&req.FailFast, "fail-fast", false, "stop at the first failing opening")

	return cmd
}
