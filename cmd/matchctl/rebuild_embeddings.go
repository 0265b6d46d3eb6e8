package main

import (
	"github.com/spf13/cobra"
)

func newRebuildEmbeddingsCmd(load engineFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild-embeddings",
		Short: "Recompute person or opening vectors whose inputs changed",
	}

	cmd.AddCommand(newRebuildPersonsCmd(load), newRebuildOpeningsCmd(load))

	return cmd
}

func newRebuildPersonsCmd(load engineFactory) *cobra.Command {
	var personID string

	cmd := &cobra.Command{
		Use:   "persons",
		Short: "Rebuild client person vectors (or one person with --person-id)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, release, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if personID != "" {
				rebuilt, err := eng.Index.RebuildPerson(cmd.Context(), personID)
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), map[string]any{"person_id": personID, "rebuilt": rebuilt})
			}

			summary, err := eng.Index.RebuildPersons(cmd.Context())
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringVar(&personID, "person-id", "", "rebuild only this person")

	return cmd
}

func newRebuildOpeningsCmd(load engineFactory) *cobra.Command {
	var (
		onlyMissing bool
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "openings",
		Short: "Rebuild vectors of active openings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, release, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			summary, err := eng.Index.RebuildOpenings(cmd.Context(), onlyMissing, limit)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().BoolVar(&onlyMissing, "only-missing", false, "only openings without a stored vector")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum openings to process (0 means all)")

	return cmd
}
