package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/config"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/engine"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/observability"
	"github.com/justdoitDT/demo-talent-manager-portal/pkg/database"
)

const app = "matchctl"

// engineFactory builds the services for one command run. The returned func releases them.
type engineFactory func(ctx context.Context) (*engine.Engine, func(), error)

func newRootCmd(load engineFactory) *cobra.Command {
	root := &cobra.Command{
		Use:          app,
		Short:        app + " runs matching backfills and embedding maintenance",
		SilenceUsage: true,
	}

	root.AddCommand(newBackfillCmd(load), newRebuildEmbeddingsCmd(load))

	return root
}

// loadEngine reads the environment configuration, connects to Postgres and wires the services.
func loadEngine(ctx context.Context) (*engine.Engine, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	// Logs go to stderr so stdout stays a clean JSON result.
	slog.SetDefault(observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithVectorTypes())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	eng, err := engine.New(ctx, cfg, db, nil)
	if err != nil {
		db.Close()

		return nil, nil, err
	}

	return eng, db.Close, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	return nil
}
