// Package engine wires repositories, the embedding provider and the justification generator
// into the matching services shared by the API server and the CLI.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/config"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/embeddings"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/googleai"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/justification"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/observability"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/openai"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/repository"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/service"
)

// Engine holds the matching services built from one configuration.
type Engine struct {
	Forward  *service.ForwardPipeline
	Reverse  *service.ReversePipeline
	Backfill *service.BackfillService
	Index    *service.EmbeddingIndexService
}

// newEmbeddingClient returns the client for cfg.EmbeddingProvider, or nil when no provider is
// configured (every vector is then the fallback).
func newEmbeddingClient(ctx context.Context, cfg *config.Config) (embeddings.Client, error) {
	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderOpenAI:
		return openai.NewClient(cfg.EmbeddingProviderAPIKey,
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
		), nil
	case config.EmbeddingProviderGoogle:
		client, err := googleai.NewClient(ctx, cfg.EmbeddingProviderAPIKey,
			googleai.WithModel(cfg.EmbeddingModel),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
		)
		if err != nil {
			return nil, fmt.Errorf("create google embedding client: %w", err)
		}

		return client, nil
	default:
		slog.Warn("embeddings disabled: EMBEDDING_PROVIDER not set, using fallback vectors")

		//nolint:nilnil // a nil client selects the fallback embedder
		return nil, nil
	}
}

// newCompleter returns the justification LLM, or nil for the deterministic stub.
func newCompleter(cfg *config.Config) justification.Completer {
	if cfg.OpenAIAPIKey == "" {
		slog.Info("justifications use the deterministic stub (OPENAI_API_KEY not set)")

		return nil
	}

	return openai.NewClient(cfg.OpenAIAPIKey, openai.WithCompletionModel(cfg.JustificationModel))
}

// forwardModel labels forward results with the embedding model and dimension.
// Empty selects the default stub label.
func forwardModel(cfg *config.Config) string {
	if cfg.EmbeddingProvider == "" {
		return ""
	}

	model := cfg.EmbeddingModel
	if model == "" {
		model = cfg.EmbeddingProvider
	}

	return fmt.Sprintf("%s@%d", model, cfg.EmbeddingDimensions)
}

// New builds the services. metrics may be nil (metrics disabled).
func New(ctx context.Context, cfg *config.Config, db *pgxpool.Pool, metrics *observability.Metrics) (*Engine, error) {
	var (
		pipelineMetrics  observability.PipelineMetrics
		embeddingMetrics observability.EmbeddingMetrics
		cacheMetrics     observability.CacheMetrics
		backfillMetrics  observability.BackfillMetrics
	)

	if metrics != nil {
		pipelineMetrics = metrics.Pipeline
		embeddingMetrics = metrics.Embeddings
		cacheMetrics = metrics.Cache
		backfillMetrics = metrics.Backfill
	}

	client, err := newEmbeddingClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider, err := embeddings.NewProvider(client, embeddings.ProviderConfig{
		Dimensions: cfg.EmbeddingDimensions,
		BatchSize:  cfg.EmbeddingBatchSize,
		Retry: embeddings.RetryPolicy{
			MaxAttempts: cfg.EmbeddingMaxAttempts,
			BaseBackoff: embeddings.DefaultBaseBackoff,
			MaxBackoff:  cfg.EmbeddingMaxBackoff,
			Jitter:      true,
		},
		RateLimit:    cfg.EmbeddingRateLimit,
		CacheSize:    cfg.EmbeddingCacheSize,
		Metrics:      embeddingMetrics,
		CacheMetrics: cacheMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding provider: %w", err)
	}

	openingsRepo := repository.NewOpeningsRepository(db)
	personsRepo := repository.NewPersonsRepository(db)
	embeddingsRepo := repository.NewEmbeddingsRepository(db)
	profilesRepo := repository.NewProfilesRepository(db)
	resultsRepo := repository.NewResultsRepository(db)

	index := service.NewEmbeddingIndexService(service.EmbeddingIndexServiceParams{
		Store:    embeddingsRepo,
		Openings: openingsRepo,
		Profiles: profilesRepo,
		Clients:  personsRepo,
		Embedder: provider,
	})

	justifier := justification.NewGenerator(newCompleter(cfg),
		justification.WithRateLimit(cfg.JustificationRateLimit),
		justification.WithMetrics(pipelineMetrics),
	)

	forward := service.NewForwardPipeline(service.ForwardPipelineParams{
		Openings:     openingsRepo,
		Candidates:   repository.NewCandidatesRepository(db),
		Index:        index,
		Feedback:     repository.NewFeedbackRepository(db),
		Profiles:     profilesRepo,
		Justifier:    justifier,
		Results:      resultsRepo,
		Model:        forwardModel(cfg),
		Metrics:      pipelineMetrics,
		CacheMetrics: cacheMetrics,
	})

	reverse := service.NewReversePipeline(service.ReversePipelineParams{
		Persons:    personsRepo,
		Embeddings: embeddingsRepo,
		Retriever:  repository.NewReverseRepository(db),
		Index:      index,
		Profiles:   profilesRepo,
		Justifier:  justifier,
		Results:    resultsRepo,
		Metrics:    pipelineMetrics,
	})

	backfill := service.NewBackfillService(service.BackfillServiceParams{
		Store:    openingsRepo,
		Pipeline: forward,
		Workers:  cfg.BackfillWorkers,
		MaxLimit: cfg.BackfillMaxLimit,
		Metrics:  backfillMetrics,
	})

	return &Engine{Forward: forward, Reverse: reverse, Backfill: backfill, Index: index}, nil
}
