package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all matcher metric collectors. When metrics are disabled the struct pointer is nil;
// components receive the individual interfaces and handle nil.
type Metrics struct {
	Pipeline   PipelineMetrics
	Embeddings EmbeddingMetrics
	Cache      CacheMetrics
	API        APIMetrics
	Backfill   BackfillMetrics
}

// NewMetrics creates every collector from the given meter.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	pipeline, err := NewPipelineMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("pipeline metrics: %w", err)
	}

	embeddings, err := NewEmbeddingMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("embedding metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	api, err := NewAPIMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("api metrics: %w", err)
	}

	backfill, err := NewBackfillMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("backfill metrics: %w", err)
	}

	return &Metrics{
		Pipeline:   pipeline,
		Embeddings: embeddings,
		Cache:      cache,
		API:        api,
		Backfill:   backfill,
	}, nil
}
