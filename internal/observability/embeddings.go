package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EmbeddingMetrics records embedding provider metrics.
type EmbeddingMetrics interface {
	RecordBatch(ctx context.Context, size int)
	RecordRetry(ctx context.Context, reason string)
	RecordFallback(ctx context.Context, reason string, count int)
	RecordDuration(ctx context.Context, duration time.Duration, status string)
}

type embeddingMetrics struct {
	batches   metric.Int64Counter
	texts     metric.Int64Counter
	retries   metric.Int64Counter
	fallbacks metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewEmbeddingMetrics creates EmbeddingMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewEmbeddingMetrics(meter metric.Meter) (EmbeddingMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	batches, err := meter.Int64Counter(
		MetricNameEmbeddingBatches,
		metric.WithDescription("Embedding batches sent to the provider"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding batches counter: %w", err)
	}

	texts, err := meter.Int64Counter(
		MetricNameEmbeddingTexts,
		metric.WithDescription("Texts sent to the embedding provider"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding texts counter: %w", err)
	}

	retries, err := meter.Int64Counter(
		MetricNameEmbeddingRetries,
		metric.WithDescription("Embedding provider calls retried"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding retries counter: %w", err)
	}

	fallbacks, err := meter.Int64Counter(
		MetricNameEmbeddingFallbacks,
		metric.WithDescription("Vectors replaced by the deterministic fallback, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding fallbacks counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameEmbeddingDuration,
		metric.WithDescription("Embedding batch duration including retries (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding duration histogram: %w", err)
	}

	return &embeddingMetrics{
		batches:   batches,
		texts:     texts,
		retries:   retries,
		fallbacks: fallbacks,
		duration:  duration,
	}, nil
}

func (e *embeddingMetrics) RecordBatch(ctx context.Context, size int) {
	e.batches.Add(ctx, 1)
	e.texts.Add(ctx, int64(size))
}

func (e *embeddingMetrics) RecordRetry(ctx context.Context, reason string) {
	reason = NormalizeReason(reason, AllowedEmbeddingRetryReasons)
	e.retries.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrReason, reason)))
}

func (e *embeddingMetrics) RecordFallback(ctx context.Context, reason string, count int) {
	reason = NormalizeReason(reason, AllowedEmbeddingFallbackReasons)
	e.fallbacks.Add(ctx, int64(count), metric.WithAttributes(attribute.String(AttrReason, reason)))
}

func (e *embeddingMetrics) RecordDuration(ctx context.Context, duration time.Duration, status string) {
	status = NormalizeReason(status, AllowedEmbeddingStatuses)
	e.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrStatus, status)))
}
