package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BackfillMetrics records batch backfill item outcomes.
type BackfillMetrics interface {
	RecordItem(ctx context.Context, outcome string)
}

type backfillMetrics struct {
	items metric.Int64Counter
}

// NewBackfillMetrics creates BackfillMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewBackfillMetrics(meter metric.Meter) (BackfillMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	items, err := meter.Int64Counter(
		MetricNameBackfillItems,
		metric.WithDescription("Backfill items processed by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create backfill items counter: %w", err)
	}

	return &backfillMetrics{items: items}, nil
}

func (b *backfillMetrics) RecordItem(ctx context.Context, outcome string) {
	b.items.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOutcome, NormalizeReason(outcome, AllowedBackfillOutcomes)),
	))
}

// QueueDepthFunc reports the number of jobs waiting in the queue.
type QueueDepthFunc func(ctx context.Context) (int64, error)

// RegisterQueueDepth registers an observable gauge reading depth on each collection.
// It is a no-op when meter is nil.
func RegisterQueueDepth(meter metric.Meter, depth QueueDepthFunc) error {
	if meter == nil {
		return nil
	}

	_, err := meter.Int64ObservableGauge(
		MetricNameRiverQueueDepth,
		metric.WithDescription("River jobs available to work"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			n, err := depth(ctx)
			if err != nil {
				return fmt.Errorf("read queue depth: %w", err)
			}

			o.Observe(n)

			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("create queue depth gauge: %w", err)
	}

	return nil
}
