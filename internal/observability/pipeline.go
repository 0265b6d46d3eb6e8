package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics records forward and reverse ranking runs.
type PipelineMetrics interface {
	RecordRun(ctx context.Context, pipeline, outcome string, duration time.Duration)
	RecordPoolSize(ctx context.Context, pipeline string, size int)
	RecordJustification(ctx context.Context, outcome string)
}

type pipelineMetrics struct {
	runs           metric.Int64Counter
	duration       metric.Float64Histogram
	poolSize       metric.Int64Histogram
	justifications metric.Int64Counter
}

// NewPipelineMetrics creates PipelineMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewPipelineMetrics(meter metric.Meter) (PipelineMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	runs, err := meter.Int64Counter(
		MetricNamePipelineRuns,
		metric.WithDescription("Ranking runs by pipeline and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pipeline runs counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNamePipelineDuration,
		metric.WithDescription("Ranking run duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pipeline duration histogram: %w", err)
	}

	poolSize, err := meter.Int64Histogram(
		MetricNamePipelinePoolSize,
		metric.WithDescription("Entries considered per run (neighbors for forward, openings for reverse)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pipeline pool size histogram: %w", err)
	}

	justifications, err := meter.Int64Counter(
		MetricNameJustifications,
		metric.WithDescription("Justifications written by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create justifications counter: %w", err)
	}

	return &pipelineMetrics{
		runs:           runs,
		duration:       duration,
		poolSize:       poolSize,
		justifications: justifications,
	}, nil
}

func (p *pipelineMetrics) RecordRun(ctx context.Context, pipeline, outcome string, duration time.Duration) {
	pipeline = NormalizeReason(pipeline, AllowedPipelines)
	outcome = NormalizeReason(outcome, AllowedPipelineOutcomes)

	p.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrPipeline, pipeline),
		attribute.String(AttrOutcome, outcome),
	))
	p.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrPipeline, pipeline)))
}

func (p *pipelineMetrics) RecordPoolSize(ctx context.Context, pipeline string, size int) {
	p.poolSize.Record(ctx, int64(size), metric.WithAttributes(
		attribute.String(AttrPipeline, NormalizeReason(pipeline, AllowedPipelines)),
	))
}

func (p *pipelineMetrics) RecordJustification(ctx context.Context, outcome string) {
	p.justifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOutcome, NormalizeReason(outcome, AllowedJustificationOutcomes)),
	))
}
