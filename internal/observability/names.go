// Package observability provides OpenTelemetry metrics, tracing and log correlation for the matcher.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNamePipelineRuns        = "matcher_pipeline_runs_total"
	MetricNamePipelineDuration    = "matcher_pipeline_duration_seconds"
	MetricNamePipelinePoolSize    = "matcher_pipeline_pool_size"
	MetricNameJustifications      = "matcher_justifications_total"
	MetricNameEmbeddingBatches    = "matcher_embedding_batches_total"
	MetricNameEmbeddingTexts      = "matcher_embedding_texts_total"
	MetricNameEmbeddingRetries    = "matcher_embedding_retries_total"
	MetricNameEmbeddingFallbacks  = "matcher_embedding_fallbacks_total"
	MetricNameEmbeddingDuration   = "matcher_embedding_duration_seconds"
	MetricNameCacheHits           = "matcher_cache_hits_total"
	MetricNameCacheMisses         = "matcher_cache_misses_total"
	MetricNameHTTPRequests        = "matcher_http_requests_total"
	MetricNameHTTPDuration        = "matcher_http_request_duration_seconds"
	MetricNameRequestBodyTooLarge = "matcher_request_body_too_large_total"
	MetricNameBackfillItems       = "matcher_backfill_items_total"
	MetricNameRiverQueueDepth     = "matcher_river_queue_depth"
)

// Attribute keys.
const (
	AttrPipeline    = "pipeline"
	AttrOutcome     = "outcome"
	AttrReason      = "reason"
	AttrStatus      = "status"
	AttrCache       = "cache"
	AttrMethod      = "method"
	AttrRoute       = "route"
	AttrStatusClass = "status_class"
)

// Pipelines.
const (
	PipelineForward = "forward"
	PipelineReverse = "reverse"
)

// AllowedPipelines for the pipeline attribute.
var AllowedPipelines = map[string]bool{
	PipelineForward: true,
	PipelineReverse: true,
}

// AllowedPipelineOutcomes for matcher_pipeline_runs_total.
var AllowedPipelineOutcomes = map[string]bool{
	"ranked":       true,
	"empty":        true,
	"no_embedding": true,
	"not_found":    true,
	"error":        true,
}

// AllowedJustificationOutcomes for matcher_justifications_total.
var AllowedJustificationOutcomes = map[string]bool{
	"generated":   true,
	"stub":        true,
	"unavailable": true,
}

// AllowedEmbeddingRetryReasons for matcher_embedding_retries_total.
var AllowedEmbeddingRetryReasons = map[string]bool{
	"provider_error": true,
}

// AllowedEmbeddingFallbackReasons for matcher_embedding_fallbacks_total.
var AllowedEmbeddingFallbackReasons = map[string]bool{
	"no_client":      true,
	"empty_text":     true,
	"provider_error": true,
	"invalid_vector": true,
}

// AllowedEmbeddingStatuses for matcher_embedding_duration_seconds.
var AllowedEmbeddingStatuses = map[string]bool{
	"success":  true,
	"fallback": true,
}

// AllowedCacheNames bounds the cache attribute.
var AllowedCacheNames = map[string]bool{
	"embedding_text":  true,
	"project_profile": true,
}

// AllowedBackfillOutcomes for matcher_backfill_items_total.
var AllowedBackfillOutcomes = map[string]bool{
	"generated": true,
	"failed":    true,
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}

// NormalizeCacheName returns name if it is a known cache, otherwise "other".
func NormalizeCacheName(name string) string {
	return NormalizeReason(name, AllowedCacheNames)
}

// StatusClass maps an HTTP status code to 1xx..5xx.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case status >= 100:
		return "1xx"
	default:
		return "unknown"
	}
}
