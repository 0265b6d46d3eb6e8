package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/observability"
	"github.com/justdoitDT/demo-talent-manager-portal/pkg/cache"
	pkgembeddings "github.com/justdoitDT/demo-talent-manager-portal/pkg/embeddings"
)

// Defaults for the provider.
const (
	DefaultDimensions = 1536
	DefaultBatchSize  = 96

	cacheName = "embedding_text"
)

// ErrCountMismatch is returned when a provider answers with the wrong number of vectors.
var ErrCountMismatch = errors.New("embeddings: provider returned wrong number of vectors")

// Fallback reasons recorded in metrics.
const (
	fallbackNoClient      = "no_client"
	fallbackEmptyText     = "empty_text"
	fallbackProviderError = "provider_error"
	fallbackInvalidVector = "invalid_vector"
)

// ProviderConfig configures a Provider. Zero values take the package defaults.
type ProviderConfig struct {
	Dimensions int
	BatchSize  int
	Retry      RetryPolicy
	// RateLimit caps provider calls per second; zero disables limiting.
	RateLimit float64
	// CacheSize is the number of text vectors kept in memory; zero disables the cache.
	CacheSize    int
	Metrics      observability.EmbeddingMetrics
	CacheMetrics observability.CacheMetrics
}

// Provider embeds texts with a Client. Every returned vector is unit length with the configured
// dimension; texts the client cannot embed get FallbackVector. A nil client embeds everything
// with the fallback.
type Provider struct {
	client       Client
	dim          int
	batchSize    int
	retry        RetryPolicy
	limiter      *rate.Limiter
	cache        *cache.LoaderCache[string, []float32]
	metrics      observability.EmbeddingMetrics
	cacheMetrics observability.CacheMetrics
}

// NewProvider creates a Provider around client.
func NewProvider(client Client, cfg ProviderConfig) (*Provider, error) {
	p := &Provider{
		client:       client,
		dim:          cfg.Dimensions,
		batchSize:    cfg.BatchSize,
		retry:        cfg.Retry,
		metrics:      cfg.Metrics,
		cacheMetrics: cfg.CacheMetrics,
	}

	if p.dim <= 0 {
		p.dim = DefaultDimensions
	}

	if p.batchSize <= 0 {
		p.batchSize = DefaultBatchSize
	}

	if p.retry.MaxAttempts <= 0 {
		p.retry = DefaultRetryPolicy()
	}

	if cfg.RateLimit > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	if cfg.CacheSize > 0 {
		c, err := cache.NewLoaderCache[string, []float32](cfg.CacheSize, ContentHash)
		if err != nil {
			return nil, fmt.Errorf("create embedding cache: %w", err)
		}

		p.cache = c
	}

	return p, nil
}

// Dimensions returns the vector length the provider produces.
func (p *Provider) Dimensions() int { return p.dim }

// EmbedText embeds a single text.
func (p *Provider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	out, err := p.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return out[0], nil
}

// EmbedTexts embeds texts in batches and returns one vector per text, in order.
// It only fails when ctx is cancelled.
func (p *Provider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	pending := make([]int, 0, len(texts))

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = FallbackVector(text, p.dim)
			p.recordFallback(ctx, fallbackEmptyText, 1)

			continue
		}

		if vec, ok := p.cached(ctx, text); ok {
			out[i] = vec

			continue
		}

		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += p.batchSize {
		idx := pending[start:min(start+p.batchSize, len(pending))]

		batch := make([]string, len(idx))
		for j, i := range idx {
			batch[j] = texts[i]
		}

		vectors, err := p.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}

		for j, i := range idx {
			out[i] = vectors[j]
		}
	}

	return out, nil
}

func (p *Provider) cached(ctx context.Context, text string) ([]float32, bool) {
	if p.cache == nil {
		return nil, false
	}

	vec, ok := p.cache.Peek(text)
	if p.cacheMetrics != nil {
		if ok {
			p.cacheMetrics.RecordHit(ctx, cacheName)
		} else {
			p.cacheMetrics.RecordMiss(ctx, cacheName)
		}
	}

	return vec, ok
}

// embedBatch embeds one batch. Provider failures degrade to fallback vectors; only a done
// context is returned as an error.
func (p *Provider) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	if p.client == nil {
		p.recordFallback(ctx, fallbackNoClient, len(batch))

		return fallbackAll(batch, p.dim), nil
	}

	start := time.Now()

	var vectors [][]float32

	err := p.retry.Do(ctx, func(ctx context.Context) error {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("wait for rate limiter: %w", err)
			}
		}

		got, err := p.client.Embed(ctx, batch)
		if err != nil {
			return err
		}

		if len(got) != len(batch) {
			return fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(got), len(batch))
		}

		vectors = got

		return nil
	}, func(_ int, err error) {
		if p.metrics != nil {
			p.metrics.RecordRetry(ctx, "provider_error")
		}
	})

	if p.metrics != nil {
		p.metrics.RecordBatch(ctx, len(batch))
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("embed batch: %w", ctxErr)
		}

		slog.Warn("embedding provider failed, using fallback vectors",
			"batch_size", len(batch),
			"error", err,
		)

		p.recordDuration(ctx, start, "fallback")
		p.recordFallback(ctx, fallbackProviderError, len(batch))

		return fallbackAll(batch, p.dim), nil
	}

	for i, vec := range vectors {
		if !pkgembeddings.IsUsable(vec, p.dim) {
			slog.Warn("embedding provider returned unusable vector, using fallback",
				"index", i,
				"length", len(vec),
				"dimensions", p.dim,
			)

			vectors[i] = FallbackVector(batch[i], p.dim)
			p.recordFallback(ctx, fallbackInvalidVector, 1)

			continue
		}

		pkgembeddings.NormalizeL2(vec)

		if p.cache != nil {
			p.cache.Add(batch[i], vec)
		}
	}

	p.recordDuration(ctx, start, "success")

	return vectors, nil
}

func (p *Provider) recordFallback(ctx context.Context, reason string, n int) {
	if p.metrics != nil {
		p.metrics.RecordFallback(ctx, reason, n)
	}
}

func (p *Provider) recordDuration(ctx context.Context, start time.Time, status string) {
	if p.metrics != nil {
		p.metrics.RecordDuration(ctx, time.Since(start), status)
	}
}

func fallbackAll(texts []string, dim int) [][]float32 {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = FallbackVector(t, dim)
	}

	return out
}
