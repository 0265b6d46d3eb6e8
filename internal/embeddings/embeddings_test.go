package embeddings

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgembeddings "github.com/justdoitDT/demo-talent-manager-portal/pkg/embeddings"
)

type mockClient struct {
	embedFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls     atomic.Int32
}

func (m *mockClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)

	return m.embedFunc(ctx, texts)
}

func constantVectors(dim int) func(context.Context, []string) ([][]float32, error) {
	return func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range out {
			v := make([]float32, dim)
			v[i%dim] = 2
			out[i] = v
		}

		return out, nil
	}
}

func noSleep(recorded *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		if recorded != nil {
			*recorded = append(*recorded, d)
		}

		return nil
	}
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, ContentHash("abc"), ContentHash("abc"))
	assert.NotEqual(t, ContentHash("abc"), ContentHash("abd"))
	assert.Len(t, ContentHash(""), 64)
}

func TestFallbackVector(t *testing.T) {
	a := FallbackVector("person-1", 1536)
	b := FallbackVector("person-1", 1536)
	c := FallbackVector("person-2", 1536)

	require.Len(t, a, 1536)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.InDelta(t, 1.0, pkgembeddings.Norm(a), 1e-5)
	assert.True(t, pkgembeddings.IsUsable(a, 1536))
	assert.Nil(t, FallbackVector("x", 0))
}

func TestFallbackVector_SmallDimensions(t *testing.T) {
	assert.Equal(t, []float32{1}, FallbackVector("person-1", 1))

	for _, text := range []string{"a", "b", "person-1", "person-2", "open-7", ""} {
		for dim := 2; dim <= 4; dim++ {
			assert.True(t, pkgembeddings.IsUsable(FallbackVector(text, dim), dim), "text=%q dim=%d", text, dim)
		}
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := DefaultRetryPolicy()

	got := make([]time.Duration, 6)
	for i := range got {
		got[i] = p.Backoff(i)
	}

	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second, 8 * time.Second,
	}, got)
}

func TestRetryPolicy_Do(t *testing.T) {
	t.Run("stops after success", func(t *testing.T) {
		var sleeps []time.Duration

		p := DefaultRetryPolicy()
		p.Sleep = noSleep(&sleeps)

		calls := 0
		err := p.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}

			return nil
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps)
	})

	t.Run("returns last error after max attempts", func(t *testing.T) {
		p := DefaultRetryPolicy()
		p.Sleep = noSleep(nil)

		retries := 0
		calls := 0
		err := p.Do(context.Background(), func(context.Context) error {
			calls++

			return errors.New("down")
		}, func(int, error) { retries++ })

		require.EqualError(t, err, "down")
		assert.Equal(t, DefaultMaxAttempts, calls)
		assert.Equal(t, DefaultMaxAttempts-1, retries)
	})

	t.Run("cancelled context interrupts backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Hour}
		err := p.Do(ctx, func(context.Context) error { return errors.New("down") }, nil)

		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("jitter stays within half and full delay", func(t *testing.T) {
		for range 50 {
			d := jitter(time.Second)
			assert.GreaterOrEqual(t, d, 500*time.Millisecond)
			assert.Less(t, d, time.Second)
		}
	})
}

func newTestProvider(t *testing.T, client Client, cfg ProviderConfig) *Provider {
	t.Helper()

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
		cfg.Retry.Sleep = noSleep(nil)
	}

	p, err := NewProvider(client, cfg)
	require.NoError(t, err)

	return p
}

func TestProvider_EmbedTexts(t *testing.T) {
	ctx := context.Background()

	t.Run("batches and normalizes", func(t *testing.T) {
		var sizes []int

		client := &mockClient{}
		client.embedFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			sizes = append(sizes, len(texts))

			return constantVectors(4)(ctx, texts)
		}

		p := newTestProvider(t, client, ProviderConfig{Dimensions: 4, BatchSize: 3})

		texts := []string{"a", "b", "c", "d", "e", "f", "g"}
		got, err := p.EmbedTexts(ctx, texts)
		require.NoError(t, err)

		require.Len(t, got, len(texts))
		assert.Equal(t, []int{3, 3, 1}, sizes)

		for _, v := range got {
			assert.InDelta(t, 1.0, pkgembeddings.Norm(v), 1e-6)
		}
	})

	t.Run("falls back after retries are exhausted", func(t *testing.T) {
		client := &mockClient{embedFunc: func(context.Context, []string) ([][]float32, error) {
			return nil, errors.New("rate limited")
		}}

		p := newTestProvider(t, client, ProviderConfig{Dimensions: 8})

		got, err := p.EmbedTexts(ctx, []string{"alpha", "beta"})
		require.NoError(t, err)

		assert.Equal(t, int32(DefaultMaxAttempts), client.calls.Load())
		assert.Equal(t, FallbackVector("alpha", 8), got[0])
		assert.Equal(t, FallbackVector("beta", 8), got[1])
	})

	t.Run("wrong vector count is retried", func(t *testing.T) {
		client := &mockClient{}
		client.embedFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			if client.calls.Load() == 1 {
				return [][]float32{}, nil
			}

			return constantVectors(4)(ctx, texts)
		}

		p := newTestProvider(t, client, ProviderConfig{Dimensions: 4})

		got, err := p.EmbedTexts(ctx, []string{"a"})
		require.NoError(t, err)
		assert.Equal(t, int32(2), client.calls.Load())
		assert.Equal(t, []float32{1, 0, 0, 0}, got[0])
	})

	t.Run("unusable vectors are replaced individually", func(t *testing.T) {
		client := &mockClient{embedFunc: func(context.Context, []string) ([][]float32, error) {
			return [][]float32{{0, 0, 0, 0}, {0, 3, 0, 4}, {1, 2}}, nil
		}}

		p := newTestProvider(t, client, ProviderConfig{Dimensions: 4})

		got, err := p.EmbedTexts(ctx, []string{"zero", "good", "short"})
		require.NoError(t, err)

		assert.Equal(t, FallbackVector("zero", 4), got[0])
		assert.InDeltaSlice(t, []float32{0, 0.6, 0, 0.8}, got[1], 1e-6)
		assert.Equal(t, FallbackVector("short", 4), got[2])
	})

	t.Run("blank text never reaches the client", func(t *testing.T) {
		client := &mockClient{embedFunc: constantVectors(4)}
		p := newTestProvider(t, client, ProviderConfig{Dimensions: 4})

		got, err := p.EmbedTexts(ctx, []string{"  "})
		require.NoError(t, err)

		assert.Equal(t, int32(0), client.calls.Load())
		assert.Equal(t, FallbackVector("  ", 4), got[0])
	})

	t.Run("nil client uses fallback", func(t *testing.T) {
		p := newTestProvider(t, nil, ProviderConfig{Dimensions: 16})

		got, err := p.EmbedText(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, FallbackVector("hello", 16), got)
	})

	t.Run("cache serves repeated text", func(t *testing.T) {
		client := &mockClient{embedFunc: constantVectors(4)}
		p := newTestProvider(t, client, ProviderConfig{Dimensions: 4, CacheSize: 10})

		first, err := p.EmbedText(ctx, "same")
		require.NoError(t, err)

		second, err := p.EmbedText(ctx, strings.Clone("same"))
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), client.calls.Load())
	})

	t.Run("cancelled context is an error", func(t *testing.T) {
		client := &mockClient{embedFunc: func(ctx context.Context, _ []string) ([][]float32, error) {
			return nil, ctx.Err()
		}}

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		p := newTestProvider(t, client, ProviderConfig{Dimensions: 4})

		_, err := p.EmbedTexts(cctx, []string{"a"})
		require.ErrorIs(t, err, context.Canceled)
	})
}
