package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(s string) string { return s }

func TestLoaderCache_GetWithStats(t *testing.T) {
	var loads atomic.Int32

	c, err := NewLoaderCache[string, []float32](10, identity)
	require.NoError(t, err)

	load := func(_ context.Context, key string) ([]float32, error) {
		loads.Add(1)

		return []float32{float32(len(key))}, nil
	}

	v, hit, err := c.GetWithStats(context.Background(), "abc", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []float32{3}, v)

	v, hit, err = c.GetWithStats(context.Background(), "abc", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []float32{3}, v)
	assert.Equal(t, int32(1), loads.Load())
}

func TestLoaderCache_coalescesConcurrentMisses(t *testing.T) {
	var loads atomic.Int32

	c, err := NewLoaderCache[string, int](10, identity)
	require.NoError(t, err)

	release := make(chan struct{})
	load := func(_ context.Context, _ string) (int, error) {
		loads.Add(1)
		<-release

		return 42, nil
	}

	var wg sync.WaitGroup

	results := make([]int, 10)
	for i := range results {
		wg.Go(func() {
			v, _ := c.Get(context.Background(), "x", load)
			results[i] = v
		})
	}

	close(release)
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 42, v)
	}

	n := loads.Load()
	assert.GreaterOrEqual(t, n, int32(1))
	assert.LessOrEqual(t, n, int32(10))
}

func TestLoaderCache_PeekAndAdd(t *testing.T) {
	c, err := NewLoaderCache[string, string](2, strings.ToLower)
	require.NoError(t, err)

	_, ok := c.Peek("A")
	assert.False(t, ok)

	c.Add("A", "first")

	v, ok := c.Peek("a")
	require.True(t, ok)
	assert.Equal(t, "first", v)

	c.Add("b", "second")
	c.Add("c", "third")

	_, ok = c.Peek("a")
	assert.False(t, ok, "least recently used entry is evicted")
	assert.Equal(t, 2, c.Len())
}

func TestLoaderCache_Invalidate(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, identity)
	require.NoError(t, err)

	ctx := context.Background()
	load := func(_ context.Context, key string) (string, error) { return "v-" + key, nil }

	_, _ = c.Get(ctx, "a", load)
	_, _ = c.Get(ctx, "b", load)
	require.Equal(t, 2, c.Len())

	c.Invalidate("a")
	assert.Equal(t, 1, c.Len())

	_, hit, _ := c.GetWithStats(ctx, "a", load)
	assert.False(t, hit)

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestLoaderCache_loadErrorIsNotCached(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, identity)
	require.NoError(t, err)

	loadErr := errors.New("store unavailable")

	_, err = c.Get(context.Background(), "a", func(context.Context, string) (string, error) {
		return "", loadErr
	})
	require.ErrorIs(t, err, loadErr)
	assert.Equal(t, 0, c.Len())
}
