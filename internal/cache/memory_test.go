package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache[string]()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "key", "value", time.Minute))

	got, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	require.NoError(t, c.Delete(ctx, "key"))
	_, err = c.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache[int]()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", 42, -time.Second))

	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetWithFetchPopulatesCache(t *testing.T) {
	c := NewMemoryCache[string]()
	ctx := context.Background()

	fetches := 0
	fetch := func(ctx context.Context, key string) (string, error) {
		fetches++
		return "fetched-" + key, nil
	}

	got, err := GetWithFetch(ctx, c, "a", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "fetched-a", got)
	assert.Equal(t, 1, fetches)

	// Second read is served from cache.
	got, err = GetWithFetch(ctx, c, "a", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "fetched-a", got)
	assert.Equal(t, 1, fetches)
}

func TestGetWithFetchPropagatesError(t *testing.T) {
	c := NewMemoryCache[string]()
	boom := errors.New("backend down")

	_, err := GetWithFetch(context.Background(), c, "a", time.Minute,
		func(ctx context.Context, key string) (string, error) {
			return "", boom
		})
	assert.ErrorIs(t, err, boom)
}
