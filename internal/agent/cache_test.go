package agent

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *HandleCache {
	t.Helper()
	cache := OpenHandleCache(filepath.Join(t.TempDir(), "agent_cache.db"), slog.Default())
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestHandleCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	cache.Store(ctx, "asst_123", "fp-a")

	id, ok := cache.Load(ctx, "fp-a")
	require.True(t, ok)
	assert.Equal(t, "asst_123", id)
}

func TestHandleCache_MismatchIsMiss(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	cache.Store(ctx, "asst_123", "fp-a")

	_, ok := cache.Load(ctx, "fp-other")
	assert.False(t, ok)
}

func TestHandleCache_EmptyIsMiss(t *testing.T) {
	_, ok := newTestCache(t).Load(context.Background(), "fp-a")
	assert.False(t, ok)
}

func TestHandleCache_StoreOverwrites(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	cache.Store(ctx, "asst_old", "fp-a")
	cache.Store(ctx, "asst_new", "fp-a")

	id, ok := cache.Load(ctx, "fp-a")
	require.True(t, ok)
	assert.Equal(t, "asst_new", id)
}

func TestHandleCache_BrokenPathDegradesToMiss(t *testing.T) {
	// A directory that does not exist: open fails, cache must still be usable.
	cache := OpenHandleCache(filepath.Join("/nonexistent", "nested", "cache.db"), slog.Default())
	defer func() { _ = cache.Close() }()

	ctx := context.Background()
	cache.Store(ctx, "asst_123", "fp-a") // Must not panic.
	_, ok := cache.Load(ctx, "fp-a")
	assert.False(t, ok)
}
