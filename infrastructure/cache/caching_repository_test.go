package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcalc/calc-engine/infrastructure/memstore"
	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

// mapCache is an in-memory CacheStore for exercising the decorator
// without a Redis instance.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]any

	getErr error
	setErr error

	gets, sets, deletes int
}

var _ ports.CacheStore = (*mapCache)(nil)

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]any)}
}

func (c *mapCache) Get(ctx context.Context, key string) (any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.entries, key)
	return nil
}

func (c *mapCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
	return nil
}

func seedStore(t *testing.T) *memstore.TemplateStore {
	t.Helper()
	store := memstore.NewTemplateStore()
	store.Put(domain.CalculationTemplate{
		ID:       "residential-load",
		Name:     "Residential Service Load",
		IsActive: true,
	})
	return store
}

func TestCachingTemplateRepository_ReadThrough(t *testing.T) {
	store := seedStore(t)
	cacheStore := newMapCache()
	repo := NewCachingTemplateRepository(store, cacheStore, time.Minute)
	ctx := context.Background()

	// First read misses the cache and populates it.
	first, err := repo.FindByID(ctx, "residential-load")
	require.NoError(t, err)
	assert.Equal(t, "Residential Service Load", first.Name)
	assert.Equal(t, 1, cacheStore.sets)

	// Second read is served from the cache: mutate the store and the
	// stale cached copy still comes back.
	store.Put(domain.CalculationTemplate{
		ID:       "residential-load",
		Name:     "Renamed",
		IsActive: true,
	})
	second, err := repo.FindByID(ctx, "residential-load")
	require.NoError(t, err)
	assert.Equal(t, "Residential Service Load", second.Name)
	assert.Equal(t, 1, cacheStore.sets, "cache hit does not rewrite the entry")
}

func TestCachingTemplateRepository_MissPropagatesNotFound(t *testing.T) {
	repo := NewCachingTemplateRepository(seedStore(t), newMapCache(), time.Minute)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCachingTemplateRepository_WritesInvalidate(t *testing.T) {
	store := seedStore(t)
	cacheStore := newMapCache()
	repo := NewCachingTemplateRepository(store, cacheStore, time.Minute)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "residential-load")
	require.NoError(t, err)

	// The increment drops the cached entry, so the next read observes
	// the new counter.
	require.NoError(t, repo.IncrementUsage(ctx, "residential-load"))
	assert.Equal(t, 1, cacheStore.deletes)

	after, err := repo.FindByID(ctx, "residential-load")
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.UsageCount)

	require.NoError(t, repo.UpdateRating(ctx, "residential-load", 5))
	assert.Equal(t, 2, cacheStore.deletes)
}

func TestCachingTemplateRepository_CacheFailuresDegrade(t *testing.T) {
	store := seedStore(t)
	cacheStore := newMapCache()
	cacheStore.getErr = errors.New("cache unavailable")
	cacheStore.setErr = errors.New("cache unavailable")
	repo := NewCachingTemplateRepository(store, cacheStore, time.Minute)

	// A broken cache never fails the lookup; reads fall through to
	// the store.
	found, err := repo.FindByID(context.Background(), "residential-load")
	require.NoError(t, err)
	assert.Equal(t, "Residential Service Load", found.Name)
}

func TestCachingTemplateRepository_CorruptEntryFallsThrough(t *testing.T) {
	store := seedStore(t)
	cacheStore := newMapCache()
	cacheStore.entries[templateKey("residential-load")] = "not json"
	repo := NewCachingTemplateRepository(store, cacheStore, time.Minute)

	found, err := repo.FindByID(context.Background(), "residential-load")
	require.NoError(t, err)
	assert.Equal(t, "Residential Service Load", found.Name)
}

func TestCachingTemplateRepository_DelegatesCatalogQueries(t *testing.T) {
	store := seedStore(t)
	repo := NewCachingTemplateRepository(store, newMapCache(), 0)
	ctx := context.Background()

	page, err := repo.FindAll(ctx, domain.TemplateFilter{})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)

	recs, err := repo.GetRecommendations(ctx, "electrician", 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
