package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/fieldcalc/calc-engine/infrastructure/memstore"
	"github.com/fieldcalc/calc-engine/internal/domain"
)

func newLimitedStore(t *testing.T, limit rate.Limit, burst int) *RateLimitedTemplateRepository {
	t.Helper()
	store := memstore.NewTemplateStore()
	store.Put(domain.CalculationTemplate{
		ID:       "residential-load",
		Name:     "Residential Service Load",
		IsActive: true,
	})
	return NewRateLimitedTemplateRepository(store, limit, burst)
}

func TestRateLimitedTemplateRepository_Delegates(t *testing.T) {
	repo := newLimitedStore(t, rate.Inf, 1)
	ctx := context.Background()

	found, err := repo.FindByID(ctx, "residential-load")
	require.NoError(t, err)
	assert.Equal(t, "Residential Service Load", found.Name)

	page, err := repo.FindAll(ctx, domain.TemplateFilter{})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)

	require.NoError(t, repo.IncrementUsage(ctx, "residential-load"))
	require.NoError(t, repo.UpdateRating(ctx, "residential-load", 4))

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRateLimitedTemplateRepository_BlocksUntilToken(t *testing.T) {
	// One token per 50ms with a burst of one: the second call has to
	// wait for the bucket to refill.
	repo := newLimitedStore(t, rate.Every(50*time.Millisecond), 1)
	ctx := context.Background()

	start := time.Now()
	_, err := repo.FindByID(ctx, "residential-load")
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, "residential-load")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRateLimitedTemplateRepository_CanceledContext(t *testing.T) {
	repo := newLimitedStore(t, rate.Every(time.Hour), 1)
	ctx := context.Background()

	// Drain the burst token.
	_, err := repo.FindByID(ctx, "residential-load")
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	_, err = repo.FindByID(canceled, "residential-load")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
