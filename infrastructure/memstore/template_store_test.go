package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcalc/calc-engine/internal/domain"
)

func seedCatalog(t *testing.T) *TemplateStore {
	t.Helper()
	store := NewTemplateStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Put(domain.CalculationTemplate{
		ID: "residential-load", Name: "Residential Service Load",
		Description:      "NEC 220 service load for a dwelling unit",
		Category:         "electrical",
		TargetProfession: "electrician",
		Tags:             []string{"nec", "service"},
		IsActive:         true, IsVerified: true,
		UsageCount: 120, AverageRating: 4.5,
		CreatedAt: base,
	})
	store.Put(domain.CalculationTemplate{
		ID: "beam-sizing", Name: "Steel Beam Sizing",
		Description:      "Simply supported beam under uniform load",
		Category:         "structural",
		TargetProfession: "engineer",
		Tags:             []string{"steel", "framing"},
		IsActive:         true, IsFeatured: true,
		UsageCount: 60, AverageRating: 4.2,
		CreatedAt: base.AddDate(0, 1, 0),
	})
	store.Put(domain.CalculationTemplate{
		ID: "slab-volume", Name: "Concrete Slab Volume",
		Description:      "Slab volume with waste and truckloads",
		Category:         "concrete",
		TargetProfession: "contractor",
		Tags:             []string{"concrete", "ordering"},
		IsActive:         true,
		UsageCount:       30, AverageRating: 3.8,
		CreatedAt: base.AddDate(0, 2, 0),
	})
	store.Put(domain.CalculationTemplate{
		ID: "retired-calc", Name: "Retired Calculation",
		Category: "electrical",
		IsActive: false,
		CreatedAt: base,
	})
	return store
}

func TestTemplateStore_FindByID(t *testing.T) {
	store := seedCatalog(t)
	ctx := context.Background()

	found, err := store.FindByID(ctx, "residential-load")
	require.NoError(t, err)
	assert.Equal(t, "Residential Service Load", found.Name)

	// The returned template is a copy; mutating it does not touch the
	// store.
	found.Name = "mutated"
	again, err := store.FindByID(ctx, "residential-load")
	require.NoError(t, err)
	assert.Equal(t, "Residential Service Load", again.Name)

	_, err = store.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTemplateStore_FindAll(t *testing.T) {
	store := seedCatalog(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  domain.TemplateFilter
		wantIDs []string
	}{
		{
			name:    "defaults exclude inactive and sort by usage",
			filter:  domain.TemplateFilter{},
			wantIDs: []string{"residential-load", "beam-sizing", "slab-volume"},
		},
		{
			name:    "include inactive",
			filter:  domain.TemplateFilter{IncludeInactive: true, SortBy: domain.SortName},
			wantIDs: []string{"slab-volume", "residential-load", "retired-calc", "beam-sizing"},
		},
		{
			name:    "category filter is case-insensitive",
			filter:  domain.TemplateFilter{Category: "ELECTRICAL"},
			wantIDs: []string{"residential-load"},
		},
		{
			name:    "profession filter",
			filter:  domain.TemplateFilter{TargetProfession: "engineer"},
			wantIDs: []string{"beam-sizing"},
		},
		{
			name:    "verified only",
			filter:  domain.TemplateFilter{ShowOnlyVerified: true},
			wantIDs: []string{"residential-load"},
		},
		{
			name:    "featured only",
			filter:  domain.TemplateFilter{ShowOnlyFeatured: true},
			wantIDs: []string{"beam-sizing"},
		},
		{
			name:    "tag filter",
			filter:  domain.TemplateFilter{Tags: []string{"steel"}},
			wantIDs: []string{"beam-sizing"},
		},
		{
			name:    "sort by rating",
			filter:  domain.TemplateFilter{SortBy: domain.SortRating},
			wantIDs: []string{"residential-load", "beam-sizing", "slab-volume"},
		},
		{
			name:    "sort by newest",
			filter:  domain.TemplateFilter{SortBy: domain.SortNewest},
			wantIDs: []string{"slab-volume", "beam-sizing", "residential-load"},
		},
		{
			name:    "substring search on description",
			filter:  domain.TemplateFilter{SearchTerm: "uniform load"},
			wantIDs: []string{"beam-sizing"},
		},
		{
			name:    "fuzzy search tolerates a typo",
			filter:  domain.TemplateFilter{SearchTerm: "conrete"},
			wantIDs: []string{"slab-volume"},
		},
		{
			name:    "search with no match",
			filter:  domain.TemplateFilter{SearchTerm: "plumbing"},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.FindAll(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(page.Data))
			for _, tmpl := range page.Data {
				ids = append(ids, tmpl.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), page.Pagination.Total)
		})
	}
}

func TestTemplateStore_FindAll_Paging(t *testing.T) {
	store := seedCatalog(t)
	ctx := context.Background()

	first, err := store.FindAll(ctx, domain.TemplateFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first.Data, 2)
	assert.Equal(t, 3, first.Pagination.Total)
	assert.Equal(t, 2, first.Pagination.Pages)

	second, err := store.FindAll(ctx, domain.TemplateFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, second.Data, 1)

	// A page past the end is empty, not an error.
	third, err := store.FindAll(ctx, domain.TemplateFilter{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, third.Data)
}

func TestTemplateStore_IncrementUsage(t *testing.T) {
	store := seedCatalog(t)
	ctx := context.Background()

	require.NoError(t, store.IncrementUsage(ctx, "slab-volume"))
	require.NoError(t, store.IncrementUsage(ctx, "slab-volume"))

	found, err := store.FindByID(ctx, "slab-volume")
	require.NoError(t, err)
	assert.Equal(t, int64(32), found.UsageCount)

	assert.ErrorIs(t, store.IncrementUsage(ctx, "missing"), domain.ErrNotFound)
}

func TestTemplateStore_UpdateRating(t *testing.T) {
	store := NewTemplateStore()
	store.Put(domain.CalculationTemplate{ID: "t", IsActive: true})
	ctx := context.Background()

	require.NoError(t, store.UpdateRating(ctx, "t", 4))
	require.NoError(t, store.UpdateRating(ctx, "t", 5))

	found, err := store.FindByID(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 4.5, found.AverageRating)
	assert.Equal(t, 2, found.RatingCount)

	assert.ErrorIs(t, store.UpdateRating(ctx, "missing", 3), domain.ErrNotFound)
}

func TestTemplateStore_CuratedQueries(t *testing.T) {
	store := seedCatalog(t)
	ctx := context.Background()

	verified, err := store.FindVerified(ctx, 10)
	require.NoError(t, err)
	require.Len(t, verified, 1)
	assert.Equal(t, "residential-load", verified[0].ID)

	featured, err := store.FindFeatured(ctx, 10)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "beam-sizing", featured[0].ID)

	// residential-load is the only template above both trending
	// thresholds.
	trending, err := store.FindTrending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trending, 1)
	assert.Equal(t, "residential-load", trending[0].ID)
}

func TestTemplateStore_FindSimilar(t *testing.T) {
	store := seedCatalog(t)
	ctx := context.Background()

	store.Put(domain.CalculationTemplate{
		ID: "panel-schedule", Name: "Panel Schedule",
		Category: "electrical", IsActive: true, UsageCount: 10,
	})

	similar, err := store.FindSimilar(ctx, "residential-load", 10)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, "panel-schedule", similar[0].ID)

	_, err = store.FindSimilar(ctx, "missing", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTemplateStore_GetRecommendations(t *testing.T) {
	store := seedCatalog(t)

	recs, err := store.GetRecommendations(context.Background(), "Electrician", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "residential-load", recs[0].ID)
}
