package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrending(t *testing.T) {
	tests := []struct {
		name          string
		usageCount    int64
		averageRating float64
		want          bool
	}{
		{
			name:          "above both thresholds",
			usageCount:    51,
			averageRating: 4.1,
			want:          true,
		},
		{
			name:          "usage exactly at threshold",
			usageCount:    50,
			averageRating: 4.5,
			want:          false,
		},
		{
			name:          "rating exactly at threshold",
			usageCount:    200,
			averageRating: 4.0,
			want:          false,
		},
		{
			name:          "high rating with low usage",
			usageCount:    10,
			averageRating: 5.0,
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Trending(tt.usageCount, tt.averageRating))
		})
	}
}

func TestPopular(t *testing.T) {
	assert.False(t, Popular(100))
	assert.True(t, Popular(101))
	assert.False(t, Popular(0))
}

func TestIsNew(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsNew(now.AddDate(0, 0, -29), now))
	assert.False(t, IsNew(now.AddDate(0, 0, -30), now))
	assert.True(t, IsNew(now, now))
}

func TestComputeFlags(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	tmpl := &CalculationTemplate{
		UsageCount:    150,
		AverageRating: 4.6,
		CreatedAt:     now.AddDate(0, 0, -10),
	}

	flags := ComputeFlags(tmpl, now)
	assert.True(t, flags.Trending)
	assert.True(t, flags.Popular)
	assert.True(t, flags.IsNew)

	stale := &CalculationTemplate{
		UsageCount:    5,
		AverageRating: 3.0,
		CreatedAt:     now.AddDate(-1, 0, 0),
	}
	flags = ComputeFlags(stale, now)
	assert.False(t, flags.Trending)
	assert.False(t, flags.Popular)
	assert.False(t, flags.IsNew)
}

func TestTemplateFilter_WithDefaults(t *testing.T) {
	tests := []struct {
		name   string
		filter TemplateFilter
		want   TemplateFilter
	}{
		{
			name:   "zero filter gets full defaults",
			filter: TemplateFilter{},
			want:   TemplateFilter{Page: 1, Limit: 50, SortBy: SortPopular},
		},
		{
			name:   "explicit values survive",
			filter: TemplateFilter{Page: 3, Limit: 10, SortBy: SortNewest},
			want:   TemplateFilter{Page: 3, Limit: 10, SortBy: SortNewest},
		},
		{
			name:   "negative page falls back",
			filter: TemplateFilter{Page: -1, Limit: 25},
			want:   TemplateFilter{Page: 1, Limit: 25, SortBy: SortPopular},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.WithDefaults())
		})
	}
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2, 3}, 7, 1, 3)
	assert.Equal(t, 7, p.Pagination.Total)
	assert.Equal(t, 3, p.Pagination.Pages)
	assert.Equal(t, []int{1, 2, 3}, p.Data)

	empty := NewPaginated[string](nil, 0, 1, 50)
	assert.Equal(t, 0, empty.Pagination.Pages)
	assert.Empty(t, empty.Data)
}
