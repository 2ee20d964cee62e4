package domain

import (
	"math"
	"time"
)

// UsageStats summarizes how often a template has been used and how it
// is rated, as recorded on the template itself.
type UsageStats struct {
	UsageCount    int64   `json:"usage_count"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

// ExecutionStats summarizes the persisted execution history of a
// template.
type ExecutionStats struct {
	TotalExecutions int64     `json:"total_executions"`
	UniqueUsers     int       `json:"unique_users"`
	LastExecutedAt  time.Time `json:"last_executed_at,omitzero"`
}

// FavoriteStats summarizes how many users have favorited a template.
type FavoriteStats struct {
	FavoriteCount int64 `json:"favorite_count"`
}

// TemplateStats is the structural merge of the three independently
// fetched per-template aggregates. The merge performs no inference:
// each source object is carried through as-is.
type TemplateStats struct {
	Usage      UsageStats     `json:"usage"`
	Executions ExecutionStats `json:"executions"`
	Favorites  FavoriteStats  `json:"favorites"`
}

// MergeTemplateStats folds the three per-template aggregates into one
// TemplateStats. Callers fetch the sources concurrently and fail the
// whole merge if any source fails; partial stats are never produced.
func MergeTemplateStats(usage UsageStats, executions ExecutionStats, favorites FavoriteStats) TemplateStats {
	return TemplateStats{Usage: usage, Executions: executions, Favorites: favorites}
}

// CatalogStats summarizes a bounded page of the template catalog. When
// the catalog exceeds the page cap, the values are an approximation
// over that page, not a true global aggregate.
type CatalogStats struct {
	TotalTemplates    int     `json:"total_templates"`
	VerifiedTemplates int     `json:"verified_templates"`
	TotalExecutions   int64   `json:"total_executions"`
	AverageRating     float64 `json:"average_rating"`
}

// AggregateCatalog folds a collection of templates into summary
// counters. An empty collection yields all-zero stats; the average is
// rounded to two decimals.
func AggregateCatalog(templates []CalculationTemplate) CatalogStats {
	stats := CatalogStats{TotalTemplates: len(templates)}
	if len(templates) == 0 {
		return stats
	}

	var ratingSum float64
	for _, t := range templates {
		if t.IsVerified {
			stats.VerifiedTemplates++
		}
		stats.TotalExecutions += t.UsageCount
		ratingSum += t.AverageRating
	}
	stats.AverageRating = Round2(ratingSum / float64(len(templates)))
	return stats
}

// Round2 rounds to two decimal places, the precision catalog averages
// are reported at.
func Round2(x float64) float64 { return math.Round(x*100) / 100 }
