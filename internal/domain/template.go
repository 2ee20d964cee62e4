// Package domain contains pure, dependency-free domain models and the
// pure decision engines (comparison, stats) for the calculation engine.
package domain

import (
	"time"
)

// ParameterType classifies the value a template parameter accepts.
type ParameterType string

// Supported parameter types for template schemas.
const (
	// ParameterNumeric accepts numeric values, optionally range-bounded.
	ParameterNumeric ParameterType = "numeric"

	// ParameterText accepts free-form text.
	ParameterText ParameterType = "text"

	// ParameterEnum accepts one value from a closed set of allowed values.
	ParameterEnum ParameterType = "enum"

	// ParameterBoolean accepts a true/false value.
	ParameterBoolean ParameterType = "boolean"
)

// ParameterDefinition describes a single entry in a template's parameter
// schema. The declared order of definitions on a template is significant:
// validation errors are reported in that order.
type ParameterDefinition struct {
	// Name is the internal key under which a value is supplied.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Label is the human-readable name shown to users. Validation errors
	// are keyed by Label, not Name.
	Label string `json:"label" yaml:"label" validate:"required"`

	// Type determines which validation rules apply to supplied values.
	Type ParameterType `json:"type" yaml:"type" validate:"required,oneof=numeric text enum boolean"`

	// Required marks the parameter as mandatory.
	Required bool `json:"required" yaml:"required"`

	// Min is the inclusive lower bound for numeric parameters, when declared.
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`

	// Max is the inclusive upper bound for numeric parameters, when declared.
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// AllowedValues is the closed value set for enum parameters.
	AllowedValues []string `json:"allowed_values,omitempty" yaml:"allowed_values,omitempty"`

	// Unit is an optional display unit for the parameter (e.g. "sq ft").
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// CalculationTemplate is a named, versioned definition of a parameterized
// calculation: its validation schema plus an opaque reference to a
// registered computation. Templates are authored externally; the engine
// mutates them only through usage-count increments and rating updates.
type CalculationTemplate struct {
	// ID uniquely identifies this template.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable template name.
	Name string `json:"name" yaml:"name"`

	// Description explains what the template calculates.
	Description string `json:"description" yaml:"description"`

	// Category groups templates in the catalog (e.g. "electrical").
	Category string `json:"category" yaml:"category"`

	// TargetProfession names the trade this template is intended for.
	TargetProfession string `json:"target_profession" yaml:"target_profession"`

	// NECReference cites the regulatory section the calculation follows.
	NECReference string `json:"nec_reference,omitempty" yaml:"nec_reference,omitempty"`

	// Parameters is the ordered validation schema for this template.
	Parameters []ParameterDefinition `json:"parameters" yaml:"parameters"`

	// FormulaKind selects the registered computation bound to this
	// template. The computation itself is a black box to the engine.
	FormulaKind string `json:"formula_kind" yaml:"formula_kind"`

	// FormulaConfig carries kind-specific configuration passed to the
	// formula factory when the computation is instantiated.
	FormulaConfig map[string]any `json:"formula_config,omitempty" yaml:"formula_config,omitempty"`

	// IsActive gates whether the template may be executed.
	IsActive bool `json:"is_active" yaml:"is_active"`

	// IsVerified marks templates reviewed by a subject-matter expert.
	IsVerified bool `json:"is_verified" yaml:"is_verified"`

	// IsFeatured marks templates promoted in the catalog.
	IsFeatured bool `json:"is_featured" yaml:"is_featured"`

	// Version is the authoring revision of this template.
	Version int `json:"version" yaml:"version"`

	// UsageCount is the number of successful executions recorded so far.
	UsageCount int64 `json:"usage_count" yaml:"usage_count"`

	// AverageRating is the running mean of user ratings (1-5 scale).
	AverageRating float64 `json:"average_rating" yaml:"average_rating"`

	// RatingCount is the number of ratings folded into AverageRating.
	RatingCount int `json:"rating_count" yaml:"rating_count"`

	// Tags are categorical labels used for filtering and similarity.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// CreatedAt records when the template was authored.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Thresholds for the derived read-model flags.
const (
	trendingMinUsage  = 50
	trendingMinRating = 4.0
	popularMinUsage   = 100
	newTemplateWindow = 30 * 24 * time.Hour
)

// Trending reports whether a template qualifies as trending:
// more than 50 uses with an average rating above 4.0.
func Trending(usageCount int64, averageRating float64) bool {
	return usageCount > trendingMinUsage && averageRating > trendingMinRating
}

// Popular reports whether a template qualifies as popular:
// more than 100 uses.
func Popular(usageCount int64) bool { return usageCount > popularMinUsage }

// IsNew reports whether a template was created within the last 30 days
// relative to now.
func IsNew(createdAt, now time.Time) bool {
	return now.Sub(createdAt) < newTemplateWindow
}

// TemplateFlags holds the derived read-model booleans for a template.
// Flags are recomputed on every read and never persisted, so they can
// never go stale.
type TemplateFlags struct {
	Trending bool `json:"trending"`
	Popular  bool `json:"popular"`
	IsNew    bool `json:"is_new"`
}

// ComputeFlags derives the read-model flags for a template at the given
// instant.
func ComputeFlags(t *CalculationTemplate, now time.Time) TemplateFlags {
	return TemplateFlags{
		Trending: Trending(t.UsageCount, t.AverageRating),
		Popular:  Popular(t.UsageCount),
		IsNew:    IsNew(t.CreatedAt, now),
	}
}

// SortOption selects the ordering of catalog query results.
type SortOption string

// Supported catalog sort orders.
const (
	SortPopular SortOption = "popular"
	SortRating  SortOption = "rating"
	SortNewest  SortOption = "newest"
	SortName    SortOption = "name"
)

// Default paging applied to catalog queries when the caller leaves the
// corresponding filter fields unset.
const (
	DefaultPage  = 1
	DefaultLimit = 50
)

// TemplateFilter narrows catalog queries. The zero value means "all
// active templates, first page of 50".
type TemplateFilter struct {
	// SearchTerm matches against name, description and tags.
	SearchTerm string `json:"search_term,omitempty"`

	// Category restricts results to a single catalog category.
	Category string `json:"category,omitempty"`

	// TargetProfession restricts results to a single trade.
	TargetProfession string `json:"target_profession,omitempty"`

	// ShowOnlyVerified keeps only expert-reviewed templates.
	ShowOnlyVerified bool `json:"show_only_verified,omitempty"`

	// ShowOnlyFeatured keeps only promoted templates.
	ShowOnlyFeatured bool `json:"show_only_featured,omitempty"`

	// Tags keeps templates carrying at least one of the given tags.
	Tags []string `json:"tags,omitempty"`

	// SortBy selects the result ordering; empty means SortPopular.
	SortBy SortOption `json:"sort_by,omitempty" validate:"omitempty,oneof=popular rating newest name"`

	// Page is the 1-based page number.
	Page int `json:"page,omitempty" validate:"omitempty,min=1"`

	// Limit is the page size.
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=1000"`

	// IncludeInactive lifts the implicit is_active filter. Catalog
	// queries default to active templates only.
	IncludeInactive bool `json:"include_inactive,omitempty"`
}

// WithDefaults returns a copy of the filter with paging and sort
// defaults applied: page 1, limit 50, sorted by popularity.
func (f TemplateFilter) WithDefaults() TemplateFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.SortBy == "" {
		f.SortBy = SortPopular
	}
	return f
}

// PageInfo describes the position of a page within the full result set.
type PageInfo struct {
	// Total is the number of matching items across all pages.
	Total int `json:"total"`

	// Page is the 1-based page number of this page.
	Page int `json:"page"`

	// Limit is the page size used for the query.
	Limit int `json:"limit"`

	// Pages is the total number of pages at this limit.
	Pages int `json:"pages"`
}

// Paginated wraps one page of query results together with paging
// metadata.
type Paginated[T any] struct {
	Data       []T      `json:"data"`
	Pagination PageInfo `json:"pagination"`
}

// NewPaginated builds a Paginated result, deriving the page count from
// total and limit.
func NewPaginated[T any](data []T, total, page, limit int) Paginated[T] {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Paginated[T]{
		Data: data,
		Pagination: PageInfo{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: pages,
		},
	}
}
