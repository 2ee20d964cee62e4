// Package ports defines the interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the engine testable.
package ports

import (
	"context"

	"github.com/fieldcalc/calc-engine/internal/domain"
)

// TemplateRepository is the external boundary for the template catalog.
// Implementations handle transport and storage; the engine only sees
// request/response calls. Lookup misses surface domain.ErrNotFound.
type TemplateRepository interface {
	// FindByID resolves a template by its id.
	// It returns domain.ErrNotFound when the id does not resolve.
	FindByID(ctx context.Context, id string) (*domain.CalculationTemplate, error)

	// FindAll returns one page of the catalog narrowed by the filter.
	// Unset filter fields fall back to the documented defaults:
	// active templates only, page 1, limit 50.
	FindAll(ctx context.Context, filter domain.TemplateFilter) (domain.Paginated[domain.CalculationTemplate], error)

	// IncrementUsage adds exactly one to the template's usage counter.
	// The engine calls this once per successful execution with
	// at-least-once semantics; a retried execution increments again.
	IncrementUsage(ctx context.Context, id string) error

	// UpdateRating folds one new rating (1-5) into the template's
	// running average and rating count.
	UpdateRating(ctx context.Context, id string, rating float64) error

	// FindVerified returns up to limit expert-reviewed templates.
	FindVerified(ctx context.Context, limit int) ([]domain.CalculationTemplate, error)

	// FindFeatured returns up to limit promoted templates.
	FindFeatured(ctx context.Context, limit int) ([]domain.CalculationTemplate, error)

	// FindTrending returns up to limit templates currently qualifying
	// as trending.
	FindTrending(ctx context.Context, limit int) ([]domain.CalculationTemplate, error)

	// FindSimilar returns up to limit templates related to the given
	// template by category or tag overlap.
	FindSimilar(ctx context.Context, id string, limit int) ([]domain.CalculationTemplate, error)

	// GetRecommendations returns up to limit templates suggested for
	// the given profession.
	GetRecommendations(ctx context.Context, profession string, limit int) ([]domain.CalculationTemplate, error)
}

// ExecutionRepository is the external boundary for persisted execution
// records.
type ExecutionRepository interface {
	// SaveExecution persists an execution record derived from the
	// result and returns the assigned execution id.
	SaveExecution(ctx context.Context, result domain.CalculationResult) (string, error)

	// GetExecutionHistory returns up to limit past executions for the
	// user, newest first, optionally narrowed to one template.
	// templateID may be empty.
	GetExecutionHistory(ctx context.Context, userID, templateID string, limit int) ([]domain.CalculationResult, error)

	// GetExecutionStats summarizes the persisted execution history of a
	// template.
	GetExecutionStats(ctx context.Context, templateID string) (domain.ExecutionStats, error)
}

// FavoritesRepository is the external boundary for per-user favorite
// marks. The store offers no transactional read-then-write pairing;
// callers own the resulting race (documented on the orchestrator).
type FavoritesRepository interface {
	// IsFavorite reports whether the user has favorited the template.
	IsFavorite(ctx context.Context, userID, templateID string) (bool, error)

	// AddFavorite marks the template as a favorite of the user.
	// Adding an existing favorite is a no-op.
	AddFavorite(ctx context.Context, userID, templateID string) error

	// RemoveFavorite clears the user's favorite mark for the template.
	// Removing an absent favorite is a no-op.
	RemoveFavorite(ctx context.Context, userID, templateID string) error

	// GetFavorites returns the ids of every template the user has
	// favorited. Ids may reference templates that no longer exist.
	GetFavorites(ctx context.Context, userID string) ([]string, error)

	// GetFavoriteStats summarizes how many users favorited a template.
	GetFavoriteStats(ctx context.Context, templateID string) (domain.FavoriteStats, error)
}
